// redact маскирует чувствительные данные перед записью в лог.
package redact

import "strings"

// Email маскирует e-mail: оставляет две первые руны локальной части и домен.
// Строка без ровно одного '@' заменяется целиком.
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	return mask(s[:i]) + "@" + s[i+1:]
}

// Handle маскирует публичное имя пользователя по тем же правилам, что и локальную часть e-mail.
func Handle(s string) string {
	return mask(s)
}

func mask(s string) string {
	r := []rune(s)
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}

	return "***"
}

// Token возвращает заглушку вместо токена.
func Token() string { return "[REDACTED_TOKEN]" }

// Secret возвращает заглушку вместо пароля.
func Secret() string { return "[REDACTED_SECRET]" }
