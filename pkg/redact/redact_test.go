package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ascii_long_local", in: "foobar@example.com", want: "fo***@example.com"},
		{name: "ascii_short_local", in: "ab@ex.com", want: "***@ex.com"},
		{name: "no_at", in: "no-at-here", want: "***"},
		{name: "multiple_at", in: "a@b@c", want: "***"},
		{name: "empty", in: "", want: "***"},
		{name: "keeps_domain", in: "abc+tag@EXAMPLE.org", want: "ab***@EXAMPLE.org"},
		{name: "unicode_local", in: "юзер@пример.рф", want: "юз***@пример.рф"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Email(tt.in))
		})
	}
}

func TestHandle(t *testing.T) {
	t.Parallel()

	require.Equal(t, "vi***", Handle("viewer42"))
	require.Equal(t, "***", Handle("ab"))
	require.Equal(t, "***", Handle(""))
}

func TestLiterals(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_TOKEN]", Token())
	require.Equal(t, "[REDACTED_SECRET]", Secret())
}
