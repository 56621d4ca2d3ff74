package models

import "time"

// AvatarUpload — данные для загрузки аватара клиентом напрямую в объектное хранилище.
type AvatarUpload struct {
	UploadURL      string            `json:"upload_url"`
	AvatarKey      string            `json:"avatar_key"`
	Expires        time.Duration     `json:"-"`
	RequiredHeader map[string]string `json:"required_headers"`
}
