package storage

import (
	"fmt"

	"github.com/qs3c/persona_go_server/config"
)

// Storage 媒体文件落盘，按用户分目录，返回可公开访问的 URL。
type Storage interface {
	SaveImage(userID, name string, data []byte, contentType string) (string, error)
}

// New 按配置选择后端
func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.MediaDir, cfg.PublicBaseURL)
	case "oss":
		return NewOSS(&cfg.OSS)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// ExtensionForContentType 按 Content-Type 推扩展名，认不出来回退 .png
func ExtensionForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
