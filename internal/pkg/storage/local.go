package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local 本地磁盘后端：<media_dir>/<user_id>/<name>，由服务进程在
// public_base_url 下静态托管。
type Local struct {
	dir           string
	publicBaseURL string
}

func NewLocal(dir, publicBaseURL string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("media dir is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &Local{
		dir:           dir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Dir 媒体根目录
func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) SaveImage(userID, name string, data []byte, contentType string) (string, error) {
	userDir := filepath.Join(l.dir, userID)
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create user dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(userDir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return l.publicBaseURL + "/" + userID + "/" + name, nil
}
