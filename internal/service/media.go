package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// 生成产物由工作流引擎给出临时 URL，服务端负责拉取并转存到自己的
// 存储，避免依赖引擎侧的保留期。

const maxImageBytes = 20 << 20

func downloadImage(ctx context.Context, client *http.Client, url string) (data []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image download returned %d", resp.StatusCode)
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
