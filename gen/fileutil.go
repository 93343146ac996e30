package gen

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// WriteFileAtomic 将内容写入临时文件后原子地改名到目标路径。
// 下载或编码中途失败不会在最终路径留下截断文件。
func WriteFileAtomic(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".gen-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize file: %w", err)
	}
	return nil
}

// DownloadFile 通过给定客户端下载 URL 内容并原子写入目标路径。
func DownloadFile(client *http.Client, url, path string) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("download error: status=%d url=%s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("download read failed: %w", err)
	}

	return WriteFileAtomic(path, data)
}
