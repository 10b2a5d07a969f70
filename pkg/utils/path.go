package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath 展开开头的 ~ 并转换为绝对路径；空串原样返回
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

// EnsureDir 确保目录存在，仅当前用户可访问
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

// EnsureDataDir 解析路径并创建目录，返回绝对路径
func EnsureDataDir(path string) (string, error) {
	abs, err := ResolvePath(path)
	if err != nil {
		return "", err
	}
	if err := EnsureDir(abs); err != nil {
		return "", fmt.Errorf("create dir %s: %w", abs, err)
	}
	return abs, nil
}
