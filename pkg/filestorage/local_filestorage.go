// pkg/filestorage/local_filestorage.go

package filestorage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type LocalFileStorage struct {
	basePath string
}

func NewLocalFileStorage(basePath string) (FileStorageInterface, error) {
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию: %w", err)
		}
	}
	return &LocalFileStorage{basePath: basePath}, nil
}

func (s *LocalFileStorage) Save(fileName string, data []byte) (string, error) {
	fullPath := filepath.Join(s.basePath, fileName)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", err
	}

	return "/qrcodes/" + filepath.ToSlash(fileName), nil
}

func (s *LocalFileStorage) Delete(fileURL string) error {
	// fileURL приходит в виде "/qrcodes/AST-xxxx.png",
	// отсекаем префикс и получаем путь относительно basePath.
	relativePath := strings.TrimPrefix(fileURL, "/qrcodes/")

	fullPath := filepath.Join(s.basePath, relativePath)

	// Если файла и так нет, считаем операцию успешной.
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(fullPath)
}
