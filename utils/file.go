package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// HashFile returns the lowercase hex SHA-256 of the file contents, read in
// 8KB blocks so large drawings and scans never load fully into memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 8192)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file for hashing: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// GetFileNameWithoutExt returns the base name of the file without its extension
func GetFileNameWithoutExt(filePath string) string {
	fileName := filepath.Base(filePath)
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

// FileExt returns the lowercase extension including the dot.
func FileExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
