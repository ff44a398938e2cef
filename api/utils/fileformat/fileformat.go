package fileformat

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UniqueFormat derives a collision-free object name from an uploaded filename,
// keeping the original extension.
func UniqueFormat(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	if base == "" {
		base = "upload"
	}
	return base + "-" + uuid.New().String() + ext
}
