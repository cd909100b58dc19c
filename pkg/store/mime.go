package store

import (
	"mime"
	"path/filepath"
	"strings"
)

func guessContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case "":
		return ""
	case ".jpg", ".jpeg":
		// mime's table depends on the host; JPEG is what we write
		return "image/jpeg"
	}

	return mime.TypeByExtension(ext)
}
