package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/FACorreiaa/household-budget/internal/domain/import/parser"
)

// DefaultMaxUploadBytes is the upload size limit.
const DefaultMaxUploadBytes int64 = 10 << 20

type fileKind int

const (
	kindTabular fileKind = iota
	kindDocument
)

var documentMIMETypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"heic": "image/heic",
}

type uploadKind struct {
	kind     fileKind
	format   parser.Format
	mimeType string
	ext      string
}

// validateUpload applies the gates in order; the first failure wins.
func validateUpload(u Upload, maxBytes int64) (uploadKind, error) {
	if u.FileName == "" && u.Data == nil {
		return uploadKind{}, invalid("no file was uploaded")
	}
	if strings.TrimSpace(u.SourceLabel) == "" {
		return uploadKind{}, invalid("choose the account or card this statement belongs to")
	}

	size := u.Size
	if size <= 0 {
		size = int64(len(u.Data))
	}
	if size > maxBytes {
		return uploadKind{}, invalid(fmt.Sprintf("file is too large, the limit is %d MB", maxBytes>>20))
	}
	if len(u.Data) == 0 {
		return uploadKind{}, invalid("the uploaded file is empty")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(u.FileName), "."))
	if format, ok := parser.FormatFromExtension(ext); ok {
		return uploadKind{kind: kindTabular, format: format, ext: ext}, nil
	}
	if mime, ok := documentMIMETypes[ext]; ok {
		return uploadKind{kind: kindDocument, mimeType: mime, ext: ext}, nil
	}
	return uploadKind{}, invalid("unsupported file type, upload an Excel, CSV, PDF or image file")
}
