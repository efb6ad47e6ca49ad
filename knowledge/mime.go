package knowledge

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hupe1980/serenitystar/core"
)

// contentTypes lists the file extensions accepted for upload.
var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".jpg":  "image/jpg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ContentType returns the MIME type sent for fileName. Extensions are matched
// case-insensitively; anything outside the supported set is a validation
// error.
func ContentType(fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ct, ok := contentTypes[ext]; ok {
		return ct, nil
	}
	if ext == "" {
		return "", core.NewValidationError("fileName", fmt.Sprintf("%q has no file extension", fileName))
	}
	return "", core.NewValidationError("fileName", fmt.Sprintf("file type %s is not supported", ext))
}
