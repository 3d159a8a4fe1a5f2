package mediastore

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"dubber/internal/services"
)

// UploadRules constrains accepted uploads.
type UploadRules struct {
	AllowedExtensions []string
	MaxBytes          int64
}

// ValidateUpload checks the extension and size of an incoming file. The
// returned error carries a user-facing message and matches
// services.ErrValidation.
func ValidateUpload(filename string, size int64, rules UploadRules) error {
	allowed := make([]string, 0, len(rules.AllowedExtensions))
	for _, ext := range rules.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed = append(allowed, ext)
		}
	}
	if len(allowed) > 0 {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
		if !slices.Contains(allowed, ext) {
			return &ValidationError{Message: "File must be one of: " + strings.Join(allowed, ", ")}
		}
	}
	if rules.MaxBytes > 0 && size > rules.MaxBytes {
		return TooLarge(rules.MaxBytes)
	}
	return nil
}

// TooLarge reports an upload exceeding maxBytes.
func TooLarge(maxBytes int64) error {
	return &ValidationError{Message: fmt.Sprintf("File must not exceed %s", formatSize(maxBytes))}
}

// ValidationError is a rejected upload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == services.ErrValidation }

func formatSize(bytes int64) string {
	const mb = 1024 * 1024
	if bytes%mb == 0 {
		return fmt.Sprintf("%dMB", bytes/mb)
	}
	return fmt.Sprintf("%d bytes", bytes)
}
