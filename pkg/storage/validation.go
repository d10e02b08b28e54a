package storage

import "fmt"

// FileMeta is the declared metadata for a file awaiting upload. The
// upload pipeline validates staged descriptors without reopening them.
type FileMeta struct {
	Name string
	MIME string
	Size int64
}

// FileValidationError represents a file validation failure.
type FileValidationError struct {
	Details map[string]any
	Code    string
	Message string
}

func (e *FileValidationError) Error() string {
	return e.Message
}

// Error codes for FileValidationError.
const (
	ErrCodeFileTooLarge = "file_too_large"
	ErrCodeInvalidMIME  = "invalid_mime"
	ErrCodeEmptyFile    = "empty_file"
)

// ValidationRule defines a validation check for file uploads.
type ValidationRule interface {
	Validate(meta FileMeta) error
}

// ValidateMeta runs all rules against a file's declared metadata.
// Returns the first validation error encountered, or nil if all pass.
func ValidateMeta(meta FileMeta, rules ...ValidationRule) error {
	for _, rule := range rules {
		if err := rule.Validate(meta); err != nil {
			return err
		}
	}
	return nil
}

type maxSizeRule struct {
	maxBytes int64
}

// MaxSize returns a rule that rejects files larger than the given size.
func MaxSize(bytes int64) ValidationRule {
	return &maxSizeRule{maxBytes: bytes}
}

func (r *maxSizeRule) Validate(meta FileMeta) error {
	if meta.Size > r.maxBytes {
		return &FileValidationError{
			Code:    ErrCodeFileTooLarge,
			Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", meta.Size, r.maxBytes),
			Details: map[string]any{
				"limit": r.maxBytes,
				"got":   meta.Size,
			},
		}
	}
	return nil
}

type notEmptyRule struct{}

// NotEmpty returns a rule that rejects empty files.
func NotEmpty() ValidationRule {
	return &notEmptyRule{}
}

func (r *notEmptyRule) Validate(meta FileMeta) error {
	if meta.Size == 0 {
		return &FileValidationError{
			Code:    ErrCodeEmptyFile,
			Message: "file is empty",
			Details: map[string]any{},
		}
	}
	return nil
}

type allowedTypesRule struct {
	patterns []string
}

// AllowedTypes returns a rule that only accepts files matching the
// given MIME patterns. Supports wildcards like "image/*".
func AllowedTypes(patterns ...string) ValidationRule {
	return &allowedTypesRule{patterns: patterns}
}

func (r *allowedTypesRule) Validate(meta FileMeta) error {
	if !matchesMIME(meta.MIME, r.patterns) {
		return &FileValidationError{
			Code:    ErrCodeInvalidMIME,
			Message: fmt.Sprintf("file type %q is not allowed", meta.MIME),
			Details: map[string]any{
				"type":    meta.MIME,
				"allowed": r.patterns,
			},
		}
	}
	return nil
}

// ImageOnly returns a rule that only accepts image files.
// Equivalent to AllowedTypes("image/*").
func ImageOnly() ValidationRule {
	return AllowedTypes("image/*")
}
