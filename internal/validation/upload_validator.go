package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "studentpulse/internal/errors"
	"studentpulse/pkg/contracts/domain"
)

// UploadValidator checks an upload before any parsing is attempted
type UploadValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewUploadValidator creates a validator. maxBytes <= 0 disables the size check.
func NewUploadValidator(logger *slog.Logger, maxBytes int64) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		logger:   logger.With(slog.String("component", "upload_validator")),
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the configured upload limit
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks the file name and size and returns the detected
// format. Name problems are configuration errors; an oversize file is a
// 413 API error.
func (v *UploadValidator) ValidateUpload(name string, size int64) (domain.SourceFormat, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		v.logger.Warn("Upload rejected: missing file name")
		return "", apierrors.NewConfigError("uploaded file has no name", nil)
	}

	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Upload rejected: temporary Office file", slog.String("file", base))
		return "", apierrors.NewConfigError(
			fmt.Sprintf("%s is a temporary Office lock file", base), nil).
			WithContext("file", base)
	}

	format, ok := domain.SourceFormatOf(base)
	if !ok {
		ext := strings.ToLower(filepath.Ext(base))
		v.logger.Warn("Upload rejected: unsupported extension",
			slog.String("file", base),
			slog.String("extension", ext))
		return "", apierrors.NewConfigError(
			fmt.Sprintf("unsupported file type %q; upload one of %s", ext, strings.Join(domain.SupportedExtensions, ", ")), nil).
			WithContext("extension", ext)
	}

	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("Upload rejected: too large",
			slog.String("file", base),
			slog.Int64("size", size),
			slog.Int64("max_bytes", v.maxBytes))
		return "", apierrors.PayloadTooLarge(v.maxBytes)
	}

	v.logger.Debug("Upload validated",
		slog.String("file", base),
		slog.String("format", string(format)),
		slog.Int64("size", size))
	return format, nil
}

// ValidateInputFile checks a local file for the process command
func (v *UploadValidator) ValidateInputFile(path string) (domain.SourceFormat, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}
	return v.ValidateUpload(filepath.Base(path), info.Size())
}

// ValidateOutputDirectory ensures dir exists or can be created and is writable
func (v *UploadValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return nil
}
