package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrFileNotFound = errors.New("file not found")

type FileStorage interface {
	// Upload uploads a file and returns the file path/key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download retrieves a file. A missing file fails with ErrFileNotFound.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error

	// GetURL generates a presigned/public URL
	GetURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	// Exists checks if file exists
	Exists(ctx context.Context, path string) (bool, error)
}

// PayslipPDFKey is the storage key of a payslip document.
func PayslipPDFKey(year, month int, payslipID string) string {
	return fmt.Sprintf("payslips/%04d/%02d/%s.pdf", year, month, payslipID)
}

// ImportKey is the storage key of an uploaded attendance file kept for audit.
func ImportKey(jobID, filename string) string {
	return fmt.Sprintf("imports/%s/%s", jobID, filename)
}
