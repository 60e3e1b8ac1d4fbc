// Package validation guards the CLI's file inputs: path hygiene plus cheap
// structural checks that reject the wrong kind of file before any parsing.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits on user-supplied inputs.
const (
	// MaxDocumentSize caps the size of a document under review (64 MB).
	MaxDocumentSize = 64 << 20
	// MaxFindingsSize caps the size of a findings file (8 MB).
	MaxFindingsSize = 8 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrEmptyPath       = errors.New("path cannot be empty")
	ErrPathTooLong     = errors.New("path too long")
	ErrNullByte        = errors.New("null byte in path")
	ErrControlChar     = errors.New("control character in path")
	ErrNotZipContainer = errors.New("not a zip container")
	ErrTooLarge        = errors.New("file too large")
)

// ValidatePath runs basic hygiene checks on a user-supplied path.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.ContainsRune(path, 0) {
		return ErrNullByte
	}
	for _, r := range path {
		if unicode.IsControl(r) && r != '\t' {
			return ErrControlChar
		}
	}
	return nil
}

// zipMagic is the local-file-header signature every docx starts with.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// CheckDocumentBytes rejects inputs that cannot be a packaged document: too
// large, too small, or missing the zip signature. It is a cheap pre-filter;
// full structural verification happens at load.
func CheckDocumentBytes(data []byte) error {
	if len(data) > MaxDocumentSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(data), MaxDocumentSize)
	}
	if len(data) < len(zipMagic) || !bytes.HasPrefix(data, zipMagic) {
		return ErrNotZipContainer
	}
	return nil
}

// ReadDocument validates the path, reads the file, and pre-filters the bytes.
func ReadDocument(path string) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxDocumentSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, info.Size(), MaxDocumentSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := CheckDocumentBytes(data); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadFindings validates the path and reads a findings file with a size cap.
func ReadFindings(path string) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxFindingsSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, info.Size(), MaxFindingsSize)
	}
	return os.ReadFile(path)
}

// SafeOutputPath rejects output paths that would silently escape the working
// tree via traversal tricks. Absolute paths are allowed; relative paths must
// stay relative after cleaning.
func SafeOutputPath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) && strings.HasPrefix(clean, "..") {
		return fmt.Errorf("relative output path escapes working directory: %s", path)
	}
	return nil
}
