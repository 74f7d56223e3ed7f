package services

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationResult contains the results of file validation
type ValidationResult struct {
	Valid        bool
	DetectedType string // "CSV", "XLSX", "XLS"
	Size         int64
	Errors       []string
}

// FileValidator checks uploaded spreadsheets before they are parsed
type FileValidator struct {
	maxSizeBytes int64
	magicBytes   map[string][]byte
}

// File magic bytes signatures
var fileMagicBytes = map[string][]byte{
	"XLSX": {0x50, 0x4B, 0x03, 0x04},                         // ZIP signature (XLSX is a ZIP)
	"XLS":  {0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, // OLE2 compound document
}

// Allowed file extensions and the content type each one must carry
var allowedExtensions = map[string]string{
	".csv":  "CSV",
	".xlsx": "XLSX",
	".xlsm": "XLSX",
	".xls":  "XLS",
}

// NewFileValidator creates a new file validator with the specified maximum file size
func NewFileValidator(maxSizeBytes int64) *FileValidator {
	return &FileValidator{
		maxSizeBytes: maxSizeBytes,
		magicBytes:   fileMagicBytes,
	}
}

// Validate runs every check against an in-memory upload
func (v *FileValidator) Validate(data []byte, filename string) *ValidationResult {
	result := &ValidationResult{
		Valid:  true,
		Size:   int64(len(data)),
		Errors: []string{},
	}

	// 1. Validate filename
	if err := v.ValidateFilename(filename); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	// 2. Validate file size
	if err := v.ValidateFileSize(result.Size); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	// 3. Detect file type from magic bytes
	detectedType, err := v.ValidateMagicBytes(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.DetectedType = detectedType

	// 4. Check the extension matches the content
	if expected, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]; ok && expected != detectedType {
		result.Valid = false
		result.Errors = append(result.Errors, "file extension does not match file content")
	}

	return result
}

// ValidateFilename validates the filename for security issues
func (v *FileValidator) ValidateFilename(filename string) error {
	// Check for empty filename
	if filename == "" {
		return errors.New("filename cannot be empty")
	}

	// Check for path traversal attempts
	if strings.Contains(filename, "..") {
		return errors.New("filename contains path traversal")
	}

	// Check for null bytes
	if strings.Contains(filename, "\x00") {
		return errors.New("filename contains null bytes")
	}

	// Check for absolute paths
	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return errors.New("filename cannot be absolute path")
	}

	// Check extension
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return errors.New("filename must have an extension")
	}

	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("unsupported file extension: %s", ext)
	}

	return nil
}

// ValidateMagicBytes detects and validates file type based on magic bytes
func (v *FileValidator) ValidateMagicBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}

	if bytes.HasPrefix(data, v.magicBytes["XLSX"]) {
		return "XLSX", nil
	}

	if bytes.HasPrefix(data, v.magicBytes["XLS"]) {
		return "XLS", nil
	}

	// CSV detection: text-based file without binary magic bytes
	if v.isTextContent(data) {
		return "CSV", nil
	}

	return "", errors.New("unsupported file type based on content")
}

// ValidateFileSize validates the file size is within limits
func (v *FileValidator) ValidateFileSize(size int64) error {
	if size < 0 {
		return errors.New("invalid file size")
	}

	if size == 0 {
		return errors.New("empty file")
	}

	if v.maxSizeBytes > 0 && size > v.maxSizeBytes {
		return fmt.Errorf("file size (%d bytes) exceeds maximum allowed size (%d bytes)", size, v.maxSizeBytes)
	}

	return nil
}

// isTextContent checks if the data appears to be text (for CSV detection).
// Bytes >= 0x80 count as text so UTF-8 and Windows-1252 accents pass.
func (v *FileValidator) isTextContent(data []byte) bool {
	checkLen := len(data)
	if checkLen > 512 {
		checkLen = 512
	}

	sample := data[:checkLen]

	// Text files shouldn't have null bytes
	if bytes.Contains(sample, []byte{0x00}) {
		return false
	}

	printable := 0
	for _, b := range sample {
		if (b >= 0x20 && b != 0x7F) || b == 0x09 || b == 0x0A || b == 0x0D {
			printable++
		}
	}

	// If more than 95% of characters are printable, consider it text
	return float64(printable)/float64(len(sample)) > 0.95
}
