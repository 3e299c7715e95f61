package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileInfo represents details about a single file as shown by the info
// command: size, timestamps and the category it would be sorted into.
type FileInfo struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
	Category string    `json:"category,omitempty"`
}

// Name returns the base name of the file.
func (f *FileInfo) Name() string {
	return filepath.Base(f.Path)
}

// Extension returns the lower-cased extension, including the leading dot,
// or the empty string for extensionless files.
func (f *FileInfo) Extension() string {
	return strings.ToLower(filepath.Ext(f.Path))
}

// String returns a human-readable representation.
func (f *FileInfo) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File: %s\n", f.Path))
	sb.WriteString(fmt.Sprintf("Size: %s\n", FormatSize(f.Size)))
	sb.WriteString(fmt.Sprintf("Modified: %s\n", f.ModTime.Format("2006-01-02 15:04:05")))
	if f.Category != "" {
		sb.WriteString(fmt.Sprintf("Category: %s\n", f.Category))
	}
	return sb.String()
}

// FormatSize renders a byte count using binary units.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
