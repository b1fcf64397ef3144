// Package pathutil validates user-supplied file paths before the CLI
// reads job files or writes spec and CSV output.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilePath rejects paths that could escape the working tree, such as
// an --out or --log-file argument like "specs/../../etc/passwd". Detection is
// segment-based on the uncleaned path: cleaning first would collapse the ".."
// and let the path slip past a plain substring check. Returns an error if the
// path is empty, contains null bytes, or has ".." in any segment.
func ValidateFilePath(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.Contains(filePath, "\x00") {
		return fmt.Errorf("file path contains invalid characters")
	}

	normalized := filepath.ToSlash(filePath)
	segments := strings.Split(normalized, "/")
	for _, segment := range segments {
		if segment == ".." {
			return fmt.Errorf("file path contains path traversal: %q", filePath)
		}
	}
	if strings.HasPrefix(normalized, "../") || normalized == ".." {
		return fmt.Errorf("file path contains path traversal: %q", filePath)
	}
	return nil
}
