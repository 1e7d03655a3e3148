//go:build unix

package config

import (
	"fmt"
	"os"
)

// fileAudience describes who besides the owner can read path, and the command
// that restricts it. Both are empty when the file is private or unreadable.
func fileAudience(path string) (who, fix string) {
	info, err := os.Stat(path)
	if err != nil {
		return "", ""
	}
	mode := info.Mode().Perm()
	if mode&0077 == 0 {
		return "", ""
	}
	return fmt.Sprintf("group or other users (mode %04o)", mode), "chmod 600 " + path
}
