//go:build windows

package config

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Principals whose presence in the ACL makes the file readable by other accounts.
var broadPrincipals = []string{"everyone", "authenticated users", `builtin\users`, "users"}

// fileAudience describes who besides the owner can read path, and the command
// that restricts it. Both are empty when the ACL looks private or icacls fails.
func fileAudience(path string) (who, fix string) {
	if _, err := os.Stat(path); err != nil {
		return "", ""
	}
	out, err := exec.Command("icacls", path).Output()
	if err != nil {
		return "", ""
	}
	acl := strings.ToLower(string(out))
	for _, p := range broadPrincipals {
		if strings.Contains(acl, p) {
			return fmt.Sprintf("%q", p), fmt.Sprintf(`icacls "%s" /inheritance:r /grant:r "%%USERNAME%%:F"`, path)
		}
	}
	return "", ""
}
