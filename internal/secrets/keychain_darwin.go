//go:build darwin

package secrets

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// IsKeychainLockedError matches the Security framework's locked-keychain error.
func IsKeychainLockedError(errStr string) bool {
	return strings.Contains(errStr, "errSecInteractionNotAllowed") || strings.Contains(errStr, "-25308")
}

func loginKeychainPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, "Library", "Keychains", "login.keychain-db")
}

// CheckKeychainLocked reports whether the login keychain is locked.
func CheckKeychainLocked() bool {
	cmd := exec.Command("security", "show-keychain-info", loginKeychainPath())
	return cmd.Run() != nil
}

// UnlockKeychain prompts for the login password via the security tool.
func UnlockKeychain() error {
	cmd := exec.Command("security", "unlock-keychain", loginKeychainPath())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("unlock keychain: %w", err)
	}
	return nil
}

// EnsureKeychainAccess unlocks a locked keychain when a terminal is attached.
func EnsureKeychainAccess() error {
	if os.Getenv(EnvKeyringBackend) == "file" || !CheckKeychainLocked() {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("keychain is locked; run: security unlock-keychain %s", loginKeychainPath())
	}
	fmt.Fprintln(os.Stderr, "Keychain is locked. Enter your login password to unlock it.")
	return UnlockKeychain()
}
