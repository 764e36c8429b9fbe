package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"

	"github.com/salmonumbrella/brainstorm-cli/internal/config"
)

// withHome points the config directory at a fresh temp dir.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func TestOpenKeyringWithTimeout(t *testing.T) {
	t.Run("opens", func(t *testing.T) {
		prev := keyringOpenFunc
		t.Cleanup(func() { keyringOpenFunc = prev })

		var gotService string
		keyringOpenFunc = func(cfg keyring.Config) (keyring.Keyring, error) {
			gotService = cfg.ServiceName
			return keyring.NewArrayKeyring(nil), nil
		}

		ring, err := openKeyringWithTimeout(keyring.Config{ServiceName: config.AppName}, time.Second)
		if err != nil || ring == nil {
			t.Fatalf("openKeyringWithTimeout() = %v, %v", ring, err)
		}
		if gotService != config.AppName {
			t.Errorf("service name = %q, want %q", gotService, config.AppName)
		}
	})

	t.Run("gives up on a hung backend", func(t *testing.T) {
		prev := keyringOpenFunc
		release := make(chan struct{})
		done := make(chan struct{})
		keyringOpenFunc = func(keyring.Config) (keyring.Keyring, error) {
			defer close(done)
			<-release
			return keyring.NewArrayKeyring(nil), nil
		}

		_, err := openKeyringWithTimeout(keyring.Config{}, 20*time.Millisecond)

		// The opener goroutine reads keyringOpenFunc; let it finish first.
		close(release)
		<-done
		keyringOpenFunc = prev

		if !errors.Is(err, errKeyringTimeout) {
			t.Fatalf("error = %v, want errKeyringTimeout", err)
		}
		for _, hint := range []string{EnvKeyringBackend + "=file", EnvKeyringPassword} {
			if !strings.Contains(err.Error(), hint) {
				t.Errorf("timeout error should mention %s, got: %v", hint, err)
			}
		}
	})
}

func TestBackendSelection(t *testing.T) {
	const bus = "unix:path=/run/user/1000/bus"
	tests := []struct {
		name      string
		goos      string
		backend   string
		dbusAddr  string
		forceFile bool
		timeout   bool
	}{
		{"linux headless", "linux", "auto", "", true, false},
		{"linux desktop", "linux", "auto", bus, false, true},
		{"linux keychain pinned", "linux", "keychain", "", false, false},
		{"linux file pinned", "linux", "file", bus, false, false},
		{"macos", "darwin", "auto", "", false, false},
		{"windows", "windows", "auto", bus, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := KeyringBackendInfo{Value: tt.backend}
			if got := shouldForceFileBackend(tt.goos, info, tt.dbusAddr); got != tt.forceFile {
				t.Errorf("shouldForceFileBackend() = %v, want %v", got, tt.forceFile)
			}
			if got := shouldUseKeyringTimeout(tt.goos, info, tt.dbusAddr); got != tt.timeout {
				t.Errorf("shouldUseKeyringTimeout() = %v, want %v", got, tt.timeout)
			}
		})
	}
}

func TestResolveKeyringBackendInfo(t *testing.T) {
	home := withHome(t)

	t.Setenv(EnvKeyringBackend, "")
	info, err := ResolveKeyringBackendInfo()
	if err != nil || info != (KeyringBackendInfo{Value: "auto", Source: BackendSourceDefault}) {
		t.Fatalf("default = %+v, %v", info, err)
	}

	cfgPath := filepath.Join(home, ".config", config.AppName, "config.yaml")
	if err := (&config.Config{KeyringBackend: "Keychain"}).Save(cfgPath); err != nil {
		t.Fatal(err)
	}
	info, err = ResolveKeyringBackendInfo()
	if err != nil || info != (KeyringBackendInfo{Value: "keychain", Source: BackendSourceConfig}) {
		t.Fatalf("from config = %+v, %v", info, err)
	}

	t.Setenv(EnvKeyringBackend, " FILE ")
	info, err = ResolveKeyringBackendInfo()
	if err != nil || info != (KeyringBackendInfo{Value: "file", Source: BackendSourceEnv}) {
		t.Fatalf("from env = %+v, %v", info, err)
	}
}

func TestWrapKeychainError(t *testing.T) {
	if wrapKeychainError(nil) != nil {
		t.Fatal("wrapKeychainError(nil) should be nil")
	}

	other := errors.New("item not readable")
	if got := wrapKeychainError(other); got != other {
		t.Errorf("unrelated errors pass through unchanged, got %v", got)
	}

	locked := errors.New("set credential: errSecInteractionNotAllowed")
	got := wrapKeychainError(locked)
	if !errors.Is(got, locked) {
		t.Errorf("wrapped error should unwrap to the original")
	}
	for _, hint := range []string{"security unlock-keychain", EnvKeyringBackend + "=file"} {
		if !strings.Contains(got.Error(), hint) {
			t.Errorf("locked keychain error should mention %q, got: %v", hint, got)
		}
	}
}

func TestOpenDefaultFileBackend(t *testing.T) {
	home := withHome(t)
	t.Setenv(EnvKeyringBackend, "file")
	t.Setenv(EnvKeyringPassword, "correct horse")

	store, err := OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault() error = %v", err)
	}
	if err := store.SetCredential("deepseek", Credential{APIKey: "sk-deep", Model: "deepseek-chat"}); err != nil {
		t.Fatalf("SetCredential() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", config.AppName, "keyring")); err != nil {
		t.Fatalf("keyring dir not created: %v", err)
	}

	// A second open reads what the first one wrote.
	reopened, err := OpenDefault()
	if err != nil {
		t.Fatal(err)
	}
	cred, err := reopened.GetCredential("deepseek")
	if err != nil || cred.APIKey != "sk-deep" || cred.Model != "deepseek-chat" {
		t.Fatalf("GetCredential() = %+v, %v", cred, err)
	}
}

func TestOpenDefaultRejectsUnknownBackend(t *testing.T) {
	withHome(t)
	t.Setenv(EnvKeyringBackend, "vault")
	if _, err := OpenDefault(); err == nil || !strings.Contains(err.Error(), "vault") {
		t.Fatalf("expected invalid backend error, got %v", err)
	}
}
