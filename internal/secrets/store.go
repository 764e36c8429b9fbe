// Package secrets keeps provider API keys in the system keyring.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/99designs/keyring"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/salmonumbrella/brainstorm-cli/internal/config"
)

const (
	credentialPrefix   = "credential:"
	defaultProviderKey = "default_provider"

	keyringOpenTimeout = 5 * time.Second
)

// Environment variables that steer backend selection.
const (
	EnvKeyringBackend  = "BRAINSTORM_KEYRING_BACKEND"
	EnvKeyringPassword = "BRAINSTORM_KEYRING_PASSWORD"
)

var errKeyringTimeout = errors.New("timed out opening keyring")

// ErrNotFound is returned when no credential is stored for a provider.
var ErrNotFound = errors.New("credential not found")

// keyringOpenFunc is swapped in tests.
var keyringOpenFunc = keyring.Open

// Credential is what is stored for one provider.
type Credential struct {
	Provider  string    `json:"provider"`
	APIKey    string    `json:"api_key"`
	Model     string    `json:"model,omitempty"`
	BaseURL   string    `json:"base_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the credential store used by the CLI.
type Store interface {
	Keys() ([]string, error)
	SetCredential(provider string, cred Credential) error
	GetCredential(provider string) (Credential, error)
	DeleteCredential(provider string) error
	SetDefaultProvider(provider string) error
	DefaultProvider() (string, error)
}

// KeyringStore implements Store over 99designs/keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// KeyringBackendInfo records the chosen backend and where it came from.
type KeyringBackendInfo struct {
	Value  string
	Source string
}

// Backend sources
const (
	BackendSourceEnv     = "env"
	BackendSourceConfig  = "config"
	BackendSourceDefault = "default"
)

// ResolveKeyringBackendInfo picks the backend: env, then config, then auto.
func ResolveKeyringBackendInfo() (KeyringBackendInfo, error) {
	if v := strings.TrimSpace(os.Getenv(EnvKeyringBackend)); v != "" {
		return KeyringBackendInfo{Value: strings.ToLower(v), Source: BackendSourceEnv}, nil
	}
	cfg, err := config.ReadConfig()
	if err != nil {
		return KeyringBackendInfo{}, err
	}
	if v := strings.TrimSpace(cfg.KeyringBackend); v != "" {
		return KeyringBackendInfo{Value: strings.ToLower(v), Source: BackendSourceConfig}, nil
	}
	return KeyringBackendInfo{Value: "auto", Source: BackendSourceDefault}, nil
}

func allowedBackends(info KeyringBackendInfo) ([]keyring.BackendType, error) {
	switch info.Value {
	case "", "auto":
		return nil, nil
	case "keychain":
		return []keyring.BackendType{keyring.KeychainBackend}, nil
	case "file":
		return []keyring.BackendType{keyring.FileBackend}, nil
	default:
		return nil, fmt.Errorf("invalid keyring backend %q (use auto, keychain or file)", info.Value)
	}
}

// shouldForceFileBackend is true on Linux with no D-Bus session, where the
// secret service backends would fail or hang.
func shouldForceFileBackend(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr == ""
}

// shouldUseKeyringTimeout bounds opening a D-Bus backend that may never answer.
func shouldUseKeyringTimeout(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr != ""
}

func fileKeyringPasswordFunc() keyring.PromptFunc {
	if password, ok := os.LookupEnv(EnvKeyringPassword); ok {
		return keyring.FixedStringPrompt(password)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return keyring.TerminalPrompt
	}
	return func(string) (string, error) {
		return "", fmt.Errorf("no TTY available for keyring file backend password prompt; set %s", EnvKeyringPassword)
	}
}

func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	type result struct {
		ring keyring.Keyring
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- result{ring, err}
	}()

	select {
	case res := <-ch:
		return res.ring, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %v (D-Bus SecretService may be unresponsive); set %s=file and %s=<password> to use the file backend",
			errKeyringTimeout, timeout, EnvKeyringBackend, EnvKeyringPassword)
	}
}

func openKeyring() (keyring.Keyring, error) {
	info, err := ResolveKeyringBackendInfo()
	if err != nil {
		return nil, err
	}
	backends, err := allowedBackends(info)
	if err != nil {
		return nil, err
	}

	dbusAddr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	if shouldForceFileBackend(runtime.GOOS, info, dbusAddr) {
		backends = []keyring.BackendType{keyring.FileBackend}
	}

	keyringDir, err := config.EnsureKeyringDir()
	if err != nil {
		return nil, err
	}

	cfg := keyring.Config{
		ServiceName:              config.AppName,
		KeychainTrustApplication: runtime.GOOS == "darwin",
		AllowedBackends:          backends,
		FileDir:                  keyringDir,
		FilePasswordFunc:         fileKeyringPasswordFunc(),
	}

	if shouldUseKeyringTimeout(runtime.GOOS, info, dbusAddr) {
		return openKeyringWithTimeout(cfg, keyringOpenTimeout)
	}
	ring, err := keyringOpenFunc(cfg)
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	return ring, nil
}

// OpenDefault opens the store with the configured backend.
func OpenDefault() (Store, error) {
	if err := EnsureKeychainAccess(); err != nil {
		return nil, err
	}
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return &KeyringStore{ring: ring}, nil
}

// NewKeyringStore wraps an already-open keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// wrapKeychainError adds unlock instructions to locked-keychain failures.
func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "errSecInteractionNotAllowed") || IsKeychainLockedError(err.Error()) {
		return fmt.Errorf("%w\n\nThe keychain is locked. Unlock it with:\n  security unlock-keychain ~/Library/Keychains/login.keychain-db\nor set %s=file", err, EnvKeyringBackend)
	}
	return err
}

func normalize(provider string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "", errors.New("missing provider")
	}
	return provider, nil
}

// Keys lists the raw keyring keys.
func (s *KeyringStore) Keys() ([]string, error) {
	keys, err := s.ring.Keys()
	return keys, wrapKeychainError(err)
}

// SetCredential stores cred under provider.
func (s *KeyringStore) SetCredential(provider string, cred Credential) error {
	provider, err := normalize(provider)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cred.APIKey) == "" {
		return errors.New("missing API key")
	}
	cred.Provider = provider
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	return wrapKeychainError(s.ring.Set(keyring.Item{
		Key:   credentialPrefix + provider,
		Data:  data,
		Label: config.AppName + " " + provider,
	}))
}

// GetCredential loads the credential of provider.
func (s *KeyringStore) GetCredential(provider string) (Credential, error) {
	provider, err := normalize(provider)
	if err != nil {
		return Credential{}, err
	}
	item, err := s.ring.Get(credentialPrefix + provider)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Credential{}, fmt.Errorf("%s: %w", provider, ErrNotFound)
		}
		return Credential{}, wrapKeychainError(err)
	}
	var cred Credential
	if err := json.Unmarshal(item.Data, &cred); err != nil {
		return Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	return cred, nil
}

// DeleteCredential removes the credential of provider.
func (s *KeyringStore) DeleteCredential(provider string) error {
	provider, err := normalize(provider)
	if err != nil {
		return err
	}
	if err := s.ring.Remove(credentialPrefix + provider); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", provider, ErrNotFound)
		}
		return wrapKeychainError(err)
	}
	return nil
}

// SetDefaultProvider records which provider login last configured.
func (s *KeyringStore) SetDefaultProvider(provider string) error {
	provider, err := normalize(provider)
	if err != nil {
		return err
	}
	return wrapKeychainError(s.ring.Set(keyring.Item{Key: defaultProviderKey, Data: []byte(provider)}))
}

// DefaultProvider returns the recorded provider, or "" when none is set.
func (s *KeyringStore) DefaultProvider() (string, error) {
	item, err := s.ring.Get(defaultProviderKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", wrapKeychainError(err)
	}
	return string(item.Data), nil
}

// CredentialProviders returns the providers with a stored credential.
func CredentialProviders(keys []string) []string {
	var out []string
	for _, k := range keys {
		if strings.HasPrefix(k, credentialPrefix) {
			out = append(out, strings.TrimPrefix(k, credentialPrefix))
		}
	}
	return out
}
