package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/salmonumbrella/brainstorm-cli/internal/llm"
	"github.com/salmonumbrella/brainstorm-cli/internal/secrets"
)

// fakeCompleter replays canned replies; the last one repeats.
type fakeCompleter struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// lastPrompt is the final message of the newest request.
func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ""
	}
	msgs := f.requests[len(f.requests)-1].Messages
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

// memorySecrets is an in-memory secrets.Store.
type memorySecrets struct {
	creds           map[string]secrets.Credential
	defaultProvider string
}

func newMemorySecrets() *memorySecrets {
	return &memorySecrets{creds: map[string]secrets.Credential{}}
}

func (m *memorySecrets) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.creds)+1)
	for p := range m.creds {
		keys = append(keys, "credential:"+p)
	}
	if m.defaultProvider != "" {
		keys = append(keys, "default_provider")
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memorySecrets) SetCredential(provider string, cred secrets.Credential) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return fmt.Errorf("missing provider")
	}
	cred.Provider = provider
	m.creds[provider] = cred
	return nil
}

func (m *memorySecrets) GetCredential(provider string) (secrets.Credential, error) {
	cred, ok := m.creds[strings.ToLower(provider)]
	if !ok {
		return secrets.Credential{}, fmt.Errorf("%s: %w", provider, secrets.ErrNotFound)
	}
	return cred, nil
}

func (m *memorySecrets) DeleteCredential(provider string) error {
	provider = strings.ToLower(provider)
	if _, ok := m.creds[provider]; !ok {
		return fmt.Errorf("%s: %w", provider, secrets.ErrNotFound)
	}
	delete(m.creds, provider)
	return nil
}

func (m *memorySecrets) SetDefaultProvider(provider string) error {
	m.defaultProvider = strings.ToLower(provider)
	return nil
}

func (m *memorySecrets) DefaultProvider() (string, error) {
	return m.defaultProvider, nil
}
