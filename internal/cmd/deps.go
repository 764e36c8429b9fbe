package cmd

import (
	"context"
	"os"
	"time"

	"github.com/atotto/clipboard"

	"github.com/salmonumbrella/brainstorm-cli/internal/llm"
	"github.com/salmonumbrella/brainstorm-cli/internal/secrets"
	"github.com/salmonumbrella/brainstorm-cli/internal/session"
)

// sessionStore is the part of session.Store the commands use.
type sessionStore interface {
	Save(ctx context.Context, s *session.Session) error
	Get(ctx context.Context, id string) (*session.Session, error)
	List(ctx context.Context) ([]*session.Session, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context, id string) (*session.Session, error)
	Close() error
}

var (
	openSecretsStore = secrets.OpenDefault
	newCompleterFunc = func(cfg llm.Config, opts ...llm.ClientOption) (llm.Completer, error) {
		return llm.NewClient(cfg, opts...)
	}
	openSessionStore = func(path string) (sessionStore, error) {
		return session.Open(path)
	}
	envGet         = os.Getenv
	nowFunc        = time.Now
	writeClipboard = clipboard.WriteAll
)
