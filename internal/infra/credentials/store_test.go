package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	key  string
	err  error
	exec struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return stubRow{key: s.key, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	key string
	err error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) < 2 {
		return errors.New("expected key and properties dests")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.key
	return nil
}

func TestAPIKeyTrimsStoredValue(t *testing.T) {
	store := NewStore(&stubExecutor{key: " sk-test "})
	key, err := store.APIKey(context.Background(), "openai")
	if err != nil {
		t.Fatalf("APIKey error: %v", err)
	}
	if key != "sk-test" {
		t.Fatalf("expected sk-test, got %q", key)
	}
}

func TestAPIKeyNoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	key, err := store.APIKey(context.Background(), "gemini")
	if err != nil {
		t.Fatalf("APIKey error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestSetAPIKey(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetAPIKey(context.Background(), "gemini", "secret"); err != nil {
		t.Fatalf("SetAPIKey error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != "gemini" {
		t.Fatalf("expected provider argument, got %T %v", exec.exec.args[0], exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
}

func TestSetAPIKeyEmptyKey(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetAPIKey(context.Background(), "openai", " "); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestSetAPIKeyEmptyProvider(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetAPIKey(context.Background(), "", "secret"); err == nil {
		t.Fatal("expected error for empty provider")
	}
}
