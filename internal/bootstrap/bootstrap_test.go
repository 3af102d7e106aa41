package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"bossai/internal/sqlinline"
)

type stubSQL struct {
	exec     func(query string, args ...any) (pgconn.CommandTag, error)
	queryRow func(query string, args ...any) pgx.Row
	query    func(query string, args ...any) (pgx.Rows, error)
}

func (s stubSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if s.exec == nil {
		return pgconn.CommandTag{}, nil
	}
	return s.exec(query, args...)
}

func (s stubSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	if s.queryRow == nil {
		return simpleRow{}
	}
	return s.queryRow(query, args...)
}

func (s stubSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.query == nil {
		return &fakeRows{}, nil
	}
	return s.query(query, args...)
}

// simpleRow scans through the provided function; nil means no row.
type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func idRow(id string) simpleRow {
	return simpleRow{scan: func(dest ...any) error {
		*(dest[0].(*string)) = id
		return nil
	}}
}

type rowsBase struct{}

func (rowsBase) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (rowsBase) Conn() *pgx.Conn                              { return nil }
func (rowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (rowsBase) Values() ([]any, error)                       { return nil, errors.New("not supported") }
func (rowsBase) RawValues() [][]byte                          { return nil }

type fakeRows struct {
	rowsBase
	count int
	idx   int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= r.count {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return errors.New("not supported") }

func TestEnsureSchemaAppliesStatementsInOrder(t *testing.T) {
	var applied []string
	sql := stubSQL{exec: func(query string, args ...any) (pgconn.CommandTag, error) {
		applied = append(applied, query)
		return pgconn.CommandTag{}, nil
	}}

	if err := EnsureSchema(context.Background(), sql); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if len(applied) != len(sqlinline.Schema) {
		t.Fatalf("applied %d statements, want %d", len(applied), len(sqlinline.Schema))
	}
	for i, stmt := range sqlinline.Schema {
		if applied[i] != stmt {
			t.Fatalf("statement %d out of order", i)
		}
	}
}

func TestEnsureSchemaReportsFailingStatement(t *testing.T) {
	calls := 0
	sql := stubSQL{exec: func(query string, args ...any) (pgconn.CommandTag, error) {
		calls++
		if calls == 3 {
			return pgconn.CommandTag{}, errors.New("syntax error")
		}
		return pgconn.CommandTag{}, nil
	}}

	err := EnsureSchema(context.Background(), sql)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "--sql ") {
		t.Fatalf("error does not name the statement marker: %v", err)
	}
	if calls != 3 {
		t.Fatalf("exec calls = %d, want 3 (stop at first failure)", calls)
	}
}

func TestSeedDemoCreatesFixtures(t *testing.T) {
	var userArgs [][]any
	var catalogArgs [][]any
	var agentArgs []any
	sql := stubSQL{
		queryRow: func(query string, args ...any) pgx.Row {
			switch query {
			case sqlinline.QSeedUser:
				userArgs = append(userArgs, args)
				return idRow("user-id")
			case sqlinline.QSeedConfigPrimary:
				catalogArgs = append(catalogArgs, args)
				return idRow("config-id")
			case sqlinline.QUpsertAgent:
				agentArgs = args
				return idRow("agent-id")
			}
			t.Fatalf("unexpected query: %s", query)
			return nil
		},
		query: func(query string, args ...any) (pgx.Rows, error) {
			if query != sqlinline.QSelectAgents {
				t.Fatalf("unexpected query: %s", query)
			}
			return &fakeRows{}, nil
		},
	}

	if err := SeedDemo(context.Background(), sql, zerolog.Nop()); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}

	if len(userArgs) != 2 {
		t.Fatalf("seeded %d users, want 2", len(userArgs))
	}
	admin := userArgs[0]
	if admin[0] != "admin" || admin[5] != "ADMIN" {
		t.Fatalf("admin args = %v", admin)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin[2].(string)), []byte("admin123")); err != nil {
		t.Fatalf("admin hash does not verify: %v", err)
	}
	if userArgs[1][0] != "user" || userArgs[1][5] != "USER" {
		t.Fatalf("user args = %v", userArgs[1])
	}

	if len(catalogArgs) != len(demoCatalog) {
		t.Fatalf("seeded %d catalog rows, want %d", len(catalogArgs), len(demoCatalog))
	}
	categories := map[string]bool{}
	for _, args := range catalogArgs {
		categories[args[0].(string)] = true
	}
	for _, want := range []string{"tone", "industry", "language", "target-audience", "content-type"} {
		if !categories[want] {
			t.Fatalf("no catalog rows for category %s", want)
		}
	}

	if agentArgs == nil {
		t.Fatal("demo agent was not seeded")
	}
	if agentArgs[0] != "social-post" || agentArgs[6] != false {
		t.Fatalf("agent args = %v (must be inactive)", agentArgs)
	}
}

func TestSeedDemoLeavesExistingDataAlone(t *testing.T) {
	agentUpserts := 0
	sql := stubSQL{
		queryRow: func(query string, args ...any) pgx.Row {
			if query == sqlinline.QUpsertAgent {
				agentUpserts++
			}
			// Conflict-ignore statements return no row on reruns.
			return simpleRow{}
		},
		query: func(query string, args ...any) (pgx.Rows, error) {
			return &fakeRows{count: 1}, nil
		},
	}

	if err := SeedDemo(context.Background(), sql, zerolog.Nop()); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	if agentUpserts != 0 {
		t.Fatalf("agent upserts = %d, want 0 when agents already exist", agentUpserts)
	}
}
