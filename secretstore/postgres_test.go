package secretstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.value
	return nil
}

// fakeQuerier interprets the handful of statements Postgres issues.
type fakeQuerier struct {
	mu      sync.Mutex
	rows    map[[2]string]string
	execSQL []string
	err     error
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{rows: make(map[[2]string]string)}
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.execSQL = append(q.execSQL, sql)
	if q.err != nil {
		return pgconn.CommandTag{}, q.err
	}

	switch sql {
	case upsertSQL:
		q.rows[[2]string{args[0].(string), args[1].(string)}] = args[2].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case deleteSQL:
		for _, slot := range args[1].([]string) {
			delete(q.rows, [2]string{args[0].(string), slot})
		}
		return pgconn.NewCommandTag("DELETE 1"), nil
	default:
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	}
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return fakeRow{err: q.err}
	}
	value, ok := q.rows[[2]string{args[0].(string), args[1].(string)}]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: value}
}

func TestPostgres(t *testing.T) {
	exerciseStore(t, NewPostgres(newFakeQuerier(), "test"))
}

func TestPostgres_NamespacesAreIsolated(t *testing.T) {
	db := newFakeQuerier()
	alice := NewPostgres(db, "alice")
	bob := NewPostgres(db, "")
	ctx := context.Background()

	if err := alice.Set(ctx, AccessToken, "alice-token"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok, _ := bob.Get(ctx, AccessToken); ok {
		t.Error("namespaces should not share slots")
	}
	if bob.namespace != "default" {
		t.Errorf("expected default namespace, got %q", bob.namespace)
	}
}

func TestPostgres_EnsureSchema(t *testing.T) {
	db := newFakeQuerier()
	store := NewPostgres(db, "")

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if len(db.execSQL) != 1 || db.execSQL[0] != schemaSQL {
		t.Errorf("expected schema statement, got %v", db.execSQL)
	}
}

func TestPostgres_StorageFailure(t *testing.T) {
	db := newFakeQuerier()
	db.err = errors.New("connection refused")
	store := NewPostgres(db, "test")
	ctx := context.Background()

	if err := store.EnsureSchema(ctx); !errors.Is(err, ErrStorage) {
		t.Errorf("EnsureSchema: expected ErrStorage, got %v", err)
	}
	if err := store.Set(ctx, AccessToken, "a"); !errors.Is(err, ErrStorage) {
		t.Errorf("Set: expected ErrStorage, got %v", err)
	}
	if _, _, err := store.Get(ctx, AccessToken); !errors.Is(err, ErrStorage) {
		t.Errorf("Get: expected ErrStorage, got %v", err)
	}
	if err := store.Clear(ctx, AccessToken); !errors.Is(err, ErrStorage) {
		t.Errorf("Clear: expected ErrStorage, got %v", err)
	}
}
