package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aosc-dev/p-vector/internal/errs"
	"github.com/aosc-dev/p-vector/internal/repo"
)

func TestClassifyConnectionExceptionIsTransient(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "08006", Message: "connection failure"}
	if !errors.Is(classify(pgErr), errs.ErrDBTransient) {
		t.Errorf("expected connection exception to classify as transient")
	}
}

func TestClassifySerializationFailureIsTransient(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	if !errors.Is(classify(pgErr), errs.ErrDBTransient) {
		t.Errorf("expected serialization failure to classify as transient")
	}
}

func TestClassifyConstraintViolationIsFatal(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	if !errors.Is(classify(pgErr), errs.ErrDBFatal) {
		t.Errorf("expected unique violation to classify as fatal")
	}
}

func TestClassifyNilIsNil(t *testing.T) {
	if classify(nil) != nil {
		t.Errorf("classify(nil) should be nil")
	}
}

func TestRetryBackoffStopsOnNonTransientError(t *testing.T) {
	calls := 0
	err := retryBackoff(context.Background(), func() error {
		calls++
		return fmt.Errorf("boom: %w", errs.ErrDBFatal)
	})
	if !errors.Is(err, errs.ErrDBFatal) {
		t.Fatalf("expected fatal error to propagate, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt for a fatal error, got %d", calls)
	}
}

func TestRetryBackoffExhaustsAttemptsOnTransientError(t *testing.T) {
	calls := 0
	err := retryBackoff(context.Background(), func() error {
		calls++
		return fmt.Errorf("boom: %w", errs.ErrDBTransient)
	})
	if !errors.Is(err, errs.ErrDBTransient) {
		t.Fatalf("expected transient error to propagate after exhausting retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

// testStore opens a Store against P_VECTOR_TEST_DATABASE_URL, skipping
// the test when it isn't set. Every test below that touches an actual
// connection is gated this way rather than run against an in-process
// fake, since pgx's wire protocol isn't something worth stubbing out.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("P_VECTOR_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("P_VECTOR_TEST_DATABASE_URL not set, skipping store integration test")
	}
	s, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestUpsertRepoRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := repo.Repo{Name: "amd64/stable", Path: "stable/main", Testing: 0, Branch: "stable", Component: "main", Architecture: "amd64"}
	id, err := s.UpsertRepo(ctx, r)
	if err != nil {
		t.Fatalf("UpsertRepo: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected nonzero repo id")
	}

	got, err := s.RepoByID(ctx, id)
	if err != nil {
		t.Fatalf("RepoByID: %v", err)
	}
	if got.Name != r.Name || got.Branch != r.Branch {
		t.Errorf("RepoByID returned %+v, want name/branch matching %+v", got, r)
	}
}
