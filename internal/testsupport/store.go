package testsupport

import (
	"context"
	"testing"

	"lavra/internal/casestore"
	"lavra/internal/config"
)

// MustOpenStore opens a casestore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *casestore.Store {
	t.Helper()

	store, err := casestore.Open(cfg)
	if err != nil {
		t.Fatalf("casestore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewCase creates a case for tests using the provided store.
func NewCase(t testing.TB, store *casestore.Store, title string) *casestore.Case {
	t.Helper()

	c, err := store.NewCase(context.Background(), title)
	if err != nil {
		t.Fatalf("store.NewCase: %v", err)
	}
	return c
}
