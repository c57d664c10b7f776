package experiment

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/CTAG07/Darlingtonia/pkg/bayes"
)

// setupTestDB creates a new SQLite database and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// makeTestRun builds a small but complete run over three states.
func makeTestRun(t *testing.T, name string) *Run {
	chain := []int{0, 1, 2, 0}
	m, err := bayes.NewModel(len(chain), 3)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	post, err := m.Infer(chain)
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}
	return &Run{
		Name:      name,
		Seed:      42,
		Chain:     chain,
		Priors:    m.Priors(),
		Posterior: post,
	}
}

// saveTestRun persists a run and returns it with its assigned ID.
func saveTestRun(t *testing.T, s *Store, name string) *Run {
	run := makeTestRun(t, name)
	if err := s.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	return run
}
