package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vyrodovalexey/item-catalog/internal/db"
	"github.com/vyrodovalexey/item-catalog/internal/model"
)

func TestSQLStore_NullImageRoundTrip(t *testing.T) {
	s := NewSQLStore(db.NewTestDB(t))
	ctx := context.Background()

	saved, err := s.Save(ctx, model.Item{Name: "No image", Price: 10})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	var image *string
	err = s.db.QueryRowContext(ctx, `SELECT image FROM items WHERE id = ?`, saved.ID).Scan(&image)
	if err != nil {
		t.Fatalf("reading image column: %v", err)
	}
	if image != nil {
		t.Errorf("expected NULL image column, got %q", *image)
	}
}

func TestSQLStore_Ping(t *testing.T) {
	s := NewSQLStore(db.NewTestDB(t))

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestSQLStore_ClosedDatabaseIsUnavailable(t *testing.T) {
	s := NewSQLStore(db.NewTestDB(t))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	ctx := context.Background()

	if _, err := s.FindAll(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("FindAll error = %v, want ErrUnavailable", err)
	}
	if _, err := s.FindByID(ctx, 1); !errors.Is(err, ErrUnavailable) {
		t.Errorf("FindByID error = %v, want ErrUnavailable", err)
	}
	if _, err := s.Save(ctx, model.Item{Name: "x", Price: 1}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Save error = %v, want ErrUnavailable", err)
	}
	if err := s.DeleteByID(ctx, 1); !errors.Is(err, ErrUnavailable) {
		t.Errorf("DeleteByID error = %v, want ErrUnavailable", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ping error = %v, want ErrUnavailable", err)
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mou", "%mou%"},
		{"", "%%"},
		{"50%", "%50!%%"},
		{"a_b", "%a!_b%"},
		{"wow!", "%wow!!%"},
	}

	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		dsn     string
		wantSQL bool
		wantErr error
	}{
		{name: "memory", driver: DriverMemory, wantSQL: false},
		{name: "empty driver defaults to memory", driver: "", wantSQL: false},
		{
			name:    "sqlite file",
			driver:  db.DriverSQLite,
			dsn:     filepath.Join(t.TempDir(), "items.sqlite3"),
			wantSQL: true,
		},
		{name: "unknown", driver: "mongo", wantErr: ErrUnknownDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.driver, tt.dsn)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}

			_, isSQL := s.(*SQLStore)
			if isSQL != tt.wantSQL {
				t.Errorf("Open() returned %T, want SQL store = %v", s, tt.wantSQL)
			}
			if c, ok := s.(io.Closer); ok {
				c.Close()
			}
		})
	}
}

func TestOpen_SQLiteSchemaReady(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.sqlite3")
	s, err := Open(db.DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.(io.Closer).Close()

	saved, err := s.Save(context.Background(), model.Item{Name: "Persisted", Price: 3})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == 0 {
		t.Error("expected assigned id")
	}
}

func TestOpen_SQLiteInMemorySharedAcrossRequests(t *testing.T) {
	s, err := Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.(io.Closer).Close()
	ctx := context.Background()

	if _, err := s.Save(ctx, model.Item{Name: "Shared", Price: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := s.FindAll(ctx)
			if err != nil {
				errs <- err
				return
			}
			if len(items) != 1 {
				errs <- fmt.Errorf("FindAll returned %d items, want 1", len(items))
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
