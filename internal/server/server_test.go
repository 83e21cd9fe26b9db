package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"eduscan/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, db
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, string(body)
}

func TestIndexEmpty(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := get(t, srv.Handler(), "/")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(body, "No items yet") {
		t.Error("expected empty-state message")
	}
}

func TestIndexListsItems(t *testing.T) {
	srv, db := newTestServer(t)
	db.InsertItem(store.Item{
		PublishedUTC: "2026-08-20 10:30:00",
		Source:       "example.com",
		Title:        "AI Tutors Arrive",
		URL:          "https://example.com/ai-tutors",
		Summary:      "Schools pilot AI tutoring.",
		Score:        4,
		Tags:         []string{"K-12", "src:RSS"},
		ID:           "abc123",
	})

	code, body := get(t, srv.Handler(), "/")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, want := range []string{"AI Tutors Arrive", "example.com", "K-12"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestReportRendersMarkdown(t *testing.T) {
	srv, db := newTestServer(t)
	db.InsertRun(6, 120, 9, "# Run Report\n\n- appended 9 rows")

	code, body := get(t, srv.Handler(), "/report")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(body, "<h1") || !strings.Contains(body, "Run Report") {
		t.Error("expected rendered markdown heading")
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	code, _ := get(t, srv.Handler(), "/nope")
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}
