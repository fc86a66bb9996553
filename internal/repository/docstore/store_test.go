package docstore

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.Save(ctx, "notes.txt", []byte("solar panels convert sunlight"), nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("expected generated document id")
	}
	if doc.Filename() != "notes.txt" {
		t.Errorf("filename metadata = %q, want notes.txt", doc.Filename())
	}
	if doc.Metadata[domain.MetadataFileTypeKey] != ".txt" {
		t.Errorf("file type metadata = %q, want .txt", doc.Metadata[domain.MetadataFileTypeKey])
	}

	got, err := s.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename() != "notes.txt" {
		t.Errorf("Get filename = %q, want notes.txt", got.Filename())
	}
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"binary.exe", "archive.zip", "noext"} {
		_, err := s.Save(context.Background(), name, []byte("data"), nil)
		if !errors.Is(err, domain.ErrUnsupportedFileType) {
			t.Errorf("Save(%q): expected ErrUnsupportedFileType, got %v", name, err)
		}
	}
}

func TestSaveStripsDirectoryFromFilename(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.Save(context.Background(), "../../etc/passwd.txt", []byte("x"), nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if doc.Filename() != "passwd.txt" {
		t.Errorf("filename = %q, want passwd.txt", doc.Filename())
	}
}

func TestPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.Save(ctx, "readme.md", []byte("# title"), nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	path, err := s.Path(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if path == "" {
		t.Fatal("expected non-empty path")
	}

	_, err = s.Path(ctx, "missing-id")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("Path(missing): expected ErrDocumentNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List on empty store: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected empty listing, got %d entries", len(infos))
	}

	if _, err := s.Save(ctx, "a.txt", []byte("aaaa"), nil); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if _, err := s.Save(ctx, "b.csv", []byte("x,y"), nil); err != nil {
		t.Fatalf("Save b: %v", err)
	}

	infos, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(infos))
	}
	for _, info := range infos {
		if info.ID == "" || info.Filename == "" || info.Size == 0 {
			t.Errorf("incomplete listing entry: %+v", info)
		}
	}
}
