// Package docstore persists uploaded document files on disk, one content
// file plus a metadata sidecar per document.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

const metaExt = ".meta.json"

// supportedExtensions are the file types accepted for upload. Anything else
// is rejected before touching disk.
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
}

// metaRecord is the sidecar written next to each content file.
type metaRecord struct {
	DocumentID string            `json:"document_id"`
	Filename   string            `json:"filename"`
	Extension  string            `json:"extension"`
	Metadata   map[string]string `json:"metadata"`
}

// Store keeps document content files under dir as <id><ext> with a
// <id>.meta.json sidecar.
type Store struct {
	dir    string
	logger *zap.Logger

	mu sync.Mutex // serializes writes; reads go straight to disk
}

// New opens (or creates) a document store rooted at dir.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save stores an uploaded file under a freshly generated document ID and
// returns its record. The extension is taken from the original filename and
// must be one of the supported types.
func (s *Store) Save(
	ctx context.Context, filename string, data []byte, metadata map[string]string,
) (domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return domain.Document{}, fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedFileType)
	}
	if err := ctx.Err(); err != nil {
		return domain.Document{}, fmt.Errorf("save %s: %w", filename, err)
	}

	id := uuid.NewString()

	meta := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[domain.MetadataFilenameKey] = filepath.Base(filename)
	meta[domain.MetadataFileTypeKey] = ext

	record := metaRecord{
		DocumentID: id,
		Filename:   filepath.Base(filename),
		Extension:  ext,
		Metadata:   meta,
	}
	metaData, err := json.Marshal(record)
	if err != nil {
		return domain.Document{}, fmt.Errorf("marshal metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contentPath := filepath.Join(s.dir, id+ext)
	if err := os.WriteFile(contentPath, data, 0o644); err != nil {
		return domain.Document{}, fmt.Errorf("write document: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, id+metaExt), metaData, 0o644); err != nil {
		_ = os.Remove(contentPath)
		return domain.Document{}, fmt.Errorf("write metadata: %w", err)
	}

	s.logger.Info("Document saved",
		zap.String("document_id", id),
		zap.String("filename", record.Filename),
		zap.Int("size", len(data)),
	)

	return domain.Document{ID: id, Content: string(data), Metadata: meta}, nil
}

// Path returns the on-disk location of the document's content file.
func (s *Store) Path(_ context.Context, documentID string) (string, error) {
	record, err := s.readMeta(documentID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, documentID+record.Extension)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("content file for %s: %w", documentID, domain.ErrDocumentNotFound)
		}
		return "", fmt.Errorf("stat content file: %w", err)
	}
	return path, nil
}

// Get returns a document's metadata record without reading its content.
func (s *Store) Get(_ context.Context, documentID string) (domain.Document, error) {
	record, err := s.readMeta(documentID)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{ID: documentID, Metadata: record.Metadata}, nil
}

// List enumerates all stored documents, sorted by ID.
func (s *Store) List(_ context.Context) ([]domain.DocumentInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan documents dir: %w", err)
	}

	infos := make([]domain.DocumentInfo, 0, len(entries)/2)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, metaExt) {
			continue
		}
		id := strings.TrimSuffix(name, metaExt)

		record, err := s.readMeta(id)
		if err != nil {
			s.logger.Warn("Unreadable document metadata, skipping",
				zap.String("document_id", id), zap.Error(err))
			continue
		}

		var size int64
		if fi, err := os.Stat(filepath.Join(s.dir, id+record.Extension)); err == nil {
			size = fi.Size()
		}

		infos = append(infos, domain.DocumentInfo{
			ID:       id,
			Filename: record.Filename,
			Size:     size,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func (s *Store) readMeta(documentID string) (metaRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, documentID+metaExt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return metaRecord{}, fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentNotFound)
		}
		return metaRecord{}, fmt.Errorf("read metadata: %w", err)
	}

	var record metaRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return metaRecord{}, fmt.Errorf("parse metadata for %s: %w", documentID, err)
	}
	return record, nil
}
