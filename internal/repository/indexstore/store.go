// Package indexstore owns the on-disk pairing of {flat vector index, chunk
// sidecar} per document, published atomically and cataloged in a manifest.
package indexstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

const (
	indexExt   = ".vec"
	sidecarExt = ".json"
)

// sidecar is the JSON metadata record written next to each index file.
// Vector row i corresponds to Chunks[i] (embedding_index order).
type sidecar struct {
	DocumentID string            `json:"document_id"`
	Chunks     []domain.Chunk    `json:"chunks"`
	Metadata   map[string]string `json:"metadata"`
}

// Store persists one flat L2 index per document in dir. The manifest, not a
// directory scan, is the catalog of fully-paired indices; builds for the
// same document are serialized, reads need no coordination.
type Store struct {
	dir    string
	logger *zap.Logger

	mu       sync.RWMutex // guards manifest and the lock table
	manifest *manifest
	locks    map[string]*sync.Mutex
}

// New opens (or creates) an index store rooted at dir. A missing manifest
// is reconstructed from the directory contents once, at open time.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	s := &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}

	m, err := loadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	if m == nil {
		m, err = rebuildManifest(dir, logger)
		if err != nil {
			return nil, fmt.Errorf("rebuild manifest: %w", err)
		}
		if len(m.Documents) > 0 {
			if err := m.save(dir); err != nil {
				return nil, fmt.Errorf("save rebuilt manifest: %w", err)
			}
		}
	}
	s.manifest = m

	return s, nil
}

// docLock returns the per-document build mutex, creating it on first use.
func (s *Store) docLock(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[documentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[documentID] = l
	}
	return l
}

// Build creates a flat index over vectors (one per chunk, chunk order) and
// publishes index + sidecar as a matched pair, replacing any prior pair for
// the document. The publish is all-or-nothing: both halves are written to
// temp files and renamed into place, sidecar last; the manifest entry is
// only updated after both renames succeed, so a torn write leaves the
// document unindexed rather than half-paired.
func (s *Store) Build(
	ctx context.Context,
	documentID string,
	chunks []domain.Chunk,
	vectors [][]float32,
	metadata map[string]string,
) error {
	if documentID == "" {
		return fmt.Errorf("empty document id: %w", domain.ErrDocumentNotFound)
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf(
			"chunk/vector count mismatch: %d chunks, %d vectors: %w",
			len(chunks), len(vectors), domain.ErrVectorDimMismatch,
		)
	}

	indexData, err := encodeVectors(vectors)
	if err != nil {
		return err
	}

	sc := sidecar{DocumentID: documentID, Chunks: chunks, Metadata: metadata}
	sidecarData, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}

	lock := s.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("build %s: %w", documentID, err)
	}

	indexPath := filepath.Join(s.dir, documentID+indexExt)
	sidecarPath := filepath.Join(s.dir, documentID+sidecarExt)

	indexTmp, err := writeTemp(s.dir, documentID+indexExt, indexData)
	if err != nil {
		return fmt.Errorf("write index temp: %w", err)
	}
	sidecarTmp, err := writeTemp(s.dir, documentID+sidecarExt, sidecarData)
	if err != nil {
		_ = os.Remove(indexTmp)
		return fmt.Errorf("write sidecar temp: %w", err)
	}

	if err := os.Rename(indexTmp, indexPath); err != nil {
		_ = os.Remove(indexTmp)
		_ = os.Remove(sidecarTmp)
		return fmt.Errorf("publish index: %w", err)
	}
	if err := os.Rename(sidecarTmp, sidecarPath); err != nil {
		// Half-published pair: remove the index so no torn pair survives.
		_ = os.Remove(indexPath)
		_ = os.Remove(sidecarTmp)
		return fmt.Errorf("publish sidecar: %w", err)
	}

	s.mu.Lock()
	s.manifest.Documents[documentID] = manifestEntry{
		Chunks:    len(chunks),
		Dimension: len(vectors[0]),
	}
	saveErr := s.manifest.save(s.dir)
	s.mu.Unlock()
	if saveErr != nil {
		return fmt.Errorf("update manifest: %w", saveErr)
	}

	s.logger.Info("Vector index built",
		zap.String("document_id", documentID),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimension", len(vectors[0])),
	)
	return nil
}

// Search returns the topK nearest chunks by ascending Euclidean distance.
// A document without a fully-paired index yields an empty result, not an error.
func (s *Store) Search(
	ctx context.Context, documentID string, queryVec []float32, topK int,
) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	_, indexed := s.manifest.Documents[documentID]
	s.mu.RUnlock()
	if !indexed {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search %s: %w", documentID, err)
	}

	vectors, sc, err := s.loadPair(documentID)
	if err != nil {
		return nil, err
	}

	if len(queryVec) != len(vectors[0]) {
		return nil, fmt.Errorf(
			"query dimension %d, index dimension %d: %w",
			len(queryVec), len(vectors[0]), domain.ErrVectorDimMismatch,
		)
	}

	type scored struct {
		idx   int
		score float32
	}
	hits := make([]scored, len(vectors))
	for i, vec := range vectors {
		hits[i] = scored{idx: i, score: l2Distance(queryVec, vec)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score < hits[j].score })

	if topK > len(hits) {
		topK = len(hits)
	}
	results := make([]domain.RetrievedChunk, 0, topK)
	for _, h := range hits[:topK] {
		chunk := sc.Chunks[h.idx]
		results = append(results, domain.RetrievedChunk{
			DocumentID: documentID,
			ChunkID:    chunk.ChunkID,
			Text:       chunk.Text,
			Score:      h.score,
			Metadata:   sc.Metadata,
		})
	}
	return results, nil
}

// Exists reports whether both halves of the document's pair are present.
func (s *Store) Exists(_ context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.manifest.Documents[documentID]
	return ok, nil
}

// ListIndexedIDs enumerates all fully-paired document IDs, sorted.
func (s *Store) ListIndexedIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.manifest.Documents))
	for id := range s.manifest.Documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// loadPair reads and validates both halves of a document's pair.
func (s *Store) loadPair(documentID string) ([][]float32, *sidecar, error) {
	indexData, err := os.ReadFile(filepath.Join(s.dir, documentID+indexExt))
	if err != nil {
		return nil, nil, fmt.Errorf("read index %s: %w", documentID, err)
	}
	vectors, err := decodeVectors(indexData)
	if err != nil {
		return nil, nil, fmt.Errorf("decode index %s: %w", documentID, err)
	}

	sidecarData, err := os.ReadFile(filepath.Join(s.dir, documentID+sidecarExt))
	if err != nil {
		return nil, nil, fmt.Errorf("read sidecar %s: %w", documentID, err)
	}
	var sc sidecar
	if err := json.Unmarshal(sidecarData, &sc); err != nil {
		return nil, nil, fmt.Errorf("decode sidecar %s: %w: %v", documentID, domain.ErrIndexCorrupted, err)
	}

	if len(sc.Chunks) != len(vectors) {
		return nil, nil, fmt.Errorf(
			"pair mismatch for %s: %d vectors, %d chunks: %w",
			documentID, len(vectors), len(sc.Chunks), domain.ErrIndexCorrupted,
		)
	}
	return vectors, &sc, nil
}

// writeTemp writes data to a temp file in dir and syncs it to disk.
func writeTemp(dir, base string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}
