package indexstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const manifestName = "manifest.json"

// manifestEntry records the shape of one published index pair.
type manifestEntry struct {
	Chunks    int `json:"chunks"`
	Dimension int `json:"dimension"`
}

// manifest is the catalog of fully-paired indices. It is the source of
// truth for Exists/ListIndexedIDs; the directory is only scanned to
// reconstruct a missing manifest.
type manifest struct {
	Documents map[string]manifestEntry `json:"documents"`
}

// loadManifest reads the manifest, returning nil (no error) when absent.
func loadManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Documents == nil {
		m.Documents = make(map[string]manifestEntry)
	}
	return &m, nil
}

// save writes the manifest atomically (temp file + rename).
func (m *manifest) save(dir string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp, err := writeTemp(dir, manifestName, data)
	if err != nil {
		return fmt.Errorf("write manifest temp: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, manifestName)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish manifest: %w", err)
	}
	return nil
}

// rebuildManifest reconstructs the catalog from the directory: a document
// counts only when both halves of its pair are present and decodable.
func rebuildManifest(dir string, logger *zap.Logger) (*manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan index dir: %w", err)
	}

	m := &manifest{Documents: make(map[string]manifestEntry)}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, sidecarExt) || name == manifestName {
			continue
		}
		id := strings.TrimSuffix(name, sidecarExt)

		indexData, err := os.ReadFile(filepath.Join(dir, id+indexExt))
		if err != nil {
			logger.Warn("Sidecar without index file, skipping", zap.String("document_id", id))
			continue
		}
		vectors, err := decodeVectors(indexData)
		if err != nil {
			logger.Warn("Undecodable index file, skipping",
				zap.String("document_id", id), zap.Error(err))
			continue
		}

		m.Documents[id] = manifestEntry{Chunks: len(vectors), Dimension: len(vectors[0])}
	}

	if len(m.Documents) > 0 {
		logger.Info("Rebuilt index manifest from directory scan",
			zap.Int("documents", len(m.Documents)))
	}
	return m, nil
}
