package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"hypotest/domain/core"
	"hypotest/internal"
	apperrors "hypotest/internal/errors"
	"hypotest/ports"
)

const indexFile = "cache_index.json"

// entry is one record in the on-disk index. Blob filenames are derived
// from the id, so the index only tracks which blobs exist.
type entry struct {
	ID        core.CacheID   `json:"id"`
	Test      string         `json:"test_type"`
	CreatedAt core.Timestamp `json:"created_at"`
	ExpiresAt core.Timestamp `json:"expires_at"`
	HasRaw    bool           `json:"has_raw_data"`
}

type index struct {
	Entries     map[core.CacheID]entry `json:"entries"`
	LastCleanup core.Timestamp         `json:"last_cleanup"`
}

// Manager is a file-backed ResultCache. A JSON index is the single source
// of truth for entry metadata and is rewritten after every mutation;
// payload and raw-sample blobs live beside it as one file per id. All
// mutation goes through a single mutex.
type Manager struct {
	dir string
	ttl time.Duration
	log *internal.Logger

	mu  sync.Mutex
	idx index
}

// New opens or creates a cache rooted at dir. Expired entries left behind
// by previous runs are swept before the cache is handed out.
func New(dir string, ttl time.Duration, logger *internal.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.StorageError(fmt.Sprintf("failed to create cache directory %s", dir), err)
	}

	m := &Manager{dir: dir, ttl: ttl, log: logger}
	if err := m.loadIndex(); err != nil {
		return nil, err
	}

	if purged, err := m.Sweep(context.Background()); err != nil {
		logger.Warn("initial cache sweep failed: %v", err)
	} else if purged > 0 {
		logger.Info("cache sweep purged %d expired entries from %s", purged, dir)
	}
	return m, nil
}

func (m *Manager) loadIndex() error {
	m.idx = index{Entries: make(map[core.CacheID]entry)}

	data, err := os.ReadFile(filepath.Join(m.dir, indexFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.StorageError("failed to read cache index", err)
	}
	if err := json.Unmarshal(data, &m.idx); err != nil {
		// A corrupt index orphans its blobs; starting fresh is the only
		// safe recovery since blob contents cannot be trusted without it.
		m.log.Warn("cache index unreadable, starting empty: %v", err)
		m.idx = index{Entries: make(map[core.CacheID]entry)}
		return nil
	}
	if m.idx.Entries == nil {
		m.idx.Entries = make(map[core.CacheID]entry)
	}
	return nil
}

// saveIndex persists the full index. Callers must hold m.mu.
func (m *Manager) saveIndex() error {
	data, err := json.MarshalIndent(m.idx, "", "  ")
	if err != nil {
		return apperrors.StorageError("failed to encode cache index", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, indexFile), data, 0o644); err != nil {
		return apperrors.StorageError("failed to write cache index", err)
	}
	return nil
}

func (m *Manager) payloadPath(id core.CacheID) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s_payload.json", id))
}

func (m *Manager) rawPath(id core.CacheID) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s_raw.json", id))
}

// Put stores the serialized outcome and optional raw samples under the
// caller-minted id.
func (m *Manager) Put(ctx context.Context, id core.CacheID, test string, payload []byte, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		return apperrors.ValidationError("cache id must not be empty")
	}
	if err := os.WriteFile(m.payloadPath(id), payload, 0o644); err != nil {
		return apperrors.StorageError(fmt.Sprintf("failed to write payload blob for %s", id), err)
	}
	if len(raw) > 0 {
		if err := os.WriteFile(m.rawPath(id), raw, 0o644); err != nil {
			os.Remove(m.payloadPath(id))
			return apperrors.StorageError(fmt.Sprintf("failed to write raw blob for %s", id), err)
		}
	}

	now := core.Now()
	m.idx.Entries[id] = entry{
		ID:        id,
		Test:      test,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		HasRaw:    len(raw) > 0,
	}
	if err := m.saveIndex(); err != nil {
		m.removeBlobs(id)
		delete(m.idx.Entries, id)
		return err
	}

	m.log.Debug("cached %s result as %s", test, id)
	return nil
}

// Get returns the stored payload, plus the raw samples when requested.
// Missing, expired, or blob-less entries all surface as core.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id core.CacheID, includeRaw bool) ([]byte, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.idx.Entries[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", core.ErrEntryNotFound, id)
	}
	if core.Now().After(e.ExpiresAt) {
		return nil, nil, fmt.Errorf("%w: %s", core.ErrEntryExpired, id)
	}

	payload, err := os.ReadFile(m.payloadPath(id))
	if os.IsNotExist(err) {
		// index entry pointing at a vanished blob is as good as absent
		delete(m.idx.Entries, id)
		if saveErr := m.saveIndex(); saveErr != nil {
			m.log.Warn("failed to drop dangling cache entry %s: %v", id, saveErr)
		}
		return nil, nil, fmt.Errorf("%w: %s", core.ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, nil, apperrors.StorageError(fmt.Sprintf("failed to read payload blob for %s", id), err)
	}

	var raw []byte
	if includeRaw && e.HasRaw {
		raw, err = os.ReadFile(m.rawPath(id))
		if os.IsNotExist(err) {
			return payload, nil, fmt.Errorf("%w: raw samples for %s", core.ErrEntryNotFound, id)
		}
		if err != nil {
			return nil, nil, apperrors.StorageError(fmt.Sprintf("failed to read raw blob for %s", id), err)
		}
	}
	return payload, raw, nil
}

// Delete removes the entry and its blobs. Deleting an absent id is a no-op.
func (m *Manager) Delete(ctx context.Context, id core.CacheID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.idx.Entries[id]; !ok {
		return nil
	}
	m.removeBlobs(id)
	delete(m.idx.Entries, id)
	return m.saveIndex()
}

// List returns summaries of live entries, newest first. Expired entries
// are excluded but left on disk for the next sweep.
func (m *Manager) List(ctx context.Context) ([]ports.CacheEntrySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := core.Now()
	out := make([]ports.CacheEntrySummary, 0, len(m.idx.Entries))
	for _, e := range m.idx.Entries {
		if now.After(e.ExpiresAt) {
			continue
		}
		out = append(out, ports.CacheEntrySummary{
			ID:        e.ID,
			Test:      e.Test,
			CreatedAt: e.CreatedAt,
			ExpiresAt: e.ExpiresAt,
			HasRaw:    e.HasRaw,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})
	return out, nil
}

// Sweep drops every expired entry, deleting blobs concurrently, and
// reports how many entries were purged.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := core.Now()
	var expired []core.CacheID
	for id, e := range m.idx.Entries {
		if now.After(e.ExpiresAt) {
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		m.idx.LastCleanup = now
		if err := m.saveIndex(); err != nil {
			return 0, err
		}
		return 0, nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range expired {
		id := id
		g.Go(func() error {
			m.removeBlobs(id)
			return nil
		})
	}
	g.Wait()

	for _, id := range expired {
		delete(m.idx.Entries, id)
	}
	m.idx.LastCleanup = now
	if err := m.saveIndex(); err != nil {
		return 0, err
	}
	return len(expired), nil
}

func (m *Manager) removeBlobs(id core.CacheID) {
	for _, path := range []string{m.payloadPath(id), m.rawPath(id)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.log.Warn("failed to remove cache blob %s: %v", path, err)
		}
	}
}
