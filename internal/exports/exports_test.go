package exports_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/exports"
	"github.com/JaimeStill/setu/pkg/lifecycle"
	"github.com/JaimeStill/setu/pkg/routes"
	"github.com/JaimeStill/setu/pkg/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memBlob struct {
	data        []byte
	contentType string
}

// memStore is an in-memory storage.System.
type memStore struct {
	mu    sync.Mutex
	blobs map[string]memBlob
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string]memBlob)}
}

func (m *memStore) Start(*lifecycle.Coordinator) error { return nil }

func (m *memStore) Upload(_ context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[key] = memBlob{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *memStore) Download(_ context.Context, key string) (*storage.Blob, error) {
	if strings.Contains(key, "..") {
		return nil, storage.ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Blob{
		Body:          io.NopCloser(bytes.NewReader(b.data)),
		ContentType:   b.contentType,
		ContentLength: int64(len(b.data)),
	}, nil
}

func (m *memStore) Find(_ context.Context, key string) (*storage.BlobMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.BlobMeta{Key: key, ContentType: b.contentType, ContentLength: int64(len(b.data))}, nil
}

func (m *memStore) List(_ context.Context, prefix, _ string, maxResults int32) (*storage.BlobList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	list := &storage.BlobList{Items: []storage.BlobMeta{}}
	for _, k := range keys {
		if int32(len(list.Items)) == maxResults {
			list.NextMarker = k
			break
		}
		list.Items = append(list.Items, storage.BlobMeta{Key: k, ContentLength: int64(len(m.blobs[k].data))})
	}
	return list, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

func report(name string) *analytics.Report {
	return &analytics.Report{Filename: name, Data: []byte("section,label\nsummary,total\n")}
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("6f1c1c7e-8d7a-4b43-9a8e-1f0b3c2d4e5f")
	now := time.Date(2025, 3, 1, 23, 0, 0, 0, time.FixedZone("X", -3*3600))

	got := exports.Key(now, id, "emissions-org-o1-2025-03-01.csv")
	assert.Equal(t, "2025/03/02/6f1c1c7e-8d7a-4b43-9a8e-1f0b3c2d4e5f/emissions-org-o1-2025-03-01.csv", got)
}

func TestArchiveAndDownload(t *testing.T) {
	store := newMemStore()
	sys := exports.New(store, 50, discard)
	require.True(t, sys.Enabled())

	key, err := sys.Archive(context.Background(), report("emissions-org-o1-2025-03-01.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "/emissions-org-o1-2025-03-01.csv"))

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/"+key, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, analytics.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="emissions-org-o1-2025-03-01.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "summary,total")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/2025/missing.csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListHandler(t *testing.T) {
	store := newMemStore()
	sys := exports.New(store, 2, discard)
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		_, err := sys.Archive(context.Background(), report(name))
		require.NoError(t, err)
	}

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantItems int
	}{
		{"default page size", "", http.StatusOK, 2},
		{"explicit page size", "?max_results=3", http.StatusOK, 3},
		{"prefix without match", "?prefix=1999/", http.StatusOK, 0},
		{"bad page size", "?max_results=zero", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports"+tt.query, nil))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}

			var list storage.BlobList
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
			assert.Len(t, list.Items, tt.wantItems)
		})
	}
}

func TestDisabled(t *testing.T) {
	sys := exports.New(nil, 50, discard)
	assert.False(t, sys.Enabled())

	_, err := sys.Archive(context.Background(), report("x.csv"))
	require.ErrorIs(t, err, storage.ErrDisabled)

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	for _, target := range []string{"/exports", "/exports/2025/03/01/x.csv"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}
