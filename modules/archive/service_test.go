package archive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palette-makeup-server/modules/common/config"
	"palette-makeup-server/modules/common/storage"
	"palette-makeup-server/modules/generation"
	"palette-makeup-server/modules/pipeline"
)

type fakeStore struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (f *fakeStore) InsertRecord(_ context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads map[string][]byte
	auth    string
	status  int
}

func (f *fakeStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/result.png":
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("remote-bytes"))
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/storage/v1/object/attachments/"):
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.uploads[strings.TrimPrefix(r.URL.Path, "/storage/v1/object/attachments/")] = body
		f.auth = r.Header.Get("Authorization")
		status := f.status
		f.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(`{"Key":"ok"}`))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeStorage) uploaded(path string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads[path]
}

func (f *fakeStorage) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func newTestService(t *testing.T) (*Service, *fakeStorage, *fakeStore, *httptest.Server) {
	t.Helper()
	fake := &fakeStorage{uploads: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	store := &fakeStore{}
	client := storage.NewClient(srv.URL, "service-key", "attachments", 5*time.Second)
	return NewService(client, store, 5*time.Second), fake, store, srv
}

func event(out *generation.Output) pipeline.ResultEvent {
	return pipeline.ResultEvent{
		ControllerID: "sess-1",
		Caption:      "a person",
		Prompt:       "prompt #112233",
		HexPalette:   []string{"#112233"},
		ColorNames:   []string{"Navy"},
		Output:       out,
	}
}

func TestArchive_BlobOutput(t *testing.T) {
	svc, fake, store, _ := newTestService(t)

	// 디코딩 불가 → WebP 변환 실패 → 원본 업로드
	rec, err := svc.Archive(context.Background(), event(&generation.Output{Data: []byte("raw-bytes"), MimeType: "image/png"}))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rec.FilePath, "palette-makeup/sess-1/"))
	assert.Equal(t, "Bearer service-key", fake.lastAuth())
	assert.Equal(t, []byte("raw-bytes"), fake.uploaded(rec.FilePath))

	require.Len(t, store.records, 1)
	assert.Equal(t, "sess-1", store.records[0].SessionID)
	assert.Equal(t, []string{"#112233"}, store.records[0].HexPalette)
	assert.Equal(t, []string{"Navy"}, store.records[0].ColorNames)
	assert.Equal(t, len("raw-bytes"), store.records[0].FileSize)
}

func TestArchive_URLOutputIsDownloaded(t *testing.T) {
	svc, fake, store, srv := newTestService(t)

	rec, err := svc.Archive(context.Background(), event(&generation.Output{URL: srv.URL + "/result.png"}))
	require.NoError(t, err)
	assert.Equal(t, []byte("remote-bytes"), fake.uploaded(rec.FilePath))
	assert.Equal(t, srv.URL+"/result.png", store.records[0].SourceURL)
}

func TestArchive_Failures(t *testing.T) {
	svc, fake, store, srv := newTestService(t)

	_, err := svc.Archive(context.Background(), event(nil))
	assert.Error(t, err)

	_, err = svc.Archive(context.Background(), event(&generation.Output{}))
	assert.Error(t, err)

	_, err = svc.Archive(context.Background(), event(&generation.Output{URL: srv.URL + "/missing.png"}))
	assert.Error(t, err)

	fake.mu.Lock()
	fake.status = http.StatusForbidden
	fake.mu.Unlock()
	_, err = svc.Archive(context.Background(), event(&generation.Output{Data: []byte("x")}))
	assert.Error(t, err)
	assert.Empty(t, store.records)

	fake.mu.Lock()
	fake.status = 0
	fake.mu.Unlock()
	store.err = errors.New("insert failed")
	_, err = svc.Archive(context.Background(), event(&generation.Output{Data: []byte("x")}))
	assert.Error(t, err)
}

func TestNewFromConfig_Disabled(t *testing.T) {
	svc, err := NewFromConfig(&config.Config{ArchiveEnabled: false})
	require.NoError(t, err)
	assert.Nil(t, svc)
}
