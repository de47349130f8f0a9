package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "key", "attachments", time.Second)
	require.NoError(t, c.Upload(context.Background(), "a/b.webp", []byte("data"), "image/webp"))

	assert.Equal(t, "/storage/v1/object/attachments/a/b.webp", gotPath)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "image/webp", gotType)
	assert.Equal(t, []byte("data"), gotBody)
}

func TestUpload_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"invalid signature"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "key", "attachments", time.Second).Upload(context.Background(), "x", nil, "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok.png" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("png"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "attachments", time.Second)
	data, err := c.Download(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	_, err = c.Download(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}
