package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg-bytes"))
		case "/sniff":
			w.Header()["Content-Type"] = nil
			w.Write(pngHeader)
		case "/empty":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(5 * time.Second)

	data, ct, err := f.Fetch(context.Background(), server.URL+"/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "image/jpeg", ct)

	_, ct, err = f.Fetch(context.Background(), server.URL+"/sniff")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, _, err = f.Fetch(context.Background(), server.URL+"/missing.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, _, err = f.Fetch(context.Background(), server.URL+"/empty")
	assert.Error(t, err)
}

func TestHTTPFetcher_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64))
	}))
	defer server.Close()

	f := NewHTTPFetcher(time.Second)
	f.maxBytes = 32
	_, _, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "larger than")
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	f := NewHTTPFetcher(50 * time.Millisecond)
	_, _, err := f.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestStore_Save(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	path, err := store.Save("Chrome_Windows_Test", 0, []byte("img"), "image/jpeg", "https://x/a.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Chrome_Windows_Test", "article_1.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	path, err = store.Save("../etc evil", 4, []byte("x"), "", "https://x/b.webp?w=800")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "etc_evil", "article_5.webp"), path)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestExtension(t *testing.T) {
	tests := []struct {
		url, contentType, want string
	}{
		{"https://x/a", "image/png", "png"},
		{"https://x/a", "image/jpeg; charset=binary", "jpg"},
		{"https://x/a.JPEG", "", "jpg"},
		{"https://x/a.gif?x=1", "", "gif"},
		{"https://x/a", "", "bin"},
		{"https://x/a.verylongext", "", "bin"},
		{"", "image/webp", "webp"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Extension(tt.url, tt.contentType), "%s %s", tt.url, tt.contentType)
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Safari_Mac_Test", SafeName("Safari_Mac_Test"))
	assert.Equal(t, "a_b", SafeName("a b"))
	assert.Equal(t, "session", SafeName("../"))
}
