package agent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/b.jpg" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "image-bytes")
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, "")

	t.Run("ok", func(t *testing.T) {
		path, err := d.Fetch(context.Background(), srv.URL+"/b.jpg", "b.jpg")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if path != filepath.Join(dir, "b.jpg") {
			t.Errorf("path = %q", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(data) != "image-bytes" {
			t.Errorf("content = %q", data)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := d.Fetch(context.Background(), srv.URL+"/missing.jpg", "missing.jpg")
		if !errors.Is(err, ErrDownload) {
			t.Errorf("err = %v, want ErrDownload", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "missing.jpg")); !os.IsNotExist(err) {
			t.Errorf("partial file left behind: %v", err)
		}
	})

	t.Run("unsafe name", func(t *testing.T) {
		_, err := d.Fetch(context.Background(), srv.URL+"/b.jpg", "../b.jpg")
		if !errors.Is(err, ErrDownload) {
			t.Errorf("err = %v, want ErrDownload", err)
		}
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := d.Fetch(context.Background(), "ftp://host/b.jpg", "b.jpg")
		if !errors.Is(err, ErrDownload) {
			t.Errorf("err = %v, want ErrDownload", err)
		}
	})

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("image dir has %d entries, want only b.jpg", len(entries))
	}
}
