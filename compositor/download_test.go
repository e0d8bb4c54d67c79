package compositor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload-bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "asset.jpg")
	if err := DownloadFile(context.Background(), srv.URL, path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload-bytes" {
		t.Errorf("downloaded %q, want payload-bytes", data)
	}
}

func TestDownloadFileNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "asset.jpg")
	if err := DownloadFile(context.Background(), srv.URL, path); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestDownloadFileHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "asset.jpg")
	if err := DownloadFile(ctx, srv.URL, path); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
