package relay

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KiNGTV2025/xdert/pkg/config"
	"github.com/KiNGTV2025/xdert/pkg/httpclient"
	"github.com/KiNGTV2025/xdert/pkg/logging"
)

func newTestRelay(t *testing.T) *Relay {
	t.Helper()
	log := logging.New("error", false, nil)
	return New(httpclient.New(&config.Config{}, log), log)
}

func TestSegmentStreamsBody(t *testing.T) {
	payload := bytes.Repeat([]byte{0x47}, 3*chunkSize+17)

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotUA = req.Header.Get("User-Agent")
		w.Write(payload)
	}))
	defer srv.Close()

	r := newTestRelay(t)
	var buf bytes.Buffer

	n, err := r.Segment(context.Background(), &buf, srv.URL+"/seg1.ts", map[string]string{"User-Agent": "ua"})
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("Segment() wrote %d bytes, want %d", n, len(payload))
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Error("streamed body differs from upstream payload")
	}
	if gotUA != "ua" {
		t.Errorf("upstream User-Agent = %q, want ua", gotUA)
	}
}

func TestSegmentUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	r := newTestRelay(t)
	var buf bytes.Buffer

	n, err := r.Segment(context.Background(), &buf, srv.URL+"/seg1.ts", nil)
	if err == nil {
		t.Fatal("Segment() error = nil, want upstream status error")
	}
	if n != 0 {
		t.Errorf("Segment() wrote %d bytes on error, want 0", n)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q does not name the status", err)
	}
}

type failingWriter struct {
	wrote int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.wrote += len(p)
	return len(p), nil
}

func TestSegmentCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRelay(t)
	if _, err := r.Segment(ctx, &failingWriter{}, srv.URL, nil); err == nil {
		t.Error("Segment() with canceled context error = nil, want error")
	}
}

func TestKeyReturnsBody(t *testing.T) {
	key := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write(key)
	}))
	defer srv.Close()

	r := newTestRelay(t)
	got, err := r.Key(context.Background(), srv.URL+"/k1.key", nil)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Errorf("Key() = %x, want %x", got, key)
	}
}

func TestKeyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	r := newTestRelay(t)
	if _, err := r.Key(context.Background(), srv.URL, nil); err == nil {
		t.Error("Key() error = nil, want upstream status error")
	}
}
