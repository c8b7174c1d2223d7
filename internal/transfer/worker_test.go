package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newWorker(readTimeout time.Duration) *Worker {
	return NewWorker(NewClient(2*time.Second), readTimeout, nil)
}

func TestTransferUsesDispositionName(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 3*ChunkSize+17)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="Real Name-1-0.7z"`)
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "dir")
	var calls int
	var last Progress
	res := newWorker(5*time.Second).Transfer(context.Background(), srv.URL+"/files/ignored.bin?x=1", dest, "requested.7z", func(p Progress) {
		calls++
		if p.Written < last.Written {
			t.Errorf("progress went backwards: %d < %d", p.Written, last.Written)
		}
		last = p
	})
	if !res.Success() {
		t.Fatalf("transfer failed: %v", res.Err)
	}
	if res.Filename != "Real Name-1-0.7z" {
		t.Errorf("filename = %q", res.Filename)
	}
	if res.Path != filepath.Join(dest, "Real Name-1-0.7z") {
		t.Errorf("path = %q", res.Path)
	}
	if res.Bytes != int64(len(payload)) {
		t.Errorf("bytes = %d", res.Bytes)
	}
	if calls < 4 {
		t.Errorf("progress calls = %d, want at least one per chunk", calls)
	}
	if last.Total != int64(len(payload)) || last.Percent() != 100 {
		t.Errorf("last progress = %+v", last)
	}
	info, err := os.Stat(res.Path)
	if err != nil || info.Size() != int64(len(payload)) {
		t.Errorf("file on disk: %v, %v", info, err)
	}
}

func TestTransferFallsBackToURLName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/redirect" {
			http.Redirect(w, req, "/cdn/FromURL.zip?token=abc", http.StatusFound)
			return
		}
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	res := newWorker(5*time.Second).Transfer(context.Background(), srv.URL+"/redirect", t.TempDir(), "requested.zip", nil)
	if !res.Success() {
		t.Fatalf("transfer failed: %v", res.Err)
	}
	if res.Filename != "FromURL.zip" {
		t.Errorf("filename = %q", res.Filename)
	}
}

func TestTransferUnknownLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="stream.bin"`)
		fl := w.(http.Flusher)
		for i := 0; i < 3; i++ {
			w.Write([]byte("chunk"))
			fl.Flush()
		}
	}))
	defer srv.Close()

	var last Progress
	res := newWorker(5*time.Second).Transfer(context.Background(), srv.URL, t.TempDir(), "x", func(p Progress) { last = p })
	if !res.Success() {
		t.Fatalf("transfer failed: %v", res.Err)
	}
	if last.Total != -1 || last.Percent() != -1 || last.Written != 15 {
		t.Errorf("last progress = %+v", last)
	}
}

func TestTransferHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="gone.7z"`)
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	dest := t.TempDir()
	res := newWorker(5*time.Second).Transfer(context.Background(), srv.URL, dest, "gone.7z", nil)
	if !errors.Is(res.Err, ErrHTTPStatus) {
		t.Fatalf("err = %v", res.Err)
	}
	var te *Error
	if !errors.As(res.Err, &te) || te.Status != http.StatusGone {
		t.Errorf("error detail = %+v", te)
	}
	if _, err := os.Stat(filepath.Join(dest, "gone.7z")); !os.IsNotExist(err) {
		t.Error("no file should be created on a non-200 answer")
	}
	if res.Path != "" {
		t.Errorf("path should be empty on failure, got %q", res.Path)
	}
}

func TestTransferStalledPeer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="slow.bin"`)
		w.Header().Set("Content-Length", "100")
		w.Write([]byte("first"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	dest := t.TempDir()
	res := newWorker(200*time.Millisecond).Transfer(context.Background(), srv.URL, dest, "slow.bin", nil)
	if res.Success() {
		t.Fatal("expected stalled transfer to fail")
	}
	if !strings.Contains(res.Err.Error(), "stalled: no data for 200ms") {
		t.Errorf("err = %v", res.Err)
	}
	// partial output stays on disk
	if _, err := os.Stat(filepath.Join(dest, "slow.bin")); err != nil {
		t.Errorf("partial file missing: %v", err)
	}
}

func TestTransferCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.Write([]byte("a"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	res := newWorker(10*time.Second).Transfer(ctx, srv.URL+"/f.bin", t.TempDir(), "f.bin", nil)
	if res.Success() {
		t.Fatal("expected cancelled transfer to fail")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not abort promptly")
	}
}

func TestTransferWithLimiter(t *testing.T) {
	payload := bytes.Repeat([]byte("z"), 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	w := NewWorker(NewClient(time.Second), time.Second, NewLimiter(10<<20))
	res := w.Transfer(context.Background(), srv.URL+"/limited.bin", t.TempDir(), "", nil)
	if !res.Success() || res.Bytes != int64(len(payload)) {
		t.Fatalf("res = %+v", res)
	}
}

func TestProbeFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodHead {
			t.Errorf("method = %s", req.Method)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="Probe-1.zip"`)
	}))
	defer srv.Close()

	name, err := newWorker(time.Second).ProbeFilename(context.Background(), srv.URL+"/x")
	if err != nil || name != "Probe-1.zip" {
		t.Fatalf("name = %q, err = %v", name, err)
	}
}
