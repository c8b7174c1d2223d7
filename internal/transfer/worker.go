package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

// ChunkSize is the unit in which bodies are read, written and reported.
const ChunkSize = 1 << 20

var ErrHTTPStatus = errors.New("unexpected http status")

// Error describes a failed transfer. Op is the phase that failed:
// "mkdir", "request", "status", "create", "read" or "write".
type Error struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Op == "status" {
		return fmt.Sprintf("download failed: http status %d", e.Status)
	}
	return fmt.Sprintf("download %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Progress is reported after every chunk. Total is -1 when the server sent no
// Content-Length, in which case only Written is meaningful.
type Progress struct {
	Written     int64
	Total       int64
	Elapsed     time.Duration
	BytesPerSec float64 // over the last chunk
}

// Percent returns completion in [0,100], or -1 when Total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return float64(p.Written) * 100 / float64(p.Total)
}

type ProgressFunc func(Progress)

// Result is the outcome of one transfer. Path is set only on success and may
// name a different file than the one requested.
type Result struct {
	URL      string
	Filename string
	Path     string
	Bytes    int64
	Duration time.Duration
	Err      error
}

func (r Result) Success() bool {
	return r.Err == nil
}

// Worker performs streamed downloads. A zero ReadTimeout disables the idle
// check; a nil Limiter means unlimited bandwidth. Safe for concurrent use.
type Worker struct {
	Client      *http.Client
	ReadTimeout time.Duration
	Limiter     *rate.Limiter
}

func NewWorker(client *http.Client, readTimeout time.Duration, limiter *rate.Limiter) *Worker {
	return &Worker{Client: client, ReadTimeout: readTimeout, Limiter: limiter}
}

// Transfer downloads directURL into destDir under the name the server
// reports. Partial output is left on disk when the body fails mid-stream;
// a non-200 answer creates no file at all.
func (w *Worker) Transfer(ctx context.Context, directURL, destDir, requested string, onProgress ProgressFunc) Result {
	start := time.Now()
	res := Result{URL: directURL}
	fail := func(op string, err error) Result {
		res.Err = &Error{Op: op, URL: directURL, Err: err}
		res.Duration = time.Since(start)
		return res
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fail("mkdir", err)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	timer, stalled := newIdleWatch(w.ReadTimeout, cancel)
	if timer != nil {
		defer timer.Stop()
	}
	stallErr := func(err error) error {
		if stalled.Load() {
			return fmt.Errorf("stalled: no data for %s", w.ReadTimeout)
		}
		return err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, directURL, nil)
	if err != nil {
		return fail("request", err)
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return fail("request", stallErr(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Err = &Error{Op: "status", URL: directURL, Status: resp.StatusCode, Err: ErrHTTPStatus}
		res.Duration = time.Since(start)
		return res
	}

	res.Filename = FilenameFromResponse(resp, requested)
	if res.Filename == "" {
		return fail("create", errors.New("no usable filename"))
	}
	target := filepath.Join(destDir, res.Filename)

	f, err := os.Create(target)
	if err != nil {
		return fail("create", err)
	}

	body := &idleReader{
		ctx:     reqCtx,
		r:       resp.Body,
		timer:   timer,
		timeout: w.ReadTimeout,
		limiter: w.Limiter,
	}
	written, err := copyChunks(f, body, resp.ContentLength, start, onProgress)
	closeErr := f.Close()
	res.Bytes = written

	if err != nil {
		var we *Error
		if errors.As(err, &we) {
			res.Err = we
			res.Duration = time.Since(start)
			return res
		}
		return fail("read", stallErr(err))
	}
	if closeErr != nil {
		return fail("write", closeErr)
	}

	res.Path = target
	res.Duration = time.Since(start)
	return res
}

func copyChunks(dst io.Writer, src io.Reader, total int64, start time.Time, onProgress ProgressFunc) (int64, error) {
	if total <= 0 {
		total = -1
	}
	buf := make([]byte, ChunkSize)
	var written int64
	last := start

	for {
		n, rerr := readChunk(src, buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, &Error{Op: "write", Err: err}
			}
			written += int64(n)

			if onProgress != nil {
				now := time.Now()
				var bps float64
				if dt := now.Sub(last).Seconds(); dt > 0 {
					bps = float64(n) / dt
				}
				last = now
				onProgress(Progress{Written: written, Total: total, Elapsed: now.Sub(start), BytesPerSec: bps})
			}
		}
		if rerr == io.EOF {
			if total > 0 && written < total {
				return written, io.ErrUnexpectedEOF
			}
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// readChunk fills buf unless the stream ends or fails first.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ProbeFilename asks the server for the name of directURL without
// downloading it.
func (w *Worker) ProbeFilename(ctx context.Context, directURL string) (string, error) {
	if w.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.ReadTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, directURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return "", &Error{Op: "request", URL: directURL, Err: err}
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Op: "status", URL: directURL, Status: resp.StatusCode, Err: ErrHTTPStatus}
	}
	name := FilenameFromResponse(resp, "")
	if name == "" {
		return "", fmt.Errorf("no filename for %s", directURL)
	}
	return name, nil
}
