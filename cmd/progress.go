package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"modlist-downloader/internal/engine"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
	"modlist-downloader/internal/transfer"

	"github.com/c2h5oh/datasize"
	"github.com/schollz/progressbar/v3"
)

// speedSample is a point in time for speed calculation
type speedSample struct {
	Time  time.Time
	Bytes int64
}

// speedWindow averages throughput over the last 30s.
type speedWindow struct {
	history []speedSample
}

func (w *speedWindow) update(now time.Time, currentBytes int64) float64 {
	w.history = append(w.history, speedSample{Time: now, Bytes: currentBytes})

	// Remove samples older than 30s
	validIdx := 0
	for i, s := range w.history {
		if now.Sub(s.Time) <= 30*time.Second {
			validIdx = i
			break
		}
	}
	w.history = w.history[validIdx:]

	if len(w.history) < 2 {
		return 0
	}
	oldest := w.history[0]
	newest := w.history[len(w.history)-1]
	duration := newest.Time.Sub(oldest.Time).Seconds()
	if duration == 0 {
		return 0
	}
	return float64(newest.Bytes-oldest.Bytes) / duration // bytes/sec
}

// progressSink renders engine progress: a bar on a terminal, periodic log
// lines otherwise. It also implements io.Writer so log lines do not tear the
// bar.
type progressSink struct {
	mu      sync.Mutex
	out     io.Writer
	bar     *progressbar.ProgressBar // nil when not interactive
	written map[string]int64         // item id -> bytes written by its current transfer
	total   int64
	speed   speedWindow
	lastLog time.Time
}

func newProgressSink(items int, interactive bool, out io.Writer) *progressSink {
	s := &progressSink{out: out, written: map[string]int64{}}
	if interactive {
		s.bar = progressbar.NewOptions(items,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(i18n.T("progress_starting")),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("file"),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	return s
}

// attach routes logger output through the sink until the returned func runs.
func (s *progressSink) attach() func() {
	logger.SetOutput(s)
	return func() {
		s.finish()
		logger.SetOutput(os.Stdout)
	}
}

func (s *progressSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar == nil {
		return s.out.Write(p)
	}
	_ = s.bar.Clear()
	n, err := s.out.Write(p)
	_ = s.bar.RenderBlank()
	return n, err
}

func (s *progressSink) OnProgress(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		_ = s.bar.Set(done)
		return
	}
	fmt.Fprintf(s.out, i18n.T("progress_items")+"\n", done, total)
}

func (s *progressSink) OnTransfer(item engine.WorkItem, p transfer.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total += p.Written - s.written[item.ID]
	s.written[item.ID] = p.Written

	now := time.Now()
	bps := s.speed.update(now, s.total)
	line := fmt.Sprintf("⬇️  %s | ⚡ %s/s",
		datasize.ByteSize(s.total).HumanReadable(), datasize.ByteSize(int64(bps)).HumanReadable())

	if s.bar != nil {
		s.bar.Describe(line)
		return
	}
	if now.Sub(s.lastLog) >= 10*time.Second {
		s.lastLog = now
		fmt.Fprintln(s.out, line)
	}
}

// logEvent forwards engine events to the logger at the matching level.
func logEvent(ev engine.Event) {
	switch ev.Level {
	case engine.LevelDebug:
		logger.Debug("%s", ev.Message)
	case engine.LevelError:
		logger.Error("%s", ev.Message)
	case engine.LevelSuccess:
		logger.Success("%s", ev.Message)
	default:
		logger.Info("%s", ev.Message)
	}
}

func (s *progressSink) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		_ = s.bar.Finish()
		fmt.Fprintln(s.out)
	}
}
