package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"modlist-downloader/internal/transfer"
)

// Scheduler runs items in fixed-size batches with at most Concurrency
// transfers in flight. Items within a batch run in parallel; batches run one
// after another.
type Scheduler struct {
	Resolver    Resolver
	Transferer  Transferer
	Concurrency int
	DestDir     string
}

// Run processes items batch by batch. handle is called on the calling
// goroutine for every update, so it may touch coordinator-owned state without
// locking. afterBatch runs once a batch has fully drained; an error from it
// stops the run. When ctx is cancelled the current batch is drained, no new
// batch is started, and the unstarted items are returned with
// ctx.Err().
func (s *Scheduler) Run(ctx context.Context, items []WorkItem, handle func(Update), afterBatch func(batch []WorkItem) error) ([]WorkItem, error) {
	n := s.Concurrency
	if n < 1 {
		n = 1
	}

	for start := 0; start < len(items); start += n {
		if err := ctx.Err(); err != nil {
			return items[start:], err
		}
		end := start + n
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		s.runBatch(ctx, batch, handle)

		if afterBatch != nil {
			if err := afterBatch(batch); err != nil {
				return items[end:], err
			}
		}
	}
	return nil, ctx.Err()
}

func (s *Scheduler) runBatch(ctx context.Context, batch []WorkItem, handle func(Update)) {
	jobs := make(chan WorkItem, len(batch))
	for _, it := range batch {
		jobs <- it
	}
	close(jobs)

	updates := make(chan Update, len(batch)*4)

	var g errgroup.Group
	for i := 0; i < len(batch) && i < max(s.Concurrency, 1); i++ {
		g.Go(func() error {
			for it := range jobs {
				s.process(ctx, it, updates)
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(updates)
	}()

	for u := range updates {
		handle(u)
	}
}

// process never returns an error: every failure becomes the item's result.
func (s *Scheduler) process(ctx context.Context, it WorkItem, updates chan<- Update) {
	finish := func(r TransferResult) {
		r.ItemID = it.ID
		updates <- Update{Item: it, Result: &r}
	}

	updates <- Update{Item: it, State: Resolving}
	direct, err := s.Resolver.Resolve(ctx, it.Reference.Raw)
	if err != nil {
		finish(TransferResult{Stage: Resolving, Err: err})
		return
	}
	rt := ResolvedTransfer{ItemID: it.ID, DirectURL: direct}

	updates <- Update{Item: it, State: Transferring}
	res := s.Transferer.Transfer(ctx, rt.DirectURL, s.DestDir, it.Name, func(p transfer.Progress) {
		updates <- Update{Item: it, State: Transferring, Progress: &p}
	})
	if !res.Success() {
		finish(TransferResult{Stage: Transferring, Filename: res.Filename, Bytes: res.Bytes, Err: res.Err})
		return
	}
	finish(TransferResult{Success: true, Path: res.Path, Filename: res.Filename, Bytes: res.Bytes, Stage: Transferring})
}
