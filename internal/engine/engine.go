// Package engine drives the download pipeline: it skips files the ledger
// already confirms, resolves and transfers the rest in bounded batches, and
// verifies every result before recording it.
package engine

import (
	"context"
	"fmt"

	"modlist-downloader/internal/transfer"
)

// Resolver turns a page reference into a direct download URL.
type Resolver interface {
	Resolve(ctx context.Context, reference string) (string, error)
}

// Transferer downloads one URL into a directory.
type Transferer interface {
	Transfer(ctx context.Context, directURL, destDir, requested string, onProgress transfer.ProgressFunc) transfer.Result
}

type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Event is a log line emitted by the engine. The engine never writes to the
// console itself.
type Event struct {
	Level   Level
	Message string
	ItemID  string
}

type EventFunc func(Event)

// ProgressFunc receives (finished, total) after the skip phase and after
// every batch. finished never decreases.
type ProgressFunc func(done, total int)

// TransferFunc receives per-chunk byte progress of an item. It is always
// called from the coordinating goroutine.
type TransferFunc func(item WorkItem, p transfer.Progress)

type emitter struct {
	fn EventFunc
}

func (e emitter) emit(level Level, itemID, format string, args ...any) {
	if e.fn == nil {
		return
	}
	e.fn(Event{Level: level, Message: fmt.Sprintf(format, args...), ItemID: itemID})
}
