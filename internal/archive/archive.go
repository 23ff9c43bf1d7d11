package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sert121/sql-datagen/internal/storage"
)

var (
	ErrNoQuestions = errors.New("archive: reply contains no questions")
	// ErrSizeMismatch means the stored object does not match what was written.
	ErrSizeMismatch = errors.New("archive: stored object size mismatch")
)

// Run is one completed generation to be archived.
type Run struct {
	RunID    string
	Database string
	Schema   string
	Table    string
	Model    string
	Text     string
}

type Result struct {
	Key         string
	RecordCount int64
	Size        int64
}

type Archiver struct {
	store  storage.ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

func NewArchiver(store storage.ObjectStore, logger *slog.Logger) (*Archiver, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Archiver{store: store, logger: logger, now: time.Now}, nil
}

func (a *Archiver) Archive(ctx context.Context, run Run) (Result, error) {
	if strings.TrimSpace(run.RunID) == "" {
		return Result{}, fmt.Errorf("run id is required")
	}
	key, err := storage.BuildRunArchivePath(run.Database, run.Schema, run.Table, run.RunID)
	if err != nil {
		return Result{}, err
	}
	encoded, err := EncodeQuestionsToParquet(run, a.now())
	if err != nil {
		return Result{}, err
	}

	size := int64(len(encoded.Data))
	if _, err := a.store.Put(ctx, key, bytes.NewReader(encoded.Data), size, storage.PutOptions{ContentType: ContentType}); err != nil {
		return Result{}, fmt.Errorf("archive run %s: %w", run.RunID, err)
	}
	stored, err := a.store.Stat(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("verify archive of run %s: %w", run.RunID, err)
	}
	if stored.Size != size {
		return Result{}, fmt.Errorf("%w: %s holds %d bytes, wrote %d", ErrSizeMismatch, key, stored.Size, size)
	}
	a.logger.InfoContext(ctx, "run archived",
		slog.String("run_id", run.RunID),
		slog.String("key", key),
		slog.String("etag", stored.ETag),
		slog.Int64("questions", encoded.RecordCount),
		slog.Int64("bytes", stored.Size),
	)
	return Result{Key: key, RecordCount: encoded.RecordCount, Size: stored.Size}, nil
}
