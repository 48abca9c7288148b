// Package archive periodically exports transcript records past the archive
// checkpoint into parquet objects on the object store.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/supportql/supportql/internal/conversation"
	"github.com/supportql/supportql/internal/observability"
	"github.com/supportql/supportql/internal/storage"
)

const parquetContentType = "application/vnd.apache.parquet"

type Config struct {
	Interval   time.Duration
	BatchLimit int
}

type Service struct {
	transcript conversation.Store
	objects    storage.Store
	logger     *slog.Logger
	interval   time.Duration
	batchLimit int
	clock      func() time.Time
}

type Result struct {
	Archived  int64  `json:"archived"`
	ObjectKey string `json:"object_key,omitempty"`
}

func NewService(transcript conversation.Store, objects storage.Store, logger *slog.Logger, cfg Config) *Service {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	batchLimit := cfg.BatchLimit
	if batchLimit <= 0 {
		batchLimit = 1000
	}
	return &Service{
		transcript: transcript,
		objects:    objects,
		logger:     logger,
		interval:   interval,
		batchLimit: batchLimit,
		clock:      time.Now,
	}
}

// Run drives the export loop until the context is cancelled. Failures are
// logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "transcript archive run failed", "error", err)
				continue
			}
			if result.Archived > 0 {
				s.logger.InfoContext(ctx, "transcript archive run completed",
					"archived", result.Archived,
					"object_key", result.ObjectKey,
				)
			}
		}
	}
}

// RunOnce exports at most one batch past the checkpoint. The checkpoint only
// advances after the object write succeeds, so a failed upload is re-exported
// on the next run.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	checkpoint, err := s.transcript.ArchiveCheckpoint(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read checkpoint: %w", err)
	}

	records, err := s.transcript.ListAfter(ctx, checkpoint, s.batchLimit)
	if err != nil {
		return Result{}, fmt.Errorf("list records after checkpoint: %w", err)
	}
	if len(records) == 0 {
		return Result{}, nil
	}

	encoded, err := EncodeRecords(records)
	if err != nil {
		return Result{}, fmt.Errorf("encode records: %w", err)
	}

	key := fmt.Sprintf("transcripts/%s/messages_%d-%d.parquet",
		s.clock().UTC().Format("2006-01-02"), encoded.FirstID, encoded.LastID)
	info, err := s.objects.Put(ctx, key, bytes.NewReader(encoded.Data), int64(len(encoded.Data)),
		storage.PutOptions{ContentType: parquetContentType})
	if err != nil {
		return Result{}, fmt.Errorf("upload archive object: %w", err)
	}

	if err := s.transcript.SetArchiveCheckpoint(ctx, encoded.LastID); err != nil {
		return Result{}, fmt.Errorf("advance checkpoint: %w", err)
	}

	observability.AddArchivedMessages(int(encoded.RecordCount))
	return Result{Archived: encoded.RecordCount, ObjectKey: info.Key}, nil
}
