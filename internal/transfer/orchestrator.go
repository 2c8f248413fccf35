// Package transfer uploads batches of files under a prefix and tracks
// per-file status for display.
package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fishy/errbatch"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/damacus/iron-files/internal/browser"
	"github.com/damacus/iron-files/internal/models"
	"github.com/damacus/iron-files/internal/services"
)

const (
	defaultContentType = "application/octet-stream"
	sniffLen           = 3072
)

// File is one local file of a batch
type File struct {
	Name        string
	ContentType string
	// Size in bytes, -1 when unknown
	Size int64
	Open func() (io.ReadCloser, error)
}

// Gateway is the store access uploads need
type Gateway interface {
	Put(ctx context.Context, cfg services.Configuration, key string, body io.Reader, size int64, contentType string) error
	List(ctx context.Context, cfg services.Configuration, prefix, delimiter string) (services.ListResult, error)
}

// BatchResult summarizes a settled batch
type BatchResult struct {
	Tasks     []models.UploadTask
	Completed int
	Failed    int
	// Objects is the re-listing of the target prefix after the batch
	Objects []models.ObjectEntry
	// Err joins the per-file failures, nil when every file completed
	Err error
	// ListErr is set when the re-listing failed
	ListErr error
}

// Success reports whether every file completed
func (r BatchResult) Success() bool {
	return r.Failed == 0 && len(r.Tasks) > 0
}

// Orchestrator fans a batch out to concurrent puts
type Orchestrator struct {
	gateway     Gateway
	concurrency int
	log         zerolog.Logger
}

// NewOrchestrator creates an orchestrator. concurrency <= 0 uploads the whole batch at once.
func NewOrchestrator(gateway Gateway, concurrency int, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{gateway: gateway, concurrency: concurrency, log: log}
}

// Upload puts every file at prefix+name. Files succeed or fail independently;
// the prefix is re-listed once all of them settled. board may be nil.
func (o *Orchestrator) Upload(ctx context.Context, cfg services.Configuration, prefix string, files []File, board *Board) BatchResult {
	if err := cfg.Validate(); err != nil {
		return BatchResult{Err: err}
	}
	if len(files) == 0 {
		return BatchResult{Err: &services.ValidationError{Field: "files", Reason: "no files to upload"}}
	}

	tasks := make([]models.UploadTask, len(files))
	for i, f := range files {
		tasks[i] = models.UploadTask{
			ID:        uuid.NewString(),
			FileName:  f.Name,
			TargetKey: prefix + f.Name,
			Status:    models.StatusQueued,
		}
	}
	if board != nil {
		board.StartBatch(prefix, tasks)
	}

	log := o.log.With().Str("bucket", cfg.BucketName).Str("prefix", prefix).Int("files", len(files)).Logger()
	log.Info().Msg("upload batch started")

	var g errgroup.Group
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for i := range files {
		g.Go(func() error {
			task := &tasks[i]
			task.Status = models.StatusUploading
			task.Progress = models.ProgressInFlight
			publish(board, *task)

			if err := o.put(ctx, cfg, task.TargetKey, files[i]); err != nil {
				task.Status = models.StatusError
				task.Message = err.Error()
				log.Warn().Err(err).Str("key", task.TargetKey).Msg("upload failed")
			} else {
				task.Status = models.StatusCompleted
				task.Progress = models.ProgressDone
			}
			publish(board, *task)
			// Siblings keep going whatever happened here
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{Tasks: tasks}
	var batch errbatch.ErrBatch
	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			result.Completed++
		case models.StatusError:
			result.Failed++
			batch.Add(fmt.Errorf("%s: %s", t.FileName, t.Message))
		}
	}
	result.Err = batch.Compile()

	listing, err := o.gateway.List(ctx, cfg, prefix, services.Delimiter)
	if err != nil {
		result.ListErr = err
		log.Error().Err(err).Msg("re-listing after upload failed")
	} else {
		result.Objects = browser.Project(prefix, listing)
	}

	log.Info().Int("completed", result.Completed).Int("failed", result.Failed).Msg("upload batch settled")
	return result
}

func (o *Orchestrator) put(ctx context.Context, cfg services.Configuration, key string, f File) error {
	if f.Name == "" {
		return &services.ValidationError{Field: "fileName", Reason: "is required"}
	}
	if f.Open == nil {
		return errors.New("file has no content")
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = rc.Close() }()

	body, contentType, err := detectContentType(rc, f.ContentType)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return o.gateway.Put(ctx, cfg, key, body, f.Size, contentType)
}

// detectContentType keeps a declared type, otherwise sniffs the first bytes.
// The returned reader yields the whole content.
func detectContentType(r io.Reader, declared string) (io.Reader, string, error) {
	if declared != "" && declared != defaultContentType {
		return r, declared, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	head = head[:n]

	contentType := defaultContentType
	if n > 0 {
		if detected := mimetype.Detect(head); detected != nil && detected.String() != "" {
			contentType = detected.String()
		}
	}
	return io.MultiReader(bytes.NewReader(head), r), contentType, nil
}

func publish(board *Board, task models.UploadTask) {
	if board != nil {
		board.Update(task)
	}
}
