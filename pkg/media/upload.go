package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/ogulcanaydogan/xcli/pkg/xapi"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollAttempts = 60

	// MaxAltTextLength is the server's limit on alt text, in characters.
	MaxAltTextLength = 1000
)

// Options tunes an Uploader. Zero values take the defaults.
type Options struct {
	ChunkSize       int64
	PollInterval    time.Duration
	MaxPollAttempts int

	// Sleep waits between status queries. It must return early with the
	// context's error when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxPollAttempts <= 0 {
		o.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	return o
}

// Uploader drives uploads through a Caller.
type Uploader struct {
	caller xapi.Caller
	opts   Options
	logger *slog.Logger
}

// NewUploader creates an uploader. caller should be the accounting decorator
// so that every segment is budget-checked.
func NewUploader(caller xapi.Caller, opts Options, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{caller: caller, opts: opts.withDefaults(), logger: logger}
}

// Upload validates the file, then transfers it with the strategy its type calls for.
func (u *Uploader) Upload(ctx context.Context, path string) (*Result, error) {
	plan, err := Inspect(path)
	if err != nil {
		return nil, err
	}

	u.logger.Debug("media upload planned",
		"path", path,
		"mime", plan.Kind.MIME,
		"category", plan.Kind.Category,
		"strategy", plan.Strategy,
		"bytes", plan.Size,
	)

	if plan.Strategy == StrategyOneShot {
		return u.uploadOneShot(ctx, plan)
	}
	return u.uploadChunked(ctx, plan)
}

func (u *Uploader) uploadOneShot(ctx context.Context, plan Plan) (*Result, error) {
	data, err := os.ReadFile(plan.Path)
	if err != nil {
		return nil, fmt.Errorf("read media file: %w", err)
	}
	if int64(len(data)) > Ceiling(plan.Kind.Category) {
		return nil, fmt.Errorf("%w: %s grew to %d bytes", ErrFileTooLarge, filepath.Base(plan.Path), len(data))
	}

	req := xapi.NewRequest("media", "upload")
	req.Body = map[string]any{
		"media":          base64.StdEncoding.EncodeToString(data),
		"media_category": plan.Kind.Category.UploadCategory(),
		"media_type":     plan.Kind.MIME,
	}
	resp, err := u.caller.Call(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filepath.Base(plan.Path), err)
	}

	id := mediaID(resp)
	if id == "" {
		return nil, fmt.Errorf("%w: no media id in upload response", ErrUploadInitFailed)
	}

	u.logger.Info("media uploaded", "media_id", id, "bytes", len(data))
	return &Result{
		MediaID:  id,
		Category: plan.Kind.Category,
		Strategy: StrategyOneShot,
		Bytes:    int64(len(data)),
	}, nil
}

func (u *Uploader) uploadChunked(ctx context.Context, plan Plan) (*Result, error) {
	s := newSession(plan.Path, plan.Kind, plan.Size)
	log := u.logger.With("session", s.ID, "path", plan.Path)

	if err := u.initialize(ctx, s); err != nil {
		return nil, err
	}
	log.Debug("media upload initialized", "media_id", s.MediaID, "total_bytes", s.TotalBytes)

	if err := u.appendAll(ctx, s); err != nil {
		log.Warn("media upload abandoned", "media_id", s.MediaID, "sent", s.BytesSent, "error", err)
		return nil, err
	}

	info, err := u.finalize(ctx, s)
	if err != nil {
		return nil, err
	}

	if s.Kind.Category == CategoryVideo || info.Exists() {
		if err := u.awaitProcessing(ctx, s, info); err != nil {
			return nil, err
		}
	}

	log.Info("media uploaded",
		"media_id", s.MediaID,
		"segments", s.Segments,
		"bytes", s.BytesSent,
		"elapsed", time.Since(s.StartedAt).Round(time.Millisecond),
	)
	return &Result{
		MediaID:  s.MediaID,
		Category: s.Kind.Category,
		Strategy: StrategyChunked,
		Segments: s.Segments,
		Bytes:    s.BytesSent,
		State:    s.State,
	}, nil
}

func (u *Uploader) initialize(ctx context.Context, s *Session) error {
	req := xapi.NewRequest("media", "initialize")
	req.Body = map[string]any{
		"media_type":     s.Kind.MIME,
		"media_category": s.Kind.Category.UploadCategory(),
		"total_bytes":    s.TotalBytes,
	}
	resp, err := u.caller.Call(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUploadInitFailed, err)
	}
	s.MediaID = mediaID(resp)
	if s.MediaID == "" {
		return fmt.Errorf("%w: no media id in response", ErrUploadInitFailed)
	}
	return nil
}

// appendAll streams the file in ChunkSize segments, indexed from 0. The bytes
// read must match what was declared at initialize.
func (u *Uploader) appendAll(ctx context.Context, s *Session) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAppendFailed, err)
	}
	defer f.Close()

	name := filepath.Base(s.Path)
	buf := make([]byte, u.opts.ChunkSize)
	for {
		n, readErr := io.ReadFull(f, buf)
		if n > 0 {
			if s.BytesSent+int64(n) > s.TotalBytes {
				return fmt.Errorf("%w: file grew past the %d bytes declared", ErrAppendFailed, s.TotalBytes)
			}

			req := xapi.NewRequest("media", "append").Param("id", s.MediaID)
			req.Form = &xapi.Form{
				Fields:    map[string]string{"segment_index": strconv.Itoa(s.Segments)},
				FileField: "media",
				FileName:  name,
				File:      buf[:n],
			}
			if _, err := u.caller.Call(ctx, req); err != nil {
				return fmt.Errorf("%w: segment %d: %w", ErrAppendFailed, s.Segments, err)
			}
			s.BytesSent += int64(n)
			s.Segments++
		}

		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("%w: read segment %d: %w", ErrAppendFailed, s.Segments, readErr)
		}
	}

	if s.BytesSent != s.TotalBytes {
		return fmt.Errorf("%w: sent %d bytes, declared %d", ErrAppendFailed, s.BytesSent, s.TotalBytes)
	}
	return nil
}

func (u *Uploader) finalize(ctx context.Context, s *Session) (processingInfo, error) {
	req := xapi.NewRequest("media", "finalize").Param("id", s.MediaID)
	resp, err := u.caller.Call(ctx, req)
	if err != nil {
		return processingInfo{}, fmt.Errorf("%w: %w", ErrFinalizeFailed, err)
	}
	return parseProcessingInfo(resp), nil
}

// SetAltText attaches alt text to an uploaded media id.
func (u *Uploader) SetAltText(ctx context.Context, mediaID, text string) error {
	if n := utf8.RuneCountInString(text); n > MaxAltTextLength {
		return fmt.Errorf("alt text is %d characters, limit is %d", n, MaxAltTextLength)
	}
	req := xapi.NewRequest("media", "metadata")
	req.Body = map[string]any{
		"id": mediaID,
		"metadata": map[string]any{
			"alt_text": map[string]string{"text": text},
		},
	}
	if _, err := u.caller.Call(ctx, req); err != nil {
		return fmt.Errorf("set alt text on %s: %w", mediaID, err)
	}
	return nil
}

func mediaID(resp *xapi.Response) string {
	for _, path := range []string{"data.id", "data.media_id_string", "media_id_string"} {
		if v := resp.Get(path).String(); v != "" {
			return v
		}
	}
	return ""
}
