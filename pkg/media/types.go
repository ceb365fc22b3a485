// Package media uploads images, GIFs and videos to the X API.
//
// Images go up in a single request. GIFs and videos use the chunked
// initialize/append/finalize protocol followed, when the server transcodes
// asynchronously, by status polling. Every request goes through the supplied
// xapi.Caller, so each segment is budget-checked and logged like any other call.
package media

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category is the broad kind of media, which decides strategy and size ceiling.
type Category string

const (
	CategoryImage Category = "image"
	CategoryGif   Category = "gif"
	CategoryVideo Category = "video"
)

// UploadCategory returns the media_category value sent at initialize.
func (c Category) UploadCategory() string {
	return "tweet_" + string(c)
}

// Strategy is how a file is transferred.
type Strategy string

const (
	StrategyOneShot Strategy = "one-shot"
	StrategyChunked Strategy = "chunked"
)

// ProcessingState is the server-side transcoding state of an upload.
type ProcessingState string

const (
	StatePending    ProcessingState = "pending"
	StateInProgress ProcessingState = "in_progress"
	StateSucceeded  ProcessingState = "succeeded"
	StateFailed     ProcessingState = "failed"
)

// Terminal reports whether polling can stop.
func (s ProcessingState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

var (
	ErrUnsupportedType   = errors.New("unsupported media type")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUploadInitFailed  = errors.New("upload initialize failed")
	ErrAppendFailed      = errors.New("upload append failed")
	ErrFinalizeFailed    = errors.New("upload finalize failed")
	ErrProcessingFailed  = errors.New("media processing failed")
	ErrProcessingTimeout = errors.New("media processing timed out")
)

// ProcessingError carries the server's reason for a failed transcode.
type ProcessingError struct {
	MediaID string
	Message string
}

func (e *ProcessingError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("media %s: %s", e.MediaID, ErrProcessingFailed)
	}
	return fmt.Sprintf("media %s: %s: %s", e.MediaID, ErrProcessingFailed, e.Message)
}

func (e *ProcessingError) Unwrap() error { return ErrProcessingFailed }

// Session is the in-process state of one chunked upload. It is not persisted:
// an interrupted upload is abandoned on the server and cannot be resumed.
type Session struct {
	ID         string // local correlation id for logs
	MediaID    string
	Path       string
	Kind       Kind
	TotalBytes int64
	BytesSent  int64
	Segments   int
	State      ProcessingState // empty until processing is awaited
	StartedAt  time.Time
}

func newSession(path string, kind Kind, total int64) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Path:       path,
		Kind:       kind,
		TotalBytes: total,
		StartedAt:  time.Now(),
	}
}

// Result describes a completed upload.
type Result struct {
	MediaID  string   `json:"media_id"`
	Category Category `json:"category"`
	Strategy Strategy `json:"strategy"`
	Segments int      `json:"segments"`
	Bytes    int64    `json:"bytes"`

	// State is the final processing state, empty when the server did not
	// process the upload asynchronously.
	State ProcessingState `json:"state,omitempty"`
}
