package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ogulcanaydogan/xcli/pkg/model"
)

// maxLineSize bounds a single ledger line; records are far smaller.
const maxLineSize = 1 << 20

// JSONLLedger stores usage records as newline-delimited JSON in a single file.
//
// Each append opens the file with O_APPEND and issues one write, so appends
// from concurrent processes do not interleave within a line.
type JSONLLedger struct {
	path   string
	logger *slog.Logger
}

// NewJSONLLedger returns a ledger backed by the file at path. The file and its
// directory are created on first append.
func NewJSONLLedger(path string, logger *slog.Logger) *JSONLLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONLLedger{path: path, logger: logger}
}

// Path returns the ledger file location.
func (l *JSONLLedger) Path() string { return l.path }

func (l *JSONLLedger) Append(ctx context.Context, record model.UsageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal usage record: %w", err)
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("append usage record: %w", err)
	}
	return f.Close()
}

func (l *JSONLLedger) LoadAll(ctx context.Context) ([]model.UsageRecord, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, maxLineSize)

	var records []model.UsageRecord
	lineNo := 0
	for {
		raw, readErr := r.ReadSlice('\n')
		if errors.Is(readErr, bufio.ErrBufferFull) {
			lineNo++
			l.logger.Debug("skipping oversized ledger entry", "path", l.path, "line", lineNo)
			if err := discardLine(r); err != nil {
				return nil, fmt.Errorf("read ledger: %w", err)
			}
			continue
		}

		if len(raw) > 0 {
			lineNo++
			if lineNo%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			if rec, ok := l.decode(raw, lineNo); ok {
				records = append(records, rec)
			}
		}

		if errors.Is(readErr, io.EOF) {
			return records, nil
		}
		if readErr != nil {
			return nil, fmt.Errorf("read ledger: %w", readErr)
		}
	}
}

// decode parses one ledger line. Blank, unparseable and ill-formed lines are
// skipped.
func (l *JSONLLedger) decode(raw []byte, lineNo int) (model.UsageRecord, bool) {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return model.UsageRecord{}, false
	}
	var rec model.UsageRecord
	if err := json.Unmarshal(line, &rec); err != nil || !wellFormed(rec) {
		l.logger.Debug("skipping malformed ledger entry", "path", l.path, "line", lineNo)
		return model.UsageRecord{}, false
	}
	return rec, true
}

// discardLine consumes the rest of a line that did not fit in the buffer.
func discardLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == nil || errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
}

func (l *JSONLLedger) Clear(_ context.Context) error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear ledger: %w", err)
	}
	return nil
}

// wellFormed rejects entries that decoded but are missing required fields.
func wellFormed(r model.UsageRecord) bool {
	return !r.Timestamp.IsZero() && r.Endpoint != "" && r.EstimatedCost >= 0
}
