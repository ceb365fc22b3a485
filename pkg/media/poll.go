package media

import (
	"context"
	"fmt"
	"time"

	"github.com/ogulcanaydogan/xcli/pkg/xapi"
	"github.com/tidwall/gjson"
)

type processingInfo struct {
	raw            gjson.Result
	State          ProcessingState
	CheckAfterSecs int64
	Progress       int64
	Message        string
}

func (p processingInfo) Exists() bool { return p.raw.Exists() }

func parseProcessingInfo(resp *xapi.Response) processingInfo {
	info := resp.Get("data.processing_info")
	if !info.Exists() {
		info = resp.Get("processing_info")
	}
	if !info.Exists() {
		return processingInfo{}
	}
	msg := info.Get("error.message").String()
	if msg == "" {
		msg = info.Get("error.name").String()
	}
	return processingInfo{
		raw:            info,
		State:          ProcessingState(info.Get("state").String()),
		CheckAfterSecs: info.Get("check_after_secs").Int(),
		Progress:       info.Get("progress_percent").Int(),
		Message:        msg,
	}
}

// awaitProcessing polls media.status until the server reports a terminal
// state or MaxPollAttempts status queries have been made.
func (u *Uploader) awaitProcessing(ctx context.Context, s *Session, info processingInfo) error {
	log := u.logger.With("session", s.ID, "media_id", s.MediaID)

	s.State = StatePending
	for attempt := 0; ; attempt++ {
		if info.Exists() {
			s.State = info.State
		} else if attempt > 0 {
			// Status without processing_info: nothing left to wait for.
			s.State = StateSucceeded
		}
		if s.State.Terminal() {
			if s.State == StateFailed {
				return &ProcessingError{MediaID: s.MediaID, Message: info.Message}
			}
			return nil
		}
		if attempt == u.opts.MaxPollAttempts {
			return fmt.Errorf("%w: media %s still %s after %d status checks",
				ErrProcessingTimeout, s.MediaID, s.State, attempt)
		}

		wait := u.opts.PollInterval
		if info.CheckAfterSecs > 0 {
			wait = time.Duration(info.CheckAfterSecs) * time.Second
		}
		log.Debug("media processing", "state", s.State, "progress", info.Progress, "wait", wait)
		if err := u.opts.Sleep(ctx, wait); err != nil {
			return fmt.Errorf("wait for media %s: %w", s.MediaID, err)
		}

		req := xapi.NewRequest("media", "status").
			Set("command", "STATUS").
			Set("media_id", s.MediaID)
		resp, err := u.caller.Call(ctx, req)
		if err != nil {
			return fmt.Errorf("media %s status: %w", s.MediaID, err)
		}
		info = parseProcessingInfo(resp)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
