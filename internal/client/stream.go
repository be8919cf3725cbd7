package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"aisnippets/internal/sse"
)

// ErrStreamClosed means the server ended the stream without a complete or
// error frame.
var ErrStreamClosed = errors.New("summary stream closed before completion")

// StreamError carries the message of an "error" frame.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return "summary generation failed"
	}
	return e.Message
}

// Callbacks receive the decoded summary stream. Chunk and Complete may be
// nil. When Error is nil, failures are returned from StreamSummary instead.
type Callbacks struct {
	Chunk    func(text string)
	Complete func()
	Error    func(err error)
}

func (cb Callbacks) fail(err error) error {
	if cb.Error == nil {
		return err
	}
	cb.Error(err)
	return nil
}

// StreamSummary opens the summary stream of snippet id and blocks until the
// server sends a terminal frame, the connection fails or ctx is done.
// Cancelling ctx returns nil without invoking any callback.
func (c *Client) StreamSummary(ctx context.Context, id string, cb Callbacks) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+snippetPath(id)+"/generate-summary", nil)
	if err != nil {
		return cb.fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", sse.ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return cb.fail(fmt.Errorf("open stream: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cb.fail(statusError(resp))
	}

	r := sse.NewReader(resp.Body)
	for {
		frame, err := r.Next()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return cb.fail(ErrStreamClosed)
			}
			return cb.fail(fmt.Errorf("read stream: %w", err))
		}

		switch frame.Event {
		case "", "message":
			if frame.Data != "" && cb.Chunk != nil {
				cb.Chunk(frame.Data)
			}
		case "complete":
			if cb.Complete != nil {
				cb.Complete()
			}
			return nil
		case "error":
			return cb.fail(&StreamError{Message: frame.Data})
		}
	}
}
