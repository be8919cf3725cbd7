// Package sse writes and reads text/event-stream frames.
package sse

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

const ContentType = "text/event-stream"

// Writer writes frames to an HTTP response, flushing after each one.
type Writer struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func NewWriter(w http.ResponseWriter) *Writer {
	return &Writer{w: w, rc: http.NewResponseController(w)}
}

// Open sends the stream headers and status 200. Nothing may be written to
// the response through other means afterwards.
func (w *Writer) Open() error {
	h := w.w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	w.w.WriteHeader(http.StatusOK)

	if err := w.rc.Flush(); err != nil {
		return fmt.Errorf("flush headers: %w", err)
	}
	return nil
}

// Data writes an unnamed frame.
func (w *Writer) Data(data string) error {
	return w.write("", data)
}

// Event writes a frame named event.
func (w *Writer) Event(event, data string) error {
	return w.write(event, data)
}

func (w *Writer) write(event, data string) error {
	if _, err := io.WriteString(w.w, Encode(event, data)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := w.rc.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}

// Encode renders one frame. Every "\n"-separated line of data becomes its own
// data field so that data containing newlines cannot end the frame early.
// Carriage returns are written as is; Reader returns them unchanged.
func Encode(event, data string) string {
	var b strings.Builder
	if event != "" {
		b.WriteString("event: ")
		b.WriteString(event)
		b.WriteByte('\n')
	}

	for line := range strings.SplitSeq(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	return b.String()
}
