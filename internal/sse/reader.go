package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Frame is one decoded frame. Data fields are joined with "\n" and keep any
// carriage returns they carry.
type Frame struct {
	Event string
	Data  string
}

type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next frame. It returns io.EOF when the input ends between
// frames and io.ErrUnexpectedEOF when it ends inside one.
func (r *Reader) Next() (Frame, error) {
	var (
		frame   Frame
		data    []string
		started bool
	)

	for {
		line, err := r.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Frame{}, err
		}
		eof := err != nil

		if eof && line == "" {
			if started {
				return Frame{}, io.ErrUnexpectedEOF
			}
			return Frame{}, io.EOF
		}

		line = strings.TrimSuffix(line, "\n")

		// Only "\n" ends a line, so a "\r" written as part of the data is
		// kept. A bare "\r" line still ends the frame.
		if line == "" || line == "\r" {
			if started {
				frame.Data = strings.Join(data, "\n")
				return frame, nil
			}
			if eof {
				return Frame{}, io.EOF
			}
			continue
		}

		if !strings.HasPrefix(line, ":") {
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")

			switch field {
			case "event":
				frame.Event = value
				started = true
			case "data":
				data = append(data, value)
				started = true
			}
		}

		if eof {
			if started {
				return Frame{}, io.ErrUnexpectedEOF
			}
			return Frame{}, io.EOF
		}
	}
}
