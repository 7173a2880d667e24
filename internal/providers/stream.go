package providers

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// streamBuffer bounds the number of undelivered increments.
const streamBuffer = 64

// maxLineBytes caps a single SSE or NDJSON line.
const maxLineBytes = 1 << 20

// Stream delivers a generation as ordered text increments.
type Stream struct {
	chunks chan string
	done   chan struct{}
	cancel context.CancelFunc

	// written by the producer only; read after done is closed
	text strings.Builder
	err  error
}

// NewStream runs produce in its own goroutine and delivers every emitted
// increment. emit fails once the stream is closed or ctx is done.
func NewStream(ctx context.Context, produce func(ctx context.Context, emit func(string) error) error) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		chunks: make(chan string, streamBuffer),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(s.done)
		defer close(s.chunks)

		s.err = produce(ctx, func(chunk string) error {
			select {
			case s.chunks <- chunk:
				s.text.WriteString(chunk)
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return s
}

// Chunks yields increments in order and is closed when generation ends.
func (s *Stream) Chunks() <-chan string { return s.chunks }

// Wait drains any undelivered increments and returns the full message with
// surrounding whitespace trimmed.
func (s *Stream) Wait() (string, error) {
	for range s.chunks {
	}
	<-s.done
	s.cancel()
	if s.err != nil {
		return "", s.err
	}
	return strings.TrimSpace(s.text.String()), nil
}

// Close abandons the generation and tears down the request.
func (s *Stream) Close() {
	s.cancel()
	for range s.chunks {
	}
	<-s.done
}

// errStreamDone stops a reader loop without error.
var errStreamDone = errors.New("stream done")

// readSSE calls fn once per server-sent event. Multiple data lines are joined
// with newlines; comment lines are ignored.
func readSSE(r io.Reader, fn func(event, data string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	var event string
	var data []string
	dispatch := func() error {
		if len(data) == 0 {
			event = ""
			return nil
		}
		err := fn(event, strings.Join(data, "\n"))
		event, data = "", data[:0]
		return err
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			if err := dispatch(); err != nil {
				return stopErr(err)
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data = append(data, value)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return stopErr(dispatch())
}

// readLines calls fn for every non-blank line.
func readLines(r io.Reader, fn func(line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for sc.Scan() {
		line := sc.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return stopErr(err)
		}
	}
	return sc.Err()
}

func stopErr(err error) error {
	if errors.Is(err, errStreamDone) {
		return nil
	}
	return err
}
