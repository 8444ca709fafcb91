package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
)

var errFrameTooLarge = errors.New("frame too large")

// queueDepth bounds how many frames are read ahead of the one being handled.
const queueDepth = 64

// Stream serves a single client over newline-delimited JSON. Frames are
// handled one at a time in arrival order while a reader goroutine keeps
// draining the input.
type Stream struct {
	r        io.Reader
	w        io.Writer
	handler  Handler
	maxFrame int
	logger   *zap.Logger

	mu sync.Mutex // serialises writes to w
}

// NewStream creates a stream transport. maxFrame bounds a single line in bytes.
func NewStream(r io.Reader, w io.Writer, handler Handler, maxFrame int, logger *zap.Logger) *Stream {
	if r == nil {
		panic("r is required")
	}
	if w == nil {
		panic("w is required")
	}
	if handler == nil {
		panic("handler is required")
	}
	if maxFrame <= 0 {
		panic("maxFrame must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{r: r, w: w, handler: handler, maxFrame: maxFrame, logger: logger}
}

type inbound struct {
	frame []byte
	err   error
}

// Serve runs until the input ends or ctx is cancelled. A clean end of input
// returns nil. On cancellation the reader goroutine stays blocked until the
// caller closes the input.
func (s *Stream) Serve(ctx context.Context) error {
	frames := make(chan inbound, queueDepth)
	go s.read(ctx, frames)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-frames:
			if !ok {
				return nil
			}
			if in.err != nil {
				if errors.Is(in.err, errFrameTooLarge) {
					s.logger.Warn("dropping oversized frame", zap.Int("limit", s.maxFrame))
					if err := s.Write(frameTooLarge(s.maxFrame)); err != nil {
						return err
					}
					continue
				}
				return in.err
			}
			if reply := s.handler.Handle(ctx, in.frame); reply != nil {
				if err := s.Write(reply); err != nil {
					return err
				}
			}
		}
	}
}

func (s *Stream) read(ctx context.Context, out chan<- inbound) {
	defer close(out)
	br := bufio.NewReader(s.r)
	for {
		frame, err := s.readFrame(br)
		if errors.Is(err, io.EOF) {
			return
		}
		if err == nil && len(bytes.TrimSpace(frame)) == 0 {
			continue
		}
		select {
		case out <- inbound{frame: frame, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil && !errors.Is(err, errFrameTooLarge) {
			return
		}
	}
}

// readFrame returns the next line without its terminator. An oversized line
// is consumed in full and reported as errFrameTooLarge. A final line without
// a newline is still a frame.
func (s *Stream) readFrame(br *bufio.Reader) ([]byte, error) {
	var frame []byte
	oversized := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !oversized {
			if len(frame)+len(chunk) > s.maxFrame+1 {
				oversized = true
				frame = nil
			} else {
				frame = append(frame, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil:
		case errors.Is(err, io.EOF) && (len(frame) > 0 || oversized):
		default:
			return nil, err
		}

		if oversized {
			return nil, errFrameTooLarge
		}
		return bytes.TrimRight(frame, "\r\n"), nil
	}
}

// Write sends one frame followed by a newline.
func (s *Stream) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, 0, len(frame)+1)
	buf = append(buf, frame...)
	buf = append(buf, '\n')
	_, err := s.w.Write(buf)
	return err
}
