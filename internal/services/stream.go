package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	dataPrefix = "data: "
	doneToken  = "[DONE]"
)

var errStreamClosed = errors.New("stream closed by consumer")

// Stream delivers content fragments decoded from a provider event stream.
// Fragments arrive on Chunks in wire order; the channel is closed when the
// provider finishes, fails, or the stream is closed. Err reports why.
type Stream struct {
	chunks    chan string
	body      io.ReadCloser
	stop      chan struct{}
	closeOnce sync.Once
	err       error
}

func newStream(ctx context.Context, body io.ReadCloser) *Stream {
	s := &Stream{
		chunks: make(chan string),
		body:   body,
		stop:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.chunks)
	defer s.body.Close()

	s.err = decodeEvents(s.body, func(fragment string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-s.stop:
			return errStreamClosed
		default:
		}

		select {
		case s.chunks <- fragment:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return errStreamClosed
		}
	})
}

func (s *Stream) Chunks() <-chan string { return s.chunks }

// Err is only meaningful after Chunks has been drained. A nil error means the
// provider ended the stream normally.
func (s *Stream) Err() error {
	if errors.Is(s.err, errStreamClosed) {
		return nil
	}
	return s.err
}

// Close stops the producer and releases the provider connection.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		err = s.body.Close()
	})
	return err
}

type streamChunk struct {
	Choices []struct {
		Delta *struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// decodeEvents reads newline-delimited event lines from r and calls emit for
// every non-empty choices[0].delta.content. It returns nil on [DONE] or EOF,
// the read error on transport failure, or the first error emit returns.
func decodeEvents(r io.Reader, emit func(string) error) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, readErr := br.ReadString('\n')
		if len(line) > 0 {
			done, err := decodeLine(strings.TrimRight(line, "\r\n"), emit)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return readErr
		}
	}
}

func decodeLine(line string, emit func(string) error) (bool, error) {
	if !strings.HasPrefix(line, dataPrefix) {
		return false, nil
	}
	payload := line[len(dataPrefix):]
	if payload == doneToken {
		return true, nil
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		slog.Debug("skipping undecodable stream line", "error", err, "payload", payload)
		return false, nil
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
		return false, nil
	}
	content := chunk.Choices[0].Delta.Content
	if content == nil || *content == "" {
		return false, nil
	}
	return false, emit(*content)
}
