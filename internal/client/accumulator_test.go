package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"zeto/internal/domain"
)

func TestAccumulatorBasicStream(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Feed([]byte("data: {\"delta\":\"Hel\"}\n\n"))
	acc.Feed([]byte("data: {\"delta\":\"lo\"}\n\n"))
	acc.Feed([]byte("data: {\"done\":true}\n\n"))

	if acc.State() != StateCompleted {
		t.Fatalf("State() = %v, want completed", acc.State())
	}
	if acc.Text() != "Hello" {
		t.Errorf("Text() = %q, want %q", acc.Text(), "Hello")
	}
	if err := acc.Finish(); err != nil {
		t.Errorf("Finish() = %v, want nil", err)
	}
}

// The result must not depend on where chunk boundaries fall, including in
// the middle of a frame.
func TestAccumulatorChunkBoundaries(t *testing.T) {
	stream := "data: {\"delta\":\"one \"}\n\n" +
		": ping\n\n" +
		"data: {\"delta\":\"two \"}\n\n" +
		"data: {\"delta\":\"three\"}\n\n" +
		"data: {\"done\":true}\n\n"

	for chunkSize := 1; chunkSize <= len(stream); chunkSize++ {
		acc := NewAccumulator(nil)
		for i := 0; i < len(stream); i += chunkSize {
			end := i + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			acc.Feed([]byte(stream[i:end]))
		}

		if acc.Text() != "one two three" {
			t.Fatalf("chunk size %d: Text() = %q, want %q", chunkSize, acc.Text(), "one two three")
		}
		if acc.State() != StateCompleted {
			t.Fatalf("chunk size %d: State() = %v, want completed", chunkSize, acc.State())
		}
	}
}

func TestAccumulatorSkipsMalformedLines(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Feed([]byte("data: {\"delta\":\"a\"}\n\n"))
	acc.Feed([]byte("data: {not json\n\n"))
	acc.Feed([]byte("garbage line\n\n"))
	acc.Feed([]byte("data: {\"delta\":\"b\"}\n\n"))
	acc.Feed([]byte("data: {\"done\":true}\n\n"))

	if acc.Text() != "ab" {
		t.Errorf("Text() = %q, want %q", acc.Text(), "ab")
	}
	if acc.State() != StateCompleted {
		t.Errorf("State() = %v, want completed", acc.State())
	}
}

func TestAccumulatorErrorEvent(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Feed([]byte("data: {\"delta\":\"partial\"}\n\n"))
	acc.Feed([]byte("data: {\"error\":\"upstream exploded\"}\n\n"))

	if acc.State() != StateErrored {
		t.Fatalf("State() = %v, want errored", acc.State())
	}
	if acc.Err() == nil || acc.Err().Error() != "upstream exploded" {
		t.Errorf("Err() = %v, want upstream exploded", acc.Err())
	}
	// Partial text stays available for inspection
	if acc.Text() != "partial" {
		t.Errorf("Text() = %q, want %q", acc.Text(), "partial")
	}

	// Events after a terminal state are ignored
	acc.Feed([]byte("data: {\"delta\":\"more\"}\n\n"))
	if acc.Text() != "partial" {
		t.Errorf("Text() after terminal state = %q, want %q", acc.Text(), "partial")
	}
}

func TestAccumulatorInterruptedStream(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Feed([]byte("data: {\"delta\":\"half\"}\n\n"))

	err := acc.Finish()
	if !errors.Is(err, domain.ErrStreamInterrupted) {
		t.Fatalf("Finish() = %v, want ErrStreamInterrupted", err)
	}
	if acc.State() != StateErrored {
		t.Errorf("State() = %v, want errored", acc.State())
	}
}

func TestAccumulatorOnDeltaCallback(t *testing.T) {
	var got []string
	acc := NewAccumulator(func(d string) { got = append(got, d) })
	acc.Feed([]byte("data: {\"delta\":\"x\"}\n\ndata: {\"delta\":\"y\"}\n\ndata: {\"done\":true}\n\n"))

	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("deltas = %v, want [x y]", got)
	}
}

func TestConsumeReadsToCompletion(t *testing.T) {
	stream := "data: {\"delta\":\"Hel\"}\n\ndata: {\"delta\":\"lo\"}\n\ndata: {\"done\":true}\n\n"
	acc := NewAccumulator(nil)

	text, err := acc.Consume(context.Background(), strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if text != "Hello" {
		t.Errorf("Consume() = %q, want %q", text, "Hello")
	}
}

func TestConsumeEOFWithoutDone(t *testing.T) {
	acc := NewAccumulator(nil)
	_, err := acc.Consume(context.Background(), strings.NewReader("data: {\"delta\":\"cut\"}\n\n"))
	if !errors.Is(err, domain.ErrStreamInterrupted) {
		t.Fatalf("Consume() error = %v, want ErrStreamInterrupted", err)
	}
}

// blockingReader never returns, standing in for a stalled connection.
type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	time.Sleep(10 * time.Millisecond)
	return 0, nil
}

func TestConsumeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	acc := NewAccumulator(nil)
	_, err := acc.Consume(ctx, blockingReader{})
	if !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("Consume() error = %v, want ErrCancelled", err)
	}
	if acc.State() == StateCompleted {
		t.Error("cancelled stream must not report completion")
	}
}

func TestConsumeReadError(t *testing.T) {
	acc := NewAccumulator(nil)
	r := io.MultiReader(strings.NewReader("data: {\"delta\":\"a\"}\n\n"), errReader{})

	text, err := acc.Consume(context.Background(), r)
	if !errors.Is(err, domain.ErrStreamInterrupted) {
		t.Fatalf("Consume() error = %v, want ErrStreamInterrupted", err)
	}
	if text != "a" {
		t.Errorf("partial text = %q, want %q", text, "a")
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) { return 0, errors.New("connection reset") }
