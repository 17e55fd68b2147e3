// Package client consumes the chat SSE stream and reassembles the response
// text on the receiving side.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"zeto/internal/domain"
)

// State tracks where an accumulator is in the stream lifecycle.
type State int

const (
	// StateIdle means no bytes have been fed yet.
	StateIdle State = iota
	// StateStreaming means at least one event has arrived and neither a done
	// nor an error event has been seen.
	StateStreaming
	// StateCompleted means a done event arrived; Text holds the full answer.
	StateCompleted
	// StateErrored means an error event arrived or the stream was cut off.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type event struct {
	Delta string `json:"delta"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Accumulator reassembles response text from SSE frames. Feed accepts chunks
// exactly as they come off the wire; a frame split across two reads is held
// in the line buffer until its newline arrives, so chunk boundaries never
// change the result.
type Accumulator struct {
	buf     strings.Builder
	text    strings.Builder
	state   State
	err     error
	onDelta func(string)
}

// NewAccumulator creates an accumulator. onDelta, if non-nil, is called with
// each delta as it arrives, before the delta is appended.
func NewAccumulator(onDelta func(string)) *Accumulator {
	return &Accumulator{onDelta: onDelta}
}

// State returns the current lifecycle state.
func (a *Accumulator) State() State { return a.state }

// Text returns the response text assembled so far.
func (a *Accumulator) Text() string { return a.text.String() }

// Err returns the terminal error, if the stream errored.
func (a *Accumulator) Err() error { return a.err }

// Feed processes one chunk of raw stream bytes. Complete lines are handled
// immediately; a trailing partial line is buffered for the next call.
func (a *Accumulator) Feed(chunk []byte) {
	if a.state == StateCompleted || a.state == StateErrored {
		return
	}
	if a.state == StateIdle && len(chunk) > 0 {
		a.state = StateStreaming
	}

	a.buf.Write(chunk)

	for {
		buffered := a.buf.String()
		idx := strings.IndexByte(buffered, '\n')
		if idx < 0 {
			return
		}
		line := buffered[:idx]
		a.buf.Reset()
		a.buf.WriteString(buffered[idx+1:])

		a.handleLine(line)
		if a.state == StateCompleted || a.state == StateErrored {
			return
		}
	}
}

// handleLine interprets one SSE line. Comment lines (pings) and anything that
// is not a parseable data frame are skipped; a malformed frame must never
// kill an otherwise healthy stream.
func (a *Accumulator) handleLine(line string) {
	line = strings.TrimRight(line, "\r")
	if line == "" || strings.HasPrefix(line, ":") {
		return
	}

	payload, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return
	}

	var ev event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return
	}

	switch {
	case ev.Error != "":
		a.state = StateErrored
		a.err = errors.New(ev.Error)
	case ev.Done:
		a.state = StateCompleted
	case ev.Delta != "":
		if a.onDelta != nil {
			a.onDelta(ev.Delta)
		}
		a.text.WriteString(ev.Delta)
	}
}

// Finish marks the end of input. A stream that ends without a done or error
// event was interrupted, and the partial text is kept for inspection.
func (a *Accumulator) Finish() error {
	switch a.state {
	case StateCompleted:
		return nil
	case StateErrored:
		return a.err
	default:
		a.state = StateErrored
		a.err = domain.ErrStreamInterrupted
		return a.err
	}
}

// Consume reads r to exhaustion, feeding every chunk, and returns the final
// text. Cancelling ctx aborts with ErrCancelled; the stream never reports
// completion in that case.
func (a *Accumulator) Consume(ctx context.Context, r io.Reader) (string, error) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			a.state = StateErrored
			a.err = domain.ErrCancelled
			return a.Text(), a.err
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			a.Feed(buf[:n])
			if a.state == StateCompleted || a.state == StateErrored {
				return a.Text(), a.err
			}
		}
		if err != nil {
			if err == io.EOF {
				return a.Text(), a.Finish()
			}
			a.state = StateErrored
			a.err = fmt.Errorf("%w: %v", domain.ErrStreamInterrupted, err)
			return a.Text(), a.err
		}
	}
}
