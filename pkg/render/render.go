// Package render reveals a completed reply word by word with
// punctuation-aware pacing. It emits plain text through callbacks; how the
// text is displayed is the caller's concern.
package render

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Delay tiers in units, derived from the word just revealed.
const (
	delaySentence = 300 // ends with . ! ?
	delayClause   = 150 // ends with , ; :
	delayLongWord = 80  // longer than longWordLen runes
	delayBase     = 50

	longWordLen = 6
)

// DelayUnits returns the pacing delay, in units, applied after revealing the
// given word.
func DelayUnits(word string) int {
	last, _ := utf8.DecodeLastRuneInString(word)
	switch last {
	case '.', '!', '?':
		return delaySentence
	case ',', ';', ':':
		return delayClause
	}
	if utf8.RuneCountInString(word) > longWordLen {
		return delayLongWord
	}
	return delayBase
}

// Renderer creates reveals. The unit scales all delay tiers so tests and
// non-interactive callers can run instantly; the cursor marker is appended
// to every partial update.
type Renderer struct {
	unit   time.Duration
	cursor string
}

type Option func(*Renderer)

// WithUnit sets the duration of one delay unit.
func WithUnit(d time.Duration) Option {
	return func(r *Renderer) {
		r.unit = d
	}
}

// WithCursor sets the transient cursor marker.
func WithCursor(cursor string) Option {
	return func(r *Renderer) {
		r.cursor = cursor
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{
		unit:   time.Millisecond,
		cursor: "|",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reveal is the handle of one running reveal. Each call to Renderer.Reveal
// returns an independent handle; concurrent reveals do not share state.
type Reveal struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Stop abandons the reveal. No further callback fires once the running
// reveal observes the stop.
func (x *Reveal) Stop() {
	x.stopOnce.Do(func() { close(x.stop) })
}

// Done is closed when the reveal finishes or is abandoned.
func (x *Reveal) Done() <-chan struct{} {
	return x.done
}

// Reveal starts revealing text word by word. After each word, onUpdate
// receives the joined prefix plus the cursor marker; when every word has
// been revealed, onDone receives the original text verbatim. Callbacks run
// on the reveal's own goroutine.
func (r *Renderer) Reveal(ctx context.Context, text string, onUpdate func(string), onDone func(string)) *Reveal {
	x := &Reveal{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	words := strings.Fields(text)

	go func() {
		defer close(x.done)

		for i, word := range words {
			select {
			case <-ctx.Done():
				return
			case <-x.stop:
				return
			default:
			}

			onUpdate(strings.Join(words[:i+1], " ") + r.cursor)

			timer := time.NewTimer(time.Duration(DelayUnits(word)) * r.unit)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-x.stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		onDone(text)
	}()

	return x
}
