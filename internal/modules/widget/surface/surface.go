// Package surface holds the output sinks the widget writes its text into.
package surface

import "sync"

// Sink is a display target whose whole content is replaced on every write.
type Sink interface {
	SetText(value string)
}

// Surfaces are the widget's three targets: the temperature label, the
// condition label and the message line used for errors.
type Surfaces struct {
	Temperature Sink
	Status      Sink
	Message     Sink
}

// Buffer keeps the last text written to it.
type Buffer struct {
	mu     sync.RWMutex
	text   string
	writes int
}

func (b *Buffer) SetText(value string) {
	b.mu.Lock()
	b.text = value
	b.writes++
	b.mu.Unlock()
}

func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Writes counts SetText calls.
func (b *Buffer) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}

// Buffers is a Surfaces backed by three Buffers, kept typed so callers can
// read the texts back after a run.
type Buffers struct {
	Temperature Buffer
	Status      Buffer
	Message     Buffer
}

func (b *Buffers) Surfaces() Surfaces {
	return Surfaces{Temperature: &b.Temperature, Status: &b.Status, Message: &b.Message}
}

type tee []Sink

// Tee writes every value to each non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t tee) SetText(value string) {
	for _, s := range t {
		s.SetText(value)
	}
}

// Mirror pairs each of primary's sinks with the matching sink of extra.
func Mirror(primary, extra Surfaces) Surfaces {
	return Surfaces{
		Temperature: Tee(primary.Temperature, extra.Temperature),
		Status:      Tee(primary.Status, extra.Status),
		Message:     Tee(primary.Message, extra.Message),
	}
}
