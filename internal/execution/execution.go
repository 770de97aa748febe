// Package execution defines the DOM execution contract the resolution
// pipeline hands its results to, with a recording implementation for
// tests and dry runs and a headless-browser implementation.
package execution

import (
	"context"
	"sync"

	"github.com/jonathan/autofill-agent/internal/types"
)

// Executor writes one resolved value into the DOM. Implementations
// report success=false for controls they could not locate or set; they
// only return an error for infrastructure failures.
type Executor interface {
	Fill(ctx context.Context, selector, value string, confidence float64, meta types.Field) (bool, error)
}

// FillRecord is one recorded fill call.
type FillRecord struct {
	Selector   string
	Value      string
	Confidence float64
	Field      types.Field
}

// Recorder is an Executor that records fills instead of touching a DOM.
type Recorder struct {
	mu    sync.Mutex
	fills []FillRecord
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Fill records the call and reports success.
func (r *Recorder) Fill(_ context.Context, selector, value string, confidence float64, meta types.Field) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fills = append(r.fills, FillRecord{Selector: selector, Value: value, Confidence: confidence, Field: meta})
	return true, nil
}

// Fills returns a copy of the recorded calls in order.
func (r *Recorder) Fills() []FillRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FillRecord, len(r.fills))
	copy(out, r.fills)
	return out
}
