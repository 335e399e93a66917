package workflow

import (
	"encoding/json"
	"sort"
	"sync"
)

// State is the run-scoped accumulator of stage outputs. It holds the typed
// value stored by each stage plus a raw JSON mirror kept for observability.
// Writes are serialized by pipeline ordering; fan-out members write disjoint
// keys, so the mutex only guards map access during a group merge and
// concurrent read-side inspection.
//
// A State belongs to exactly one run and is discarded when the run's report
// has been assembled.
type State struct {
	runID string
	input string

	mu       sync.RWMutex
	values   map[string]any
	raw      map[string]json.RawMessage
	failures map[string]error
}

func NewState(runID, input string) *State {
	return &State{
		runID:    runID,
		input:    input,
		values:   make(map[string]any),
		raw:      make(map[string]json.RawMessage),
		failures: make(map[string]error),
	}
}

func (s *State) RunID() string { return s.runID }

// Input returns the run's original aggregate document text.
func (s *State) Input() string { return s.input }

// Set stores a stage output under its key. A later write to the same key
// overwrites the earlier one. The raw mirror records the JSON form of the
// value; values that cannot marshal are kept typed-only.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	delete(s.failures, key)
	if b, err := json.Marshal(value); err == nil {
		s.raw[key] = b
	}
}

// SetRaw records stage output in the raw mirror only. Used for output that
// failed schema validation: it never enters the typed contract but remains
// inspectable.
func (s *State) SetRaw(key string, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[key] = raw
}

// RecordFailure marks a stage's key as failed. The key stays absent from the
// typed values.
func (s *State) RecordFailure(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key] = err
}

// Value returns the typed output stored under key.
func (s *State) Value(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys with typed outputs, sorted.
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Failures returns a copy of the per-key failure map.
func (s *State) Failures() map[string]error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]error, len(s.failures))
	for k, v := range s.failures {
		out[k] = v
	}
	return out
}

// Raw returns a copy of the raw JSON mirror.
func (s *State) Raw() map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(s.raw))
	for k, v := range s.raw {
		out[k] = v
	}
	return out
}

// View returns a read-only projection of the state frozen at call time.
// Stages in a fan-out group all receive the same view and cannot observe
// each other's output.
func (s *State) View() *View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make(map[string]any, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return &View{runID: s.runID, input: s.input, values: values}
}

// Get returns the output under key if it has the expected type. Stage
// outputs are stored as pointers to their result structs.
func Get[T any](s *State, key string) (*T, bool) {
	v, ok := s.Value(key)
	if !ok {
		return nil, false
	}
	t, ok := v.(*T)
	return t, ok
}

// View is an immutable projection of run state handed to stages. It carries
// the run's original input text plus the outputs of all prior pipeline
// positions.
type View struct {
	runID  string
	input  string
	values map[string]any
}

func (v *View) RunID() string { return v.runID }

func (v *View) Input() string { return v.input }

func (v *View) Get(key string) (any, bool) {
	val, ok := v.values[key]
	return val, ok
}

// ViewGet returns the typed output under key from a view.
func ViewGet[T any](v *View, key string) (*T, bool) {
	val, ok := v.values[key]
	if !ok {
		return nil, false
	}
	t, ok := val.(*T)
	return t, ok
}
