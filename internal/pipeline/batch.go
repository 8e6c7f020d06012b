package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Entry is the result of one item of a batch.
type Entry[T any] struct {
	Key   string
	Value T
}

// Entries holds batch results in the order the keys were given.
type Entries[T any] []Entry[T]

// Map returns the entries keyed by name.
func (e Entries[T]) Map() map[string]T {
	m := make(map[string]T, len(e))
	for _, entry := range e {
		m[entry.Key] = entry.Value
	}
	return m
}

// BatchError reports every item of a batch operation that failed.
type BatchError struct {
	Op   string
	Errs []error
}

func (e *BatchError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("%s: %v", e.Op, e.Errs[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d errors:", e.Op, len(e.Errs))
	for _, err := range e.Errs {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *BatchError) Unwrap() []error {
	return e.Errs
}

// Run calls fn for every key on at most workers goroutines (unbounded when
// workers < 1). Every key is run even when others fail. Results and errors
// keep the order of keys whatever order the calls finish in.
func Run[T any](op string, keys []string, workers int, fn func(key string) (T, error)) (Entries[T], error) {
	values := make([]T, len(keys))
	errs := make([]error, len(keys))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, key := range keys {
		g.Go(func() error {
			values[i], errs[i] = fn(key)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	entries := make(Entries[T], 0, len(keys))
	for i, key := range keys {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		entries = append(entries, Entry[T]{Key: key, Value: values[i]})
	}
	if len(failed) > 0 {
		return nil, &BatchError{Op: op, Errs: failed}
	}
	return entries, nil
}
