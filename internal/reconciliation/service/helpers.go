package service

import (
	"strings"
	"time"

	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
)

// orderedIndex keeps first-insertion order while letting later records with the
// same key replace the stored value.
type orderedIndex[T any] struct {
	keys   []string
	values map[string]T
}

func newOrderedIndex[T any](capacity int) *orderedIndex[T] {
	return &orderedIndex[T]{
		keys:   make([]string, 0, capacity),
		values: make(map[string]T, capacity),
	}
}

func (idx *orderedIndex[T]) set(key string, value T) {
	if _, ok := idx.values[key]; !ok {
		idx.keys = append(idx.keys, key)
	}
	idx.values[key] = value
}

func (idx *orderedIndex[T]) get(key string) (T, bool) {
	v, ok := idx.values[key]
	return v, ok
}

func (idx *orderedIndex[T]) has(key string) bool {
	_, ok := idx.values[key]
	return ok
}

func indexLifecycle(users []recondomain.LifecycleUser) *orderedIndex[recondomain.LifecycleUser] {
	idx := newOrderedIndex[recondomain.LifecycleUser](len(users))
	for _, u := range users {
		if key := u.IdentityKey(); key != "" {
			idx.set(key, u)
		}
	}
	return idx
}

func indexRoster(users []recondomain.RosterUser) *orderedIndex[recondomain.RosterUser] {
	idx := newOrderedIndex[recondomain.RosterUser](len(users))
	for _, u := range users {
		if key := u.IdentityKey(); key != "" {
			idx.set(key, u)
		}
	}
	return idx
}

func identitySet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func prorate(daysActive, daysInMonth int, rate float64) float64 {
	if daysInMonth <= 0 {
		return 0
	}
	return (float64(daysActive) / float64(daysInMonth)) * rate
}

func datePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func copyAttributes(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
