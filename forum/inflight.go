package forum

import (
	"sort"
	"sync"
)

// InFlight is a set of targets with an operation running.
type InFlight struct {
	mu  sync.Mutex
	set map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{set: make(map[string]struct{})}
}

// Acquire marks target busy; false means it already was.
func (f *InFlight) Acquire(target string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.set[target]; ok {
		return false
	}
	f.set[target] = struct{}{}
	return true
}

func (f *InFlight) Release(target string) {
	f.mu.Lock()
	delete(f.set, target)
	f.mu.Unlock()
}

func (f *InFlight) Has(target string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.set[target]
	return ok
}

// Active lists busy targets in sorted order.
func (f *InFlight) Active() []string {
	f.mu.Lock()
	out := make([]string, 0, len(f.set))
	for t := range f.set {
		out = append(out, t)
	}
	f.mu.Unlock()
	sort.Strings(out)
	return out
}
