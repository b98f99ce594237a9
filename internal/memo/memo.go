// Package memo records which mock symbols have been installed on a context
// so each installer runs at most once, and lets a mask veto installation.
package memo

import (
	"slices"
	"sync"
)

// State is the per-context memo of installed mocks.
type State struct {
	mu     sync.Mutex
	mocked map[string]bool
	mask   map[string]struct{}
}

// NewState returns a State whose mask holds the given symbols.
func NewState(mask ...string) *State {
	s := &State{
		mocked: make(map[string]bool),
		mask:   make(map[string]struct{}),
	}
	s.Mask(mask...)
	return s
}

// Mask adds symbols to the mask. Masked symbols are never installed.
func (s *State) Mask(symbols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, symbol := range symbols {
		s.mask[symbol] = struct{}{}
	}
}

// Masked reports whether symbol is masked.
func (s *State) Masked(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mask[symbol]
	return ok
}

// MaskList returns the masked symbols in sorted order.
func (s *State) MaskList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.mask))
	for symbol := range s.mask {
		out = append(out, symbol)
	}
	slices.Sort(out)
	return out
}

// Mocked returns the recorded flag for symbol and whether one exists. A
// masked symbol is recorded as false the first time an installer is
// attempted for it.
func (s *State) Mocked(symbol string) (mocked, recorded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mocked, recorded = s.mocked[symbol]
	return mocked, recorded
}

// Set records the flag for symbol directly.
func (s *State) Set(symbol string, mocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mocked[symbol] = mocked
}

// Once runs install unless symbol is masked or already installed.
//
// It returns true when the symbol is installed, either now or earlier, and
// false when it is masked. install runs without the lock held so it may
// consult the state for other symbols.
func (s *State) Once(symbol string, install func()) bool {
	s.mu.Lock()
	if _, masked := s.mask[symbol]; masked {
		s.mocked[symbol] = false
		s.mu.Unlock()
		return false
	}
	if s.mocked[symbol] {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	install()

	s.Set(symbol, true)
	return true
}

// Owner is implemented by anything that carries a State, typically a test
// context.
type Owner interface {
	MockState() *State
}

// Wrap turns an installer into a memoized mocker for symbol.
//
// The returned function installs at most once per owner, never installs a
// masked symbol, and reports whether the symbol is mocked.
func Wrap[T Owner](symbol string, install func(T)) func(T) bool {
	return func(owner T) bool {
		return owner.MockState().Once(symbol, func() { install(owner) })
	}
}
