package mock

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var equateEmpty = cmpopts.EquateEmpty()

// AssertCalledWith fails tb unless the most recent call used exactly args.
func (h *Handle) AssertCalledWith(tb testing.TB, args ...any) bool {
	tb.Helper()

	calls := h.Calls()
	if len(calls) == 0 {
		tb.Errorf("%s: expected call(%v), not called", h.name, args)
		return false
	}

	last := calls[len(calls)-1]
	if diff := cmp.Diff(NewCall(args...), last, equateEmpty); diff != "" {
		tb.Errorf("%s: last call mismatch (-want +got):\n%s", h.name, diff)
		return false
	}
	return true
}

// AssertHasCalls fails tb unless calls appear as a contiguous run in the
// recorded call list.
func (h *Handle) AssertHasCalls(tb testing.TB, calls ...Call) bool {
	tb.Helper()

	recorded := h.Calls()
	for start := 0; start+len(calls) <= len(recorded); start++ {
		if cmp.Equal(calls, recorded[start:start+len(calls)], equateEmpty) {
			return true
		}
	}

	tb.Errorf("%s: calls not found (-want +got):\n%s", h.name, cmp.Diff(calls, recorded, equateEmpty))
	return false
}

// AssertNotCalled fails tb if the handle was called.
func (h *Handle) AssertNotCalled(tb testing.TB) bool {
	tb.Helper()

	if n := h.CallCount(); n > 0 {
		tb.Errorf("%s: expected no calls, got %d: %v", h.name, n, h.Calls())
		return false
	}
	return true
}
