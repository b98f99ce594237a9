// Package depsort orders dependency graphs.
//
// A graph maps each node to the nodes it depends on. TopologicalSort returns
// the nodes so that every node appears after all of its prerequisites, or an
// *UnresolvableError when no such order exists.
package depsort

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnresolvable is matched by every error TopologicalSort returns.
var ErrUnresolvable = errors.New("cycle or unresolvable dependency")

// UnresolvableError describes why a graph could not be ordered.
type UnresolvableError struct {
	// Resolved holds the prefix of the order computed before sorting stalled.
	Resolved []string

	// Remaining lists the nodes that could never be resolved.
	Remaining []string

	// Missing maps a node to the prerequisites it names that are not nodes
	// of the graph.
	Missing map[string][]string

	// Cycles lists the dependency cycles among the remaining nodes.
	Cycles [][]string
}

func (e *UnresolvableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d node(s) unresolved: %s",
		ErrUnresolvable.Error(), len(e.Remaining), strings.Join(e.Remaining, ", "))

	for _, node := range sortedKeys(e.Missing) {
		fmt.Fprintf(&b, "; %s requires missing %s", node, strings.Join(e.Missing[node], ", "))
	}
	for _, cycle := range e.Cycles {
		fmt.Fprintf(&b, "; cycle %s", strings.Join(cycle, " → "))
	}

	return b.String()
}

func (e *UnresolvableError) Unwrap() error {
	return ErrUnresolvable
}

// TopologicalSort returns the nodes of graph ordered so that each node follows
// every one of its prerequisites.
//
// Sorting proceeds in rounds. Each round emits, in lexical order, every
// unresolved node whose prerequisites have all been emitted. A round that
// emits nothing while nodes remain means the graph contains a cycle or a
// prerequisite that is not a node of the graph.
func TopologicalSort(graph map[string][]string) ([]string, error) {
	order := make([]string, 0, len(graph))
	done := make(map[string]bool, len(graph))

	remaining := sortedKeys(graph)
	for len(remaining) > 0 {
		var ready, blocked []string
		for _, node := range remaining {
			if satisfied(graph[node], done) {
				ready = append(ready, node)
			} else {
				blocked = append(blocked, node)
			}
		}

		if len(ready) == 0 {
			return nil, unresolvable(graph, order, blocked)
		}

		for _, node := range ready {
			done[node] = true
		}
		order = append(order, ready...)
		remaining = blocked
	}

	return order, nil
}

// satisfied reports whether every prerequisite has already been emitted.
func satisfied(prerequisites []string, done map[string]bool) bool {
	for _, p := range prerequisites {
		if !done[p] {
			return false
		}
	}
	return true
}

// unresolvable builds the diagnostic error for a stalled sort.
func unresolvable(graph map[string][]string, resolved, remaining []string) *UnresolvableError {
	missing := make(map[string][]string)
	for _, node := range remaining {
		for _, p := range graph[node] {
			if _, ok := graph[p]; !ok && !slices.Contains(missing[node], p) {
				missing[node] = append(missing[node], p)
			}
		}
	}

	sub := make(map[string][]string, len(remaining))
	for _, node := range remaining {
		sub[node] = graph[node]
	}

	return &UnresolvableError{
		Resolved:  resolved,
		Remaining: remaining,
		Missing:   missing,
		Cycles:    Cycles(sub),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
