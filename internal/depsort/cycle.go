package depsort

import "slices"

// Cycles returns every dependency cycle in graph.
//
// Each cycle is reported as a closed path that starts and ends at the same
// node, for example ["a", "b", "a"]. A node that depends on itself yields
// ["a", "a"]. Edges to nodes outside the graph are ignored. An acyclic graph
// returns an empty slice.
//
// The algorithm:
//  1. Find strongly connected components with Tarjan's algorithm
//  2. Keep components with more than one node, or a single self-dependent node
//  3. Reconstruct one closed path through each kept component
func Cycles(graph map[string][]string) [][]string {
	cycles := [][]string{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, reconstructCyclePath(scc, graph))
		}
	}
	return cycles
}

// hasSelfLoop checks if a node depends on itself.
func hasSelfLoop(node string, graph map[string][]string) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in lexical order so the result is stable across runs.
// Single-node components without self-loops are NOT cycles.
func tarjanSCC(graph map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, ok := graph[w]; !ok {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of a component: pop it off the stack.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range sortedKeys(graph) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath builds a closed path through a component.
//
// Starts at the first node and follows edges to unvisited members until it
// can step back to the start.
func reconstructCyclePath(scc []string, graph map[string][]string) []string {
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
