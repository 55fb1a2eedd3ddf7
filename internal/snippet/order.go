package snippet

import "sort"

// Order is the result of a topological sort over a snippet collection.
type Order struct {
	// Ordered holds every non-cyclic snippet, each placed after all
	// snippets it references.
	Ordered []*Snippet

	// Cyclic lists the names of snippets caught in a reference cycle, in
	// sorted order. They cannot be scheduled and stay dirty until a user
	// edit breaks the cycle.
	Cyclic []string
}

// TopologicalOrder sorts the collection so producers come before consumers,
// using references extracted from each snippet's defining text as edges.
// Edges to names absent from the collection are ignored; missing targets
// are a resolution concern, not an ordering one. Snippets participating in
// a cycle are segregated into Cyclic and excluded from Ordered.
//
// The collection is rebuilt and re-sorted from scratch on every pass.
// Collections are small (tens of snippets), so clarity wins over
// incremental bookkeeping here.
func TopologicalOrder(snips []*Snippet) Order {
	byName := ByName(snips)

	// Forward edges restricted to names present in the collection.
	deps := make(map[string][]string, len(snips))
	for _, s := range snips {
		var refs []string
		for _, ref := range ExtractReferences(s.Source()) {
			if _, ok := byName[ref]; ok {
				refs = append(refs, ref)
			}
		}
		deps[s.Name] = refs
	}

	cyclic := cyclicNames(deps)

	// Kahn's algorithm over the non-cyclic subgraph. Edges touching a
	// cyclic snippet are dropped so snippets downstream of a cycle are
	// still placed.
	indegree := make(map[string]int, len(deps))
	forward := make(map[string][]string, len(deps))
	for name, refs := range deps {
		if cyclic[name] {
			continue
		}
		indegree[name] += 0
		for _, ref := range refs {
			if cyclic[ref] {
				continue
			}
			indegree[name]++
			forward[ref] = append(forward[ref], name)
		}
	}

	var ready []string
	for name, d := range indegree {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	ordered := make([]*Snippet, 0, len(indegree))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byName[name])

		var unlocked []string
		for _, dep := range forward[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				unlocked = append(unlocked, dep)
			}
		}
		// Sorted insertion keeps the order deterministic across passes.
		sort.Strings(unlocked)
		ready = append(ready, unlocked...)
	}

	var cyclicList []string
	for name := range cyclic {
		cyclicList = append(cyclicList, name)
	}
	sort.Strings(cyclicList)

	return Order{Ordered: ordered, Cyclic: cyclicList}
}

// cyclicNames returns the set of names reachable from themselves via deps.
func cyclicNames(deps map[string][]string) map[string]bool {
	cyclic := make(map[string]bool)
	for name := range deps {
		if reachable(deps, name, name, make(map[string]bool)) {
			cyclic[name] = true
		}
	}
	return cyclic
}

func reachable(deps map[string][]string, from, target string, seen map[string]bool) bool {
	for _, ref := range deps[from] {
		if ref == target {
			return true
		}
		if !seen[ref] {
			seen[ref] = true
			if reachable(deps, ref, target, seen) {
				return true
			}
		}
	}
	return false
}
