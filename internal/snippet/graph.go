package snippet

import "sort"

// ReverseGraph maps each snippet name to the set of snippet names whose
// defining text references it. The graph is derived, never stored: it is
// rebuilt from the full collection on every propagation pass.
func ReverseGraph(snips []*Snippet) map[string]map[string]bool {
	graph := make(map[string]map[string]bool)
	for _, s := range snips {
		for _, ref := range ExtractReferences(s.Source()) {
			dependents, ok := graph[ref]
			if !ok {
				dependents = make(map[string]bool)
				graph[ref] = dependents
			}
			dependents[s.Name] = true
		}
	}
	return graph
}

// Dependents returns every snippet name that transitively depends on
// changed, in sorted order. The changed snippet itself is excluded unless a
// reference cycle loops back to it.
func Dependents(changed string, snips []*Snippet) []string {
	graph := ReverseGraph(snips)

	collected := make(map[string]bool)
	queue := []string{changed}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for dep := range graph[name] {
			if !collected[dep] {
				collected[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	if len(collected) == 0 {
		return nil
	}
	names := make([]string, 0, len(collected))
	for name := range collected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
