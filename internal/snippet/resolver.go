package snippet

import (
	"fmt"
	"sort"
	"strings"
)

// MissingError reports a reference to a name absent from the collection.
type MissingError struct {
	Name string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("Snippet '@%s' not found.", e.Name)
}

// CycleError reports a reference chain that returns to an earlier snippet.
// Path lists the names in visitation order, first and last entries equal.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("Reference cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Resolve substitutes every @name token in text with the named snippet's
// stored content, recursing into non-generated content that itself contains
// references. Generated content is treated as final text and is not
// rescanned. A missing target or a reference cycle is fatal.
//
// Callers validating an unsaved edit should overlay the draft into byName
// before calling, so resolution reflects what is about to be saved.
func Resolve(text string, byName map[string]*Snippet) (string, error) {
	return resolveText(text, byName, nil)
}

func resolveText(text string, byName map[string]*Snippet, path []string) (string, error) {
	matches := refPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		last = m[1]

		name := text[m[2]:m[3]]
		target, ok := byName[name]
		if !ok {
			return "", &MissingError{Name: name}
		}
		if i := indexOf(path, name); i >= 0 {
			return "", &CycleError{Path: append(append([]string{}, path[i:]...), name)}
		}

		if target.Generated {
			// Generated output is opaque; substitute as-is.
			b.WriteString(target.Content)
			continue
		}

		resolved, err := resolveText(target.Content, byName, append(path, name))
		if err != nil {
			return "", err
		}
		b.WriteString(resolved)
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// ValidateNoCycles walks the dependency edges reachable from text (the
// defining text of each referenced snippet: prompt if generated, content
// otherwise) and fails with a CycleError if any chain revisits a snippet.
// Missing targets are skipped; FindMissing reports those separately.
func ValidateNoCycles(text string, byName map[string]*Snippet) error {
	return walkCycles(text, byName, nil)
}

func walkCycles(text string, byName map[string]*Snippet, path []string) error {
	for _, name := range ExtractReferences(text) {
		target, ok := byName[name]
		if !ok {
			continue
		}
		if i := indexOf(path, name); i >= 0 {
			return &CycleError{Path: append(append([]string{}, path[i:]...), name)}
		}
		if err := walkCycles(target.Source(), byName, append(path, name)); err != nil {
			return err
		}
	}
	return nil
}

// FindMissing returns every name referenced from text, directly or through
// intermediate snippets, that has no target in the collection. Non-throwing
// counterpart to Resolve's missing-target error, for validation UIs.
func FindMissing(text string, byName map[string]*Snippet) []string {
	missing := make(map[string]bool)
	visited := make(map[string]bool)
	collectMissing(text, byName, visited, missing)

	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectMissing(text string, byName map[string]*Snippet, visited, missing map[string]bool) {
	for _, name := range ExtractReferences(text) {
		target, ok := byName[name]
		if !ok {
			missing[name] = true
			continue
		}
		if visited[name] {
			continue
		}
		visited[name] = true
		collectMissing(target.Source(), byName, visited, missing)
	}
}

func indexOf(path []string, name string) int {
	for i, p := range path {
		if p == name {
			return i
		}
	}
	return -1
}
