package snippet

import (
	"reflect"
	"testing"
)

func TestReverseGraph(t *testing.T) {
	snips := []*Snippet{
		static("base", "root"),
		static("mid", "uses @base"),
		generated("gen", "prompt uses @base and @mid", "old output with @ignored"),
	}

	graph := ReverseGraph(snips)

	if !graph["base"]["mid"] || !graph["base"]["gen"] {
		t.Errorf("graph[base] = %v, want mid and gen as dependents", graph["base"])
	}
	if !graph["mid"]["gen"] {
		t.Errorf("graph[mid] = %v, want gen as dependent", graph["mid"])
	}
	// Generated content is not a dependency source.
	if graph["ignored"] != nil {
		t.Errorf("graph[ignored] = %v, generated content must not contribute edges", graph["ignored"])
	}
}

func TestDependents_TransitiveClosure(t *testing.T) {
	snips := []*Snippet{
		static("base", "root"),
		static("a", "direct @base"),
		static("b", "indirect @a"),
		generated("c", "prompt via @b", ""),
		static("unrelated", "nothing"),
	}

	got := Dependents("base", snips)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dependents(base) = %v, want %v", got, want)
	}
}

func TestDependents_ExcludesTrigger(t *testing.T) {
	snips := []*Snippet{
		static("base", "root"),
		static("a", "@base"),
	}

	for _, dep := range Dependents("base", snips) {
		if dep == "base" {
			t.Error("Dependents() included the trigger without a cycle")
		}
	}
}

func TestDependents_CycleLoopsBackToTrigger(t *testing.T) {
	snips := []*Snippet{
		static("a", "@b"),
		static("b", "@a"),
	}

	got := Dependents("a", snips)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dependents(a) = %v, want %v (cycle loops back)", got, want)
	}
}

func TestDependents_NoDependents(t *testing.T) {
	snips := []*Snippet{static("lonely", "no one references me")}
	if got := Dependents("lonely", snips); got != nil {
		t.Errorf("Dependents(lonely) = %v, want nil", got)
	}
}
