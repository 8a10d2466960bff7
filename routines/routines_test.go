package routines

import (
	"testing"

	"typeset/content"
)

func TestEmptyRoutinesHasNilFields(t *testing.T) {
	r := Empty()
	if r.EvalModule != nil || r.EvalContextual != nil || r.Realize != nil || r.Locate != nil {
		t.Fatal("expected Empty() to leave every hook nil until a stage wires it")
	}
}

func TestRoutinesFieldsAreCallableOnceAssigned(t *testing.T) {
	r := Empty()
	called := false
	r.Locate = func(c *content.Content) (uint64, bool) {
		called = true
		return 0, false
	}
	if _, ok := r.Locate(nil); ok {
		t.Fatal("expected the stub to report not-found")
	}
	if !called {
		t.Fatal("expected the assigned hook to have been invoked")
	}
}
