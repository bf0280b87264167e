package language

import "testing"

func TestNewQuerySet(t *testing.T) {
	qs, err := NewQuerySet()
	if err != nil {
		t.Fatal(err)
	}
	// Shared scopes intern to one capture across both grammars.
	for _, name := range []string{"keyword", "string", "number", "property", "constant.builtin"} {
		if _, ok := qs.CaptureIndex(name); !ok {
			t.Errorf("no %q capture in the combined set", name)
		}
	}
}

func TestAllLanguagesCompile(t *testing.T) {
	for _, lang := range All() {
		if lang.Grammar == nil {
			t.Errorf("%s: nil grammar", lang.Name)
		}
		if lang.Highlights == "" {
			t.Errorf("%s: empty highlight query", lang.Name)
		}
	}
}
