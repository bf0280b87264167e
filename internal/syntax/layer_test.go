package syntax

import "testing"

func TestForestHandles(t *testing.T) {
	f := NewForest()

	a := f.Insert(Layer{Language: "go"})
	b := f.Insert(Layer{Language: "json"})
	if !a.IsValid() || !b.IsValid() {
		t.Fatal("inserted handles must be valid")
	}
	if a == b {
		t.Fatal("distinct layers share a handle")
	}
	if f.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", f.Len())
	}
	if got := f.Get(b).Language; got != "json" {
		t.Errorf("Get(b).Language = %q, want %q", got, "json")
	}

	if !f.Remove(b) {
		t.Fatal("Remove(b) = false, want true")
	}
	if f.Remove(b) {
		t.Error("second Remove(b) = true, want false")
	}
	if f.Contains(b) {
		t.Error("Contains(b) = true after removal")
	}

	// The slot is reused, but the stale handle must not resolve to the new
	// occupant.
	c := f.Insert(Layer{Language: "yaml"})
	if f.Contains(b) {
		t.Error("stale handle resolves after slot reuse")
	}
	if got := f.Get(c).Language; got != "yaml" {
		t.Errorf("Get(c).Language = %q, want %q", got, "yaml")
	}
}

func TestForestGetStalePanics(t *testing.T) {
	f := NewForest()
	id := f.Insert(Layer{})
	f.Remove(id)

	defer func() {
		if recover() == nil {
			t.Error("Get on a stale handle did not panic")
		}
	}()
	f.Get(id)
}

func TestZeroLayerIDInvalid(t *testing.T) {
	var id LayerID
	if id.IsValid() {
		t.Error("zero LayerID reports valid")
	}
	f := NewForest()
	if f.Contains(id) {
		t.Error("empty forest contains the zero handle")
	}
}

func TestInjectionAt(t *testing.T) {
	f := NewForest()
	childA := f.Insert(Layer{Depth: 1})
	childB := f.Insert(Layer{Depth: 1})
	layer := Layer{
		Injections: []Injection{
			{Range: Range{Start: 10, End: 20}, Layer: childA},
			{Range: Range{Start: 30, End: 40}, Layer: childB},
		},
	}

	tests := []struct {
		name string
		idx  uint
		want *LayerID
	}{
		{"before all", 5, nil},
		{"at first start", 10, &childA},
		{"inside first", 15, &childA},
		{"at first end", 20, nil},
		{"between", 25, nil},
		{"inside second", 35, &childB},
		{"past all", 50, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := layer.InjectionAt(tt.idx)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("InjectionAt(%d) = %v, want nil", tt.idx, got.Layer)
				}
				return
			}
			if got == nil || got.Layer != *tt.want {
				t.Fatalf("InjectionAt(%d) = %v, want %v", tt.idx, got, *tt.want)
			}
		})
	}
}

func TestLayerForByteRange(t *testing.T) {
	// root covers [0,100); child [20,60); grandchild [30,40).
	f := NewForest()
	root := f.Insert(Layer{})
	child := f.Insert(Layer{Depth: 1, Parent: root})
	grand := f.Insert(Layer{Depth: 2, Parent: child})

	f.Get(root).Ranges = []Range{{Start: 0, End: 100}}
	f.Get(root).Injections = []Injection{{Range: Range{Start: 20, End: 60}, Layer: child}}
	f.Get(child).Ranges = []Range{{Start: 20, End: 60}}
	f.Get(child).Injections = []Injection{{Range: Range{Start: 30, End: 40}, Layer: grand}}
	f.Get(grand).Ranges = []Range{{Start: 30, End: 40}}
	f.SetRoot(root)

	tests := []struct {
		name       string
		start, end uint
		want       LayerID
	}{
		{"root only", 5, 10, root},
		{"inside child", 22, 25, child},
		{"inside grandchild", 32, 35, grand},
		{"straddles child boundary", 10, 25, root},
		{"straddles grandchild boundary", 25, 35, child},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.LayerForByteRange(tt.start, tt.end); got != tt.want {
				t.Errorf("LayerForByteRange(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}
