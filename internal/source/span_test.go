package source

import (
	"testing"
)

func TestSpan_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a    Span
		b    Span
		want bool
	}{
		{
			name: "disjoint spans",
			a:    Span{File: 1, Start: 0, End: 5},
			b:    Span{File: 1, Start: 5, End: 10},
			want: false,
		},
		{
			name: "partial overlap",
			a:    Span{File: 1, Start: 0, End: 6},
			b:    Span{File: 1, Start: 5, End: 10},
			want: true,
		},
		{
			name: "nested span",
			a:    Span{File: 1, Start: 0, End: 20},
			b:    Span{File: 1, Start: 5, End: 10},
			want: true,
		},
		{
			name: "identical spans",
			a:    Span{File: 1, Start: 3, End: 7},
			b:    Span{File: 1, Start: 3, End: 7},
			want: true,
		},
		{
			name: "different files never overlap",
			a:    Span{File: 1, Start: 0, End: 10},
			b:    Span{File: 2, Start: 0, End: 10},
			want: false,
		},
		{
			name: "empty span overlaps nothing",
			a:    Span{File: 1, Start: 5, End: 5},
			b:    Span{File: 1, Start: 0, End: 10},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestSpan_Contains(t *testing.T) {
	outer := Span{File: 1, Start: 2, End: 10}

	if !outer.Contains(Span{File: 1, Start: 2, End: 10}) {
		t.Error("span should contain itself")
	}
	if !outer.Contains(Span{File: 1, Start: 4, End: 6}) {
		t.Error("span should contain nested span")
	}
	if outer.Contains(Span{File: 1, Start: 0, End: 5}) {
		t.Error("span should not contain span extending left")
	}
	if outer.Contains(Span{File: 2, Start: 4, End: 6}) {
		t.Error("span should not contain span from another file")
	}
}

func TestSpan_Cover(t *testing.T) {
	a := Span{File: 1, Start: 5, End: 10}
	b := Span{File: 1, Start: 2, End: 7}

	got := a.Cover(b)
	want := Span{File: 1, Start: 2, End: 10}
	if got != want {
		t.Errorf("Cover = %v, want %v", got, want)
	}

	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Errorf("Cover across files should keep receiver, got %v", got)
	}
}
