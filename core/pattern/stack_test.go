package pattern

import (
	"testing"

	"github.com/chordcue/chordcue/core/song"
)

func TestStackIdentity(t *testing.T) {
	flat := Expand(mustCompile(t, "[A;G]3"))
	stacked := Stack(flat, song.SectionModifiers{Repeat: 1})
	if len(stacked) != 6 {
		t.Fatalf("stacked length = %d, want 6", len(stacked))
	}
	a := measure(t, "A")
	g := measure(t, "G")
	for i := 0; i < len(stacked); i += 2 {
		if !stacked[i].Equal(a) || !stacked[i+1].Equal(g) {
			t.Errorf("measures[%d:%d] not alternating A, G", i, i+2)
		}
	}
}

func TestStackRepeat(t *testing.T) {
	flat := Expand(mustCompile(t, "A;G"))
	stacked := Stack(flat, song.SectionModifiers{Repeat: 3})
	if len(stacked) != 6 {
		t.Fatalf("stacked length = %d, want 6", len(stacked))
	}
	// Repeat concatenates the already-expanded list.
	if !stacked[2].Equal(measure(t, "A")) || !stacked[5].Equal(measure(t, "G")) {
		t.Error("repeat did not concatenate full copies")
	}
}

func TestStackCuts(t *testing.T) {
	tests := []struct {
		name string
		mods song.SectionModifiers
		want []string
	}{
		{
			name: "cut start whole measures",
			mods: song.SectionModifiers{CutStart: song.BeatCut{Measures: 1}},
			want: []string{"G", "C", "D"},
		},
		{
			name: "cut start with partial beats consumes extra slot",
			mods: song.SectionModifiers{CutStart: song.BeatCut{Measures: 1, Beats: 2}},
			want: []string{"C", "D"},
		},
		{
			name: "cut end",
			mods: song.SectionModifiers{CutEnd: song.BeatCut{Measures: 2}},
			want: []string{"A", "G"},
		},
		{
			name: "cut both ends",
			mods: song.SectionModifiers{CutStart: song.BeatCut{Measures: 1}, CutEnd: song.BeatCut{Measures: 1}},
			want: []string{"G", "C"},
		},
		{
			name: "cut exceeding length empties the list",
			mods: song.SectionModifiers{CutStart: song.BeatCut{Measures: 9}},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat := Expand(mustCompile(t, "A;G;C;D"))
			stacked := Stack(flat, tt.mods)
			if len(stacked) != len(tt.want) {
				t.Fatalf("stacked length = %d, want %d", len(stacked), len(tt.want))
			}
			for i, root := range tt.want {
				if !stacked[i].Equal(measure(t, root)) {
					t.Errorf("measure[%d] = %q, want %q", i, stacked[i], root)
				}
			}
		})
	}
}

func TestStackSplices(t *testing.T) {
	flat := Expand(mustCompile(t, "G;C"))
	mods := song.SectionModifiers{
		Before: mustCompile(t, "A"),
		After:  mustCompile(t, "[D]2"),
	}
	stacked := Stack(flat, mods)
	want := []string{"A", "G", "C", "D", "D"}
	if len(stacked) != len(want) {
		t.Fatalf("stacked length = %d, want %d", len(stacked), len(want))
	}
	for i, root := range want {
		if !stacked[i].Equal(measure(t, root)) {
			t.Errorf("measure[%d] = %q, want %q", i, stacked[i], root)
		}
	}
}

// Cuts apply to the repeated list before splices attach, so a front cut
// never eats into a before pattern.
func TestStackOrderOfOperations(t *testing.T) {
	flat := Expand(mustCompile(t, "G;C"))
	mods := song.SectionModifiers{
		Repeat:   2,
		CutStart: song.BeatCut{Measures: 1},
		Before:   mustCompile(t, "A"),
	}
	stacked := Stack(flat, mods)
	want := []string{"A", "C", "G", "C"}
	if len(stacked) != len(want) {
		t.Fatalf("stacked length = %d, want %d", len(stacked), len(want))
	}
	for i, root := range want {
		if !stacked[i].Equal(measure(t, root)) {
			t.Errorf("measure[%d] = %q, want %q", i, stacked[i], root)
		}
	}
}
