package archive

import (
	"archive/tar"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/chordcue/chordcue/core/prompter"
	"github.com/chordcue/chordcue/core/songcode"
)

func compiledSong(t *testing.T, id, source string) SetlistSong {
	t.Helper()
	doc, err := songcode.Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := prompter.Build(doc); err != nil {
		t.Fatalf("Build: %v", err)
	}
	doc.ID = id
	return SetlistSong{
		ID:       id,
		Title:    doc.Metadata.Title,
		Artist:   doc.Metadata.Artist,
		Source:   source,
		Document: doc,
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "friday-night.setlist.tar.xz")

	original := &Setlist{
		Name:      "Friday Night",
		CreatedAt: time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
		Songs: []SetlistSong{
			compiledSong(t, "song-1", "title: Opener\n$verse: A;G\n@Verse | verse\n"),
			compiledSong(t, "song-2", "title: Closer\nartist: The Band\n$verse: [C;D]2\n@Verse | verse\n"),
		},
	}

	if err := Pack(path, original); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	got, err := Unpack(path)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got.Name != "Friday Night" || !got.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("manifest = %q at %v", got.Name, got.CreatedAt)
	}
	if len(got.Songs) != 2 {
		t.Fatalf("songs = %d, want 2", len(got.Songs))
	}

	for i, want := range original.Songs {
		s := got.Songs[i]
		if s.ID != want.ID || s.Title != want.Title || s.Artist != want.Artist {
			t.Errorf("song %d = %+v", i, s)
		}
		if s.Source != want.Source {
			t.Errorf("song %d source does not round-trip", i)
		}
		if s.Document == nil {
			t.Fatalf("song %d lost its document", i)
		}
		if len(s.Document.Prompter) != len(want.Document.Prompter) {
			t.Errorf("song %d prompter units = %d, want %d",
				i, len(s.Document.Prompter), len(want.Document.Prompter))
		}
	}
}

func TestPackWithoutDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources-only.setlist.tar.xz")
	setlist := &Setlist{
		Name:      "Sources Only",
		CreatedAt: time.Now(),
		Songs: []SetlistSong{
			{ID: "song-1", Title: "Raw", Source: "title: Raw\n$verse: A\n@Verse | verse\n"},
		},
	}
	if err := Pack(path, setlist); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	got, err := Unpack(path)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got.Songs[0].Document != nil {
		t.Error("document appeared from nowhere")
	}
	if got.Songs[0].Source == "" {
		t.Error("source missing")
	}
}

func TestUnpackPreservesManifestOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ordered.setlist.tar.xz")
	setlist := &Setlist{Name: "Ordered", CreatedAt: time.Now()}
	for _, id := range []string{"zebra", "alpha", "middle"} {
		setlist.Songs = append(setlist.Songs, SetlistSong{ID: id, Title: id, Source: "x"})
	}
	if err := Pack(path, setlist); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, err := Unpack(path)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	for i, id := range []string{"zebra", "alpha", "middle"} {
		if got.Songs[i].ID != id {
			t.Errorf("song %d = %s, want %s", i, got.Songs[i].ID, id)
		}
	}
}

func TestUnpackRequiresManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.setlist.tar.xz")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteEntry("songs/x.code", []byte("title: X")); err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}
	w.Close()

	if _, err := Unpack(path); err == nil {
		t.Error("expected error for archive without manifest")
	}
}

func TestReaderIterate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iter.setlist.tar.xz")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	entries := map[string]string{
		"manifest.json": `{"version":"1","name":"x","songs":[]}`,
		"songs/a.code":  "title: A",
		"songs/b.code":  "title: B",
	}
	for name, data := range entries {
		if err := w.WriteEntry(name, []byte(data)); err != nil {
			t.Fatalf("WriteEntry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	seen := map[string]string{}
	err = IterateArchive(path, func(header *tar.Header, r io.Reader) (bool, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return true, err
		}
		seen[header.Name] = string(data)
		return false, nil
	})
	if err != nil {
		t.Fatalf("IterateArchive: %v", err)
	}
	if len(seen) != len(entries) {
		t.Fatalf("entries = %v", seen)
	}
	for name, data := range entries {
		if seen[name] != data {
			t.Errorf("entry %s = %q", name, seen[name])
		}
	}

	content, err := ReadFile(path, "songs/a.code")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "title: A" {
		t.Errorf("ReadFile = %q", content)
	}
	if _, err := ReadFile(path, "missing"); err == nil {
		t.Error("ReadFile(missing) should fail")
	}
}

func TestExtractSetlistName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"friday.setlist.tar.xz", "friday"},
		{"friday.setlist.tar.gz", "friday"},
		{"plain.tar.xz", "plain"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := ExtractSetlistName(tt.in); got != tt.want {
			t.Errorf("ExtractSetlistName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if IsSupportedFormat("x.zip") {
		t.Error("zip reported as supported")
	}
	if !IsSupportedFormat("x.tar.xz") || !IsSupportedFormat("x.tar.gz") {
		t.Error("tar formats reported unsupported")
	}
	if _, err := NewReader("x.zip"); err == nil {
		t.Error("NewReader should reject unknown extensions")
	}
}
