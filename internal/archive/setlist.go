package archive

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/chordcue/chordcue/core/song"
)

// manifestName is the manifest entry inside a setlist archive.
const manifestName = "manifest.json"

// manifestVersion is written into new setlist manifests.
const manifestVersion = "1"

// Setlist is an ordered collection of compiled songs for one performance.
type Setlist struct {
	Name      string
	CreatedAt time.Time
	Songs     []SetlistSong
}

// SetlistSong is one song of a setlist: its songcode source and, when the
// archive carries one, the compiled document.
type SetlistSong struct {
	ID       string
	Title    string
	Artist   string
	Source   string
	Document *song.Document
}

// manifest is the JSON structure stored in manifest.json.
type manifest struct {
	Version   string         `json:"version"`
	Name      string         `json:"name"`
	CreatedAt string         `json:"created_at"`
	Songs     []manifestSong `json:"songs"`
}

type manifestSong struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// Pack writes the setlist to a tar.xz archive at the given path. Each song
// contributes songs/<id>.code (the source) and songs/<id>.json (the
// compiled document, when present).
func Pack(dstPath string, setlist *Setlist) error {
	w, err := NewWriter(dstPath)
	if err != nil {
		return err
	}
	defer w.Close()

	m := manifest{
		Version:   manifestVersion,
		Name:      setlist.Name,
		CreatedAt: setlist.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, s := range setlist.Songs {
		m.Songs = append(m.Songs, manifestSong{ID: s.ID, Title: s.Title, Artist: s.Artist})
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := w.WriteEntry(manifestName, data); err != nil {
		return err
	}

	for _, s := range setlist.Songs {
		if err := w.WriteEntry("songs/"+s.ID+".code", []byte(s.Source)); err != nil {
			return err
		}
		if s.Document == nil {
			continue
		}
		doc, err := json.Marshal(s.Document)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", s.ID, err)
		}
		if err := w.WriteEntry("songs/"+s.ID+".json", doc); err != nil {
			return err
		}
	}
	return nil
}

// Unpack reads a setlist archive, restoring the manifest order.
func Unpack(archivePath string) (*Setlist, error) {
	var m *manifest
	sources := make(map[string]string)
	documents := make(map[string]*song.Document)

	err := IterateArchive(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		switch {
		case header.Name == manifestName:
			data, err := io.ReadAll(r)
			if err != nil {
				return true, err
			}
			m = &manifest{}
			if err := json.Unmarshal(data, m); err != nil {
				return true, fmt.Errorf("decode manifest: %w", err)
			}

		case strings.HasPrefix(header.Name, "songs/"):
			base := path.Base(header.Name)
			data, err := io.ReadAll(r)
			if err != nil {
				return true, err
			}
			switch {
			case strings.HasSuffix(base, ".code"):
				sources[strings.TrimSuffix(base, ".code")] = string(data)
			case strings.HasSuffix(base, ".json"):
				var doc song.Document
				if err := json.Unmarshal(data, &doc); err != nil {
					return true, fmt.Errorf("decode document %s: %w", base, err)
				}
				documents[strings.TrimSuffix(base, ".json")] = &doc
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("archive has no %s", manifestName)
	}

	setlist := &Setlist{Name: m.Name}
	if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
		setlist.CreatedAt = t
	}
	for _, ms := range m.Songs {
		setlist.Songs = append(setlist.Songs, SetlistSong{
			ID:       ms.ID,
			Title:    ms.Title,
			Artist:   ms.Artist,
			Source:   sources[ms.ID],
			Document: documents[ms.ID],
		})
	}
	return setlist, nil
}
