package musicxml

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/xml"
)

// Score is the harmony layer extracted from one MusicXML part.
type Score struct {
	Title    string
	Tempo    int
	Beats    int
	BeatUnit int

	// Measures holds one pattern-code measure per score measure, already
	// rendered as space-separated chord tokens.
	Measures []string
}

// kindSymbols maps MusicXML harmony kinds to chord extension text. Kinds
// not listed here are carried through verbatim as the extension.
var kindSymbols = map[string]string{
	"major":            "",
	"minor":            "m",
	"dominant":         "7",
	"major-seventh":    "maj7",
	"minor-seventh":    "m7",
	"dominant-ninth":   "9",
	"major-ninth":      "maj9",
	"major-sixth":      "6",
	"minor-sixth":      "m6",
	"suspended-second": "sus2",
	"suspended-fourth": "sus4",
	"diminished":       "dim",
	"augmented":        "aug",
	"half-diminished":  "m7b5",
	"power":            "5",
}

// first runs a static XPath expression and returns the first match.
func first(n *xml.Node, expr string) *xml.Node {
	match, _ := n.XPathFirst(expr)
	return match
}

// text returns the trimmed inner text of a node found by expr, or "".
func text(n *xml.Node, expr string) string {
	match := first(n, expr)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match.InnerText())
}

// Read parses a MusicXML document and extracts its harmony layer. Scores
// without a single <harmony> element are rejected: there is nothing to
// import from a melody-only score.
func Read(r io.Reader) (*Score, error) {
	doc, err := xml.ParseReader(r)
	if err != nil {
		return nil, errors.NewParse("musicxml", "", err.Error())
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.NewParse("musicxml", "", "document has no root element")
	}

	score := &Score{Beats: 4, BeatUnit: 4}

	if title := text(root, "//work/work-title"); title != "" {
		score.Title = title
	} else {
		score.Title = text(root, "//movement-title")
	}

	if tempo := first(root, "//sound/@tempo"); tempo != nil {
		if bpm, err := strconv.ParseFloat(tempo.InnerText(), 64); err == nil && bpm > 0 {
			score.Tempo = int(bpm + 0.5)
		}
	}

	if ts := first(root, "//attributes/time"); ts != nil {
		if v, err := strconv.Atoi(text(ts, "beats")); err == nil {
			score.Beats = v
		}
		if v, err := strconv.Atoi(text(ts, "beat-type")); err == nil {
			score.BeatUnit = v
		}
	}

	measures, err := root.XPath("//part[1]/measure")
	if err != nil {
		return nil, errors.NewParse("musicxml", "", err.Error())
	}

	harmonies := 0
	for _, m := range measures {
		nodes, err := m.XPath("harmony")
		if err != nil {
			return nil, errors.NewParse("musicxml", "", err.Error())
		}
		tokens := make([]string, 0, 2)
		for _, h := range nodes {
			token, err := chordToken(h)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)
			harmonies++
		}
		switch {
		case len(tokens) > 0:
			score.Measures = append(score.Measures, strings.Join(tokens, " "))
		case len(score.Measures) > 0:
			score.Measures = append(score.Measures, "%")
		default:
			score.Measures = append(score.Measures, "_")
		}
	}

	if harmonies == 0 {
		return nil, errors.NewUnsupported("musicxml score", "no harmony elements to import")
	}
	return score, nil
}

// chordToken renders one <harmony> element as a pattern-code chord token.
func chordToken(h *xml.Node) (string, error) {
	step := text(h, "root/root-step")
	if step == "" {
		return "", errors.NewParse("musicxml", "", "harmony element has no root-step")
	}
	token := step

	if alter := first(h, "root/root-alter"); alter != nil {
		switch strings.TrimSpace(alter.InnerText()) {
		case "1":
			token += "#"
		case "-1":
			token += "b"
		case "0", "":
		default:
			return "", errors.NewParse("musicxml", "",
				fmt.Sprintf("unsupported root-alter %q", strings.TrimSpace(alter.InnerText())))
		}
	}

	if kind := text(h, "kind"); kind != "" {
		if symbol, ok := kindSymbols[kind]; ok {
			token += symbol
		} else {
			token += kind
		}
	}
	return token, nil
}

// Songcode renders the score as a songcode document with a single pattern
// and section, ready for the compile pipeline.
func (s *Score) Songcode() string {
	var b strings.Builder
	title := s.Title
	if title == "" {
		title = "Imported Score"
	}
	fmt.Fprintf(&b, "title: %s\n", title)
	if s.Tempo > 0 {
		fmt.Fprintf(&b, "tempo: %d\n", s.Tempo)
	}
	fmt.Fprintf(&b, "time: %d/%d\n", s.Beats, s.BeatUnit)
	b.WriteString("\n$main: ")
	b.WriteString(strings.Join(s.Measures, ";"))
	b.WriteString("\n\n@Song | main\n")
	return b.String()
}
