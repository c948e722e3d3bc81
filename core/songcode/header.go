package songcode

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/song"
)

// arrangement is the parsed form of the text after the '|' in a section
// header: a pattern reference followed by any number of modifiers.
//
//	verse x2 cut-start 1+2 cut-end 1 before(intro) after(outro)
type arrangement struct {
	Pattern   string         `parser:"@Ident"`
	Modifiers []arrangeValue `parser:"@@*"`
}

type arrangeValue struct {
	Repeat   *int       `parser:"  \"x\" @Number"`
	CutStart *cutClause `parser:"| \"cut\" \"-\" \"start\" @@"`
	CutEnd   *cutClause `parser:"| \"cut\" \"-\" \"end\" @@"`
	Before   *string    `parser:"| \"before\" \"(\" @Ident \")\""`
	After    *string    `parser:"| \"after\" \"(\" @Ident \")\""`
}

// cutClause is <measures>[+<beats>].
type cutClause struct {
	Measures int  `parser:"@Number"`
	Beats    *int `parser:"( \"+\" @Number )?"`
}

// headerLexer tokenizes section-header arrangements. Pattern names are
// purely alphabetic, so "x2" splits into the literal x and its count.
var headerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[a-z]+`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Punct", Pattern: `[()\-+]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var headerParser = participle.MustBuild[arrangement](
	participle.Lexer(headerLexer),
	participle.Elide("Whitespace"),
)

// parsedHeader is a section header with its modifiers still holding
// unresolved pattern names for before/after splices.
type parsedHeader struct {
	Name      string
	PatternID string // user-facing pattern name, not yet the allocated ID
	Repeat    int
	CutStart  song.BeatCut
	CutEnd    song.BeatCut
	Before    string
	After     string
}

// parseHeader parses the arrangement clause of one section header line
// (the text after '|').
func parseHeader(name, clause string) (*parsedHeader, error) {
	arr, err := headerParser.ParseString("", clause)
	if err != nil {
		return nil, errors.NewParse("section header", "", err.Error())
	}

	h := &parsedHeader{Name: name, PatternID: arr.Pattern, Repeat: 1}
	for _, m := range arr.Modifiers {
		switch {
		case m.Repeat != nil:
			if *m.Repeat < 1 {
				return nil, errors.NewValidation("repeat", "repeat modifier must be positive")
			}
			h.Repeat = *m.Repeat
		case m.CutStart != nil:
			h.CutStart = m.CutStart.toBeatCut()
		case m.CutEnd != nil:
			h.CutEnd = m.CutEnd.toBeatCut()
		case m.Before != nil:
			h.Before = *m.Before
		case m.After != nil:
			h.After = *m.After
		}
	}
	return h, nil
}

func (c *cutClause) toBeatCut() song.BeatCut {
	cut := song.BeatCut{Measures: c.Measures}
	if c.Beats != nil {
		cut.Beats = *c.Beats
	}
	return cut
}
