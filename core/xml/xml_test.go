package xml

import (
	"strings"
	"testing"
)

const sampleDoc = `<?xml version="1.0"?>
<catalog>
	<song id="s1" featured="yes">
		<title>First Song</title>
		<artist>Artist One</artist>
	</song>
	<song id="s2">
		<title>Second Song</title>
	</song>
</catalog>`

// TestParseValidXML verifies parsing of well-formed XML.
func TestParseValidXML(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc == nil {
		t.Fatal("Parse returned nil document")
	}
}

// TestParseInvalidXML verifies error handling for malformed XML.
func TestParseInvalidXML(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"unclosed tag", "<root><element></root>"},
		{"mismatched tags", "<root></other>"},
		{"invalid chars", "<root>\x00</root>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			if err == nil {
				t.Error("Parse should fail for invalid XML")
			}
		})
	}
}

// TestParseReader verifies parsing from a stream.
func TestParseReader(t *testing.T) {
	doc, err := ParseReader(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}
	if doc.Root() == nil {
		t.Fatal("ParseReader returned document with no root")
	}
}

// TestRoot verifies root element access.
func TestRoot(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	root := doc.Root()
	if root == nil {
		t.Fatal("Root returned nil")
	}
	if root.Name() != "catalog" {
		t.Errorf("Root name = %q, want %q", root.Name(), "catalog")
	}
}

// TestXPath verifies XPath queries against the document.
func TestXPath(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	songs, err := doc.XPath("//song")
	if err != nil {
		t.Fatalf("XPath failed: %v", err)
	}
	if len(songs) != 2 {
		t.Errorf("matched %d songs, want 2", len(songs))
	}

	titles, err := doc.XPath("//song/title")
	if err != nil {
		t.Fatalf("XPath failed: %v", err)
	}
	if len(titles) != 2 || titles[0].InnerText() != "First Song" {
		t.Errorf("titles = %v", titles)
	}
}

// TestXPathFirst verifies first-match queries.
func TestXPathFirst(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	n, err := doc.XPathFirst("//song[@id='s2']/title")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if n == nil || n.InnerText() != "Second Song" {
		t.Errorf("node = %v", n)
	}

	missing, err := doc.XPathFirst("//album")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for non-matching query")
	}
}

// TestXPathInvalidExpression verifies query validation.
func TestXPathInvalidExpression(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if _, err := doc.XPath("//[invalid"); err == nil {
		t.Error("XPath should fail for invalid expression")
	}
	if _, err := doc.XPathFirst("//[invalid"); err == nil {
		t.Error("XPathFirst should fail for invalid expression")
	}
}

// TestNodeXPath verifies queries relative to a node.
func TestNodeXPath(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	song, err := doc.XPathFirst("//song[@id='s1']")
	if err != nil || song == nil {
		t.Fatalf("XPathFirst: %v, %v", song, err)
	}

	artist, err := song.XPathFirst("artist")
	if err != nil {
		t.Fatalf("node XPathFirst failed: %v", err)
	}
	if artist == nil || artist.InnerText() != "Artist One" {
		t.Errorf("artist = %v", artist)
	}

	children, err := song.XPath("*")
	if err != nil {
		t.Fatalf("node XPath failed: %v", err)
	}
	if len(children) != 2 {
		t.Errorf("matched %d children, want 2", len(children))
	}
}

// TestNodeAccessors verifies node name, text, children, and attributes.
func TestNodeAccessors(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	song, err := doc.XPathFirst("//song[@id='s1']")
	if err != nil || song == nil {
		t.Fatalf("XPathFirst: %v, %v", song, err)
	}

	if song.Name() != "song" {
		t.Errorf("Name = %q", song.Name())
	}
	if song.Attr("featured") != "yes" {
		t.Errorf("Attr(featured) = %q", song.Attr("featured"))
	}
	if song.Attr("missing") != "" {
		t.Errorf("Attr(missing) = %q", song.Attr("missing"))
	}

	attrs := song.Attributes()
	if attrs["id"] != "s1" || attrs["featured"] != "yes" {
		t.Errorf("Attributes = %v", attrs)
	}

	children := song.Children()
	if len(children) != 2 || children[0].Name() != "title" {
		t.Errorf("Children = %v", children)
	}
	if !strings.Contains(song.InnerText(), "First Song") {
		t.Errorf("InnerText = %q", song.InnerText())
	}
}

// TestAttributeQuery verifies XPath attribute selection.
func TestAttributeQuery(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	n, err := doc.XPathFirst("//song/@id")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if n == nil || n.InnerText() != "s1" {
		t.Errorf("attribute node = %v", n)
	}
}

// TestSerialize verifies round-tripping back to XML text.
func TestSerialize(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	out := string(doc.Serialize())
	if !strings.Contains(out, "<title>First Song</title>") {
		t.Errorf("Serialize output missing content:\n%s", out)
	}
}

// TestNilNode verifies nil-safe accessors.
func TestNilNode(t *testing.T) {
	var n Node
	if n.Name() != "" || n.InnerText() != "" || n.Attr("x") != "" {
		t.Error("zero Node accessors should return empty values")
	}
	if n.Children() != nil || n.Attributes() != nil {
		t.Error("zero Node collections should be nil")
	}
	nodes, err := n.XPath("//x")
	if err != nil || nodes != nil {
		t.Errorf("zero Node XPath = %v, %v", nodes, err)
	}
}
