// Command chordcue compiles songcode charts, manages the songbook library,
// and serves the live prompter feed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/chordcue/chordcue/core/musicxml"
	"github.com/chordcue/chordcue/core/prompter"
	"github.com/chordcue/chordcue/core/song"
	"github.com/chordcue/chordcue/core/songcode"
	"github.com/chordcue/chordcue/internal/api"
	"github.com/chordcue/chordcue/internal/archive"
	"github.com/chordcue/chordcue/internal/library"
	"github.com/chordcue/chordcue/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for chordcue.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `name:"log-format" help:"Log format (json, text)" default:"text"`

	// Command groups (noun-first organization)
	Compile CompileCmd   `cmd:"" help:"Compile a songcode file to a JSON document"`
	Check   CheckCmd     `cmd:"" help:"Check a songcode file without emitting output"`
	Import  ImportGroup  `cmd:"" help:"Import songs from other formats"`
	Library LibraryGroup `cmd:"" help:"Songbook library operations"`
	Setlist SetlistGroup `cmd:"" help:"Setlist archive operations"`
	Serve   ServeCmd     `cmd:"" help:"Start the prompter API server"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// ImportGroup contains format importers.
type ImportGroup struct {
	Musicxml ImportMusicXMLCmd `cmd:"" help:"Import chord progressions from a MusicXML score"`
}

// LibraryGroup contains songbook library operations.
type LibraryGroup struct {
	Add    LibraryAddCmd    `cmd:"" help:"Compile a songcode file into the library"`
	Get    LibraryGetCmd    `cmd:"" help:"Print a stored document"`
	List   LibraryListCmd   `cmd:"" help:"List stored songs"`
	Delete LibraryDeleteCmd `cmd:"" help:"Delete a stored song"`
}

// SetlistGroup contains setlist archive operations.
type SetlistGroup struct {
	Pack   SetlistPackCmd   `cmd:"" help:"Pack library songs into a setlist archive"`
	Show   SetlistShowCmd   `cmd:"" help:"List the contents of a setlist archive"`
	Unpack SetlistUnpackCmd `cmd:"" help:"Extract songcode sources from a setlist archive"`
}

// compileFile reads and fully compiles one songcode file.
func compileFile(path string) (*song.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := songcode.Parse(string(data))
	if err != nil {
		logging.CompileError(path, err)
		return nil, err
	}
	if err := prompter.Build(doc); err != nil {
		logging.CompileError(path, err)
		return nil, err
	}
	return doc, nil
}

// writeJSON writes v to path, or to stdout when path is empty.
func writeJSON(path string, v interface{}, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CompileCmd compiles a songcode file to a JSON document.
type CompileCmd struct {
	Path   string `arg:"" help:"Path to songcode file" type:"existingfile"`
	Out    string `short:"o" help:"Output path (default stdout)" type:"path"`
	Pretty bool   `help:"Indent the JSON output"`
}

func (c *CompileCmd) Run() error {
	doc, err := compileFile(c.Path)
	if err != nil {
		return err
	}
	logging.CompileEvent("", doc.Metadata.Title, len(doc.Sections), len(doc.Patterns))
	return writeJSON(c.Out, doc, c.Pretty)
}

// CheckCmd validates a songcode file.
type CheckCmd struct {
	Path string `arg:"" help:"Path to songcode file" type:"existingfile"`
}

func (c *CheckCmd) Run() error {
	doc, err := compileFile(c.Path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d patterns, %d sections, %d display units)\n",
		c.Path, len(doc.Patterns), len(doc.Sections), len(doc.Prompter))
	return nil
}

// ImportMusicXMLCmd converts a MusicXML score's harmony layer to songcode.
type ImportMusicXMLCmd struct {
	Path string `arg:"" help:"Path to MusicXML file" type:"existingfile"`
	Out  string `short:"o" help:"Output songcode path (default stdout)" type:"path"`
}

func (c *ImportMusicXMLCmd) Run() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.Path, err)
	}
	defer f.Close()

	score, err := musicxml.Read(f)
	if err != nil {
		return err
	}
	source := score.Songcode()

	// Imported scores must survive the normal compile pipeline.
	if _, err := songcode.Parse(source); err != nil {
		return fmt.Errorf("imported score does not compile: %w", err)
	}

	if c.Out == "" {
		fmt.Print(source)
		return nil
	}
	return os.WriteFile(c.Out, []byte(source), 0644)
}

// LibraryAddCmd compiles a songcode file into the library.
type LibraryAddCmd struct {
	DB   string `help:"Library database path" default:"chordcue.db" type:"path"`
	Path string `arg:"" help:"Path to songcode file" type:"existingfile"`
}

func (c *LibraryAddCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Path, err)
	}
	store, err := library.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Add(context.Background(), string(data))
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", doc.ID, doc.Metadata.Title)
	return nil
}

// LibraryGetCmd prints one stored document.
type LibraryGetCmd struct {
	DB     string `help:"Library database path" default:"chordcue.db" type:"path"`
	ID     string `arg:"" help:"Song ID"`
	Out    string `short:"o" help:"Output path (default stdout)" type:"path"`
	Pretty bool   `help:"Indent the JSON output"`
}

func (c *LibraryGetCmd) Run() error {
	store, err := library.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Get(context.Background(), c.ID)
	if err != nil {
		return err
	}
	return writeJSON(c.Out, doc, c.Pretty)
}

// LibraryListCmd lists stored songs.
type LibraryListCmd struct {
	DB string `help:"Library database path" default:"chordcue.db" type:"path"`
}

func (c *LibraryListCmd) Run() error {
	store, err := library.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background())
	if err != nil {
		return err
	}
	for _, e := range entries {
		artist := e.Artist
		if artist == "" {
			artist = "-"
		}
		fmt.Printf("%s  %-30s  %-20s  %s\n",
			e.ID, e.Title, artist, e.CreatedAt.Format(time.RFC3339))
	}
	fmt.Printf("%d songs\n", len(entries))
	return nil
}

// LibraryDeleteCmd deletes a stored song.
type LibraryDeleteCmd struct {
	DB string `help:"Library database path" default:"chordcue.db" type:"path"`
	ID string `arg:"" help:"Song ID"`
}

func (c *LibraryDeleteCmd) Run() error {
	store, err := library.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), c.ID); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", c.ID)
	return nil
}

// SetlistPackCmd packs library songs into a setlist archive.
type SetlistPackCmd struct {
	DB   string   `help:"Library database path" default:"chordcue.db" type:"path"`
	Name string   `help:"Setlist name (default derived from the output filename)"`
	Out  string   `required:"" short:"o" help:"Output archive path (.setlist.tar.xz)" type:"path"`
	IDs  []string `arg:"" name:"id" help:"Song IDs in performance order"`
}

func (c *SetlistPackCmd) Run() error {
	store, err := library.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	name := c.Name
	if name == "" {
		name = archive.ExtractSetlistName(filepath.Base(c.Out))
	}
	setlist := &archive.Setlist{Name: name, CreatedAt: time.Now()}

	ctx := context.Background()
	for _, id := range c.IDs {
		doc, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		source, err := store.Source(ctx, id)
		if err != nil {
			return err
		}
		setlist.Songs = append(setlist.Songs, archive.SetlistSong{
			ID:       id,
			Title:    doc.Metadata.Title,
			Artist:   doc.Metadata.Artist,
			Source:   source,
			Document: doc,
		})
	}

	if err := archive.Pack(c.Out, setlist); err != nil {
		return err
	}
	fmt.Printf("packed %d songs into %s\n", len(setlist.Songs), c.Out)
	return nil
}

// SetlistShowCmd lists the contents of a setlist archive.
type SetlistShowCmd struct {
	Path string `arg:"" help:"Path to setlist archive" type:"existingfile"`
}

func (c *SetlistShowCmd) Run() error {
	setlist, err := archive.Unpack(c.Path)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d songs)\n", setlist.Name, len(setlist.Songs))
	for i, s := range setlist.Songs {
		artist := s.Artist
		if artist == "" {
			artist = "-"
		}
		fmt.Printf("%2d. %-30s  %s\n", i+1, s.Title, artist)
	}
	return nil
}

// SetlistUnpackCmd extracts songcode sources from a setlist archive.
type SetlistUnpackCmd struct {
	Path string `arg:"" help:"Path to setlist archive" type:"existingfile"`
	Dir  string `short:"d" help:"Output directory" default:"." type:"path"`
}

func (c *SetlistUnpackCmd) Run() error {
	setlist, err := archive.Unpack(c.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, s := range setlist.Songs {
		out := filepath.Join(c.Dir, s.ID+".code")
		if err := os.WriteFile(out, []byte(s.Source), 0644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Println(out)
	}
	return nil
}

// ServeCmd starts the prompter API server.
type ServeCmd struct {
	Port      int      `help:"HTTP server port" default:"8080"`
	DB        string   `help:"Library database path" default:"chordcue.db" type:"path"`
	RateLimit int      `name:"rate-limit" help:"Requests per minute per client (0 = disabled)"`
	Burst     int      `help:"Rate limit burst size" default:"10"`
	Origins   []string `help:"Allowed WebSocket origins (empty = allow all)"`
	TLSCert   string   `name:"tls-cert" help:"TLS certificate file" type:"path"`
	TLSKey    string   `name:"tls-key" help:"TLS private key file" type:"path"`
}

func (c *ServeCmd) Run() error {
	store, err := library.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := api.Config{
		Port:              c.Port,
		LibraryPath:       c.DB,
		RateLimitRequests: c.RateLimit,
		RateLimitBurst:    c.Burst,
		AllowedOrigins:    c.Origins,
		TLS: api.TLSConfig{
			Enabled:  c.TLSCert != "" && c.TLSKey != "",
			CertFile: c.TLSCert,
			KeyFile:  c.TLSKey,
		},
	}
	return api.NewServer(cfg, store).Start()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("chordcue version %s\n", version)
	return nil
}

// parseLogLevel maps the --log-level flag onto a logging level.
func parseLogLevel(s string) logging.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// parseLogFormat maps the --log-format flag onto a logging format.
func parseLogFormat(s string) logging.Format {
	if strings.ToLower(s) == "json" {
		return logging.FormatJSON
	}
	return logging.FormatText
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("chordcue"),
		kong.Description("ChordCue - songcode compiler and live chord prompter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(parseLogLevel(CLI.LogLevel), parseLogFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
