package archive

import (
	"archive/tar"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"
)

// Writer writes a tar.xz archive entry by entry.
type Writer struct {
	file *os.File
	xzw  *xz.Writer
	tw   *tar.Writer
	now  time.Time
}

// NewWriter creates a tar.xz archive at path, creating parent
// directories as needed.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}
	xzw, err := xz.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xz writer: %w", err)
	}
	return &Writer{
		file: f,
		xzw:  xzw,
		tw:   tar.NewWriter(xzw),
		now:  time.Now(),
	}, nil
}

// WriteEntry writes one regular file entry. All entries share the writer's
// creation timestamp so archives of the same content are comparable.
func (w *Writer) WriteEntry(name string, data []byte) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: w.now,
	}
	if err := w.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// Close flushes and closes the archive.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		w.xzw.Close()
		w.file.Close()
		return err
	}
	if err := w.xzw.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
