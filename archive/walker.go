// Package archive builds Walk abstraction on top of "archive/zip" and uses it
// to collect stylesheets packed into archives.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to Walk
// The file argument is the zip.File structure for file in archive which satisfies
// match condition. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks the all files in the archive which names start with prefix,
// calling walkFn for each item. Archives with path traversal components ("..")
// or absolute paths in entry names are rejected.
func Walk(archive, prefix string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, prefix) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// Stylesheet is a single css file read from an archive.
type Stylesheet struct {
	Archive string
	Name    string // path inside archive, decoded if necessary
	Data    []byte
}

// Source returns printable location of the stylesheet.
func (s Stylesheet) Source() string {
	return s.Archive + "/" + s.Name
}

// NameDecoder converts names of entries which are not marked as UTF-8.
type NameDecoder func(name string) (string, error)

// Stylesheets reads all files with "css" extension under prefix in natural
// order of their names. When decode is not nil it is applied to non UTF-8
// names, failures keep the original name.
func Stylesheets(archive, prefix string, decode NameDecoder) ([]Stylesheet, error) {
	var sheets []Stylesheet
	err := Walk(archive, prefix, func(archive string, f *zip.File) error {
		if !strings.EqualFold(path.Ext(f.Name), ".css") {
			return nil
		}
		name := f.Name
		if decode != nil && f.NonUTF8 {
			if n, err := decode(name); err == nil {
				name = n
			}
		}
		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open %s in %s: %w", name, archive, err)
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to read %s in %s: %w", name, archive, err)
		}
		sheets = append(sheets, Stylesheet{Archive: archive, Name: name, Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(sheets, func(a, b Stylesheet) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})
	return sheets, nil
}
