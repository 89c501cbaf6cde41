package minify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"syscall"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"csscover/archive"
)

// StdinSource names standard input among sources.
const StdinSource = "-"

// Source is a single stylesheet decoded to UTF-8.
type Source struct {
	Name string // as reported to user
	Path string // file on disk, empty for standard input and archive entries
	Data []byte
}

// Loader reads stylesheets from files, directories, zip archives and standard
// input.
type Loader struct {
	stdin    io.Reader
	codePage encoding.Encoding
	log      *zap.Logger
}

// NewLoader creates loader. When codePage is not nil it is used to decode
// content without BOM and zip entry names not marked as UTF-8.
func NewLoader(stdin io.Reader, codePage encoding.Encoding, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{stdin: stdin, codePage: codePage, log: log}
}

// Load reads all sources in order. It does not stop on the first failure,
// all unreadable sources are reported together.
func (l *Loader) Load(ctx context.Context, names []string) ([]Source, error) {
	var (
		out  []Source
		errs error
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		srcs, err := l.load(ctx, name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if len(srcs) == 0 {
			l.log.Warn("No stylesheets found", zap.String("source", name))
		}
		out = append(out, srcs...)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

// load resolves a single name. Name may point inside an archive, in which case
// the part after archive path is a prefix of entries to read.
func (l *Loader) load(ctx context.Context, name string) ([]Source, error) {
	if name == StdinSource {
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read standard input: %w", err)
		}
		src, err := l.source("stdin", "", data)
		if err != nil {
			return nil, err
		}
		return []Source{src}, nil
	}

	var head, tail string
	for head = name; len(head) != 0; head, tail = filepath.Split(head) {
		head = strings.TrimSuffix(head, string(filepath.Separator))
		if len(head) == 0 {
			break
		}

		fi, err := os.Stat(head)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
				// does not exist - probably path in archive
				continue
			}
			return nil, fmt.Errorf("unable to access input source (%s): %w", head, err)
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				return nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(name, head))
			}
			return l.loadDir(ctx, head)
		}
		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("unexpected path mode for (%s)", head)
		}

		isZip, err := isArchiveFile(head)
		if err != nil {
			return nil, fmt.Errorf("unable to check archive type (%s): %w", head, err)
		}
		if isZip {
			prefix := strings.TrimPrefix(strings.TrimPrefix(name, head), string(filepath.Separator))
			return l.loadArchive(head, filepath.ToSlash(prefix))
		}
		if head != name {
			return nil, fmt.Errorf("input source was not found (%s), (%s) is not an archive", name, head)
		}
		data, err := os.ReadFile(head)
		if err != nil {
			return nil, fmt.Errorf("unable to read input source (%s): %w", head, err)
		}
		src, err := l.source(head, head, data)
		if err != nil {
			return nil, err
		}
		return []Source{src}, nil
	}
	return nil, fmt.Errorf("input source was not found (%s)", name)
}

// loadDir reads all css files under directory in natural order of their paths.
// Archives inside directories are not looked into.
func (l *Loader) loadDir(ctx context.Context, dir string) ([]Source, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ".css") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to walk directory (%s): %w", dir, err)
	}
	slices.SortFunc(paths, naturalCompare)

	out := make([]Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read input source (%s): %w", path, err)
		}
		src, err := l.source(path, path, data)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (l *Loader) loadArchive(path, prefix string) ([]Source, error) {
	var decode archive.NameDecoder
	if l.codePage != nil {
		decode = func(name string) (string, error) {
			n, err := l.codePage.NewDecoder().String(name)
			if err != nil {
				l.log.Warn("Unable to convert archive name from specified encoding", zap.String("path", name), zap.Error(err))
			}
			return n, err
		}
	}
	sheets, err := archive.Stylesheets(path, prefix, decode)
	if err != nil {
		return nil, fmt.Errorf("unable to read archive (%s): %w", path, err)
	}
	out := make([]Source, 0, len(sheets))
	for _, s := range sheets {
		src, err := l.source(s.Source(), "", s.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (l *Loader) source(name, path string, data []byte) (Source, error) {
	text, enc, err := decodeText(data, l.codePage)
	if err != nil {
		return Source{}, fmt.Errorf("unable to decode input source (%s): %w", name, err)
	}
	l.log.Debug("Stylesheet loaded", zap.String("source", name), zap.Int("bytes", len(data)), zap.String("encoding", enc))
	return Source{Name: name, Path: path, Data: text}, nil
}

// isArchiveFile checks file signature to see if we have zip archive.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// filetype needs at most 262 bytes to make a decision
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

var charsetRule = regexp.MustCompile(`^@charset "([^"]+)";`)

// decodeText converts stylesheet to UTF-8. Encoding is selected the way
// browsers do it: byte order mark, then forced code page, then @charset rule.
// Returns name of the encoding used.
func decodeText(data []byte, codePage encoding.Encoding) ([]byte, string, error) {
	fallback, name := encoding.Nop, "utf-8"
	if codePage != nil {
		fallback, name = codePage, encodingName(codePage)
	} else if m := charsetRule.FindSubmatch(data); m != nil {
		if enc, err := ianaindex.IANA.Encoding(string(m[1])); err == nil && enc != nil {
			fallback, name = enc, encodingName(enc)
		}
	}

	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		name = "utf-8"
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		name = "utf-16be"
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		name = "utf-16le"
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback.NewDecoder()), data)
	if err != nil {
		return nil, "", err
	}
	return out, name, nil
}

func encodingName(enc encoding.Encoding) string {
	if n, err := ianaindex.IANA.Name(enc); err == nil {
		return strings.ToLower(n)
	}
	return "unknown"
}

func naturalCompare(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}
