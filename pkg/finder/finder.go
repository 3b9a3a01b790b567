// Package finder expands command line arguments into the template files
// they name.
package finder

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

var ErrNoMatch = errors.Base("pattern matched no templates")

// DefaultExtensions are the template extensions picked up when a directory
// is given.
var DefaultExtensions = []string{".ftl", ".ftlh", ".ftlx"}

// Finder resolves files, directories and doublestar patterns on a file
// system.
type Finder struct {
	fs         afero.Fs
	extensions []string
}

// New returns a Finder over fs. Directories are searched for files with one
// of extensions, or DefaultExtensions when none are given.
func New(fs afero.Fs, extensions ...string) *Finder {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Finder{fs: fs, extensions: extensions}
}

// Find returns the sorted, de-duplicated template paths named by args. A
// plain file is taken whatever its extension. Every argument that matches
// nothing is reported; the paths found by the others are still returned.
func (f *Finder) Find(ctx context.Context, args []string) ([]string, error) {
	seen := map[string]bool{}
	var errs error

	for _, arg := range args {
		found, err := f.find(arg)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if len(found) == 0 {
			errs = multierr.Append(errs, errors.Errorf("%w: %s", ErrNoMatch, arg))
			continue
		}
		for _, p := range found {
			seen[p] = true
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)

	zerolog.Ctx(ctx).Debug().Strs("args", args).Int("files", len(out)).Msg("found templates")

	return out, errs
}

func (f *Finder) find(arg string) ([]string, error) {
	if strings.ContainsAny(arg, "*?[{") {
		return f.glob(arg)
	}

	info, err := f.fs.Stat(arg)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", arg, err)
	}
	if !info.IsDir() {
		return []string{arg}, nil
	}

	var out []string
	err = afero.Walk(f.fs, arg, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && f.isTemplate(path) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", arg, err)
	}
	return out, nil
}

func (f *Finder) glob(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("invalid pattern %q", pattern)
	}

	base, _ := doublestar.SplitPattern(pattern)
	if ok, err := afero.DirExists(f.fs, base); err != nil || !ok {
		return nil, nil
	}

	var out []string
	err := afero.Walk(f.fs, filepath.FromSlash(base), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if doublestar.MatchUnvalidated(pattern, filepath.ToSlash(path)) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", base, err)
	}
	return out, nil
}

func (f *Finder) isTemplate(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range f.extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
