package format

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

const editorconfigName = ".editorconfig"

// LoadOptions resolves the options for the template at path from the
// .editorconfig files above it, nearest last, stopping at one marked
// root = true. Properties nobody sets keep their default.
func LoadOptions(fs afero.Fs, path string) (Options, error) {
	opts := DefaultOptions()

	abs, err := filepath.Abs(path)
	if err != nil {
		return opts, errors.Errorf("resolving %s: %w", path, err)
	}

	var defs []*editorconfig.Definition
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		conf, err := readEditorconfig(fs, filepath.Join(dir, editorconfigName))
		if err != nil {
			return opts, err
		}
		if conf != nil {
			rel, err := filepath.Rel(dir, abs)
			if err != nil {
				return opts, errors.Errorf("relativizing %s: %w", abs, err)
			}
			def, err := conf.GetDefinitionForFilename(filepath.ToSlash(rel))
			if err != nil {
				return opts, errors.Errorf("matching %s in %s: %w", rel, dir, err)
			}
			defs = append(defs, def)
			if conf.Root {
				break
			}
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	for i := len(defs) - 1; i >= 0; i-- {
		opts = opts.apply(defs[i])
	}
	return opts, nil
}

func readEditorconfig(fs afero.Fs, path string) (*editorconfig.Editorconfig, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, errors.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return nil, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	conf, err := editorconfig.Parse(f)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", path, err)
	}
	return conf, nil
}

func (o Options) apply(def *editorconfig.Definition) Options {
	switch strings.ToLower(def.IndentStyle) {
	case "tab":
		o.UseTabs = true
	case "space":
		o.UseTabs = false
	}

	switch size := strings.ToLower(def.IndentSize); size {
	case "":
	case "tab":
		if def.TabWidth > 0 {
			o.IndentSize = def.TabWidth
		}
	default:
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			o.IndentSize = n
		}
	}

	if v, ok := def.Raw["insert_final_newline"]; ok {
		o.InsertFinalNewline = strings.EqualFold(v, "true")
	}
	return o
}
