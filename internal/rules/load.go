package rules

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/cs2econ/internal/econ"
)

//go:embed schema.cue
var schemaCUE string

// Load reads every *.cue ruleset file under dir, validates each against the
// embedded #Rules schema, and returns the loaded rulesets keyed by version.
// The compiled-in Default() ruleset is always present; a file may not
// redefine an already-loaded version.
//
// Historical replays pick their ruleset by version tag, so all loaded
// versions coexist.
func Load(dir string) (map[string]Rules, error) {
	out := map[string]Rules{Default().Version: Default()}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		// No custom rules directory is fine; the default still applies.
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".cue") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded rules schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Rules"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Rules definition: %w", err)
	}

	for _, path := range files {
		r, err := loadFile(ctx, def, path)
		if err != nil {
			return nil, err
		}
		if _, exists := out[r.Version]; exists {
			return nil, &econ.EconError{
				Code:    econ.CodeConfiguration,
				Message: fmt.Sprintf("duplicate rules version %q in %s", r.Version, path),
			}
		}
		out[r.Version] = r
	}

	return out, nil
}

// Resolve loads rulesets from dir and returns the one tagged version.
// An empty version selects the default ruleset.
func Resolve(dir, version string) (Rules, error) {
	if version == "" {
		return Default(), nil
	}
	loaded, err := Load(dir)
	if err != nil {
		return Rules{}, err
	}
	r, ok := loaded[version]
	if !ok {
		return Rules{}, &econ.EconError{
			Code:    econ.CodeConfiguration,
			Message: fmt.Sprintf("unknown rules version %q", version),
		}
	}
	return r, nil
}

func loadFile(ctx *cue.Context, def cue.Value, path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	val := ctx.CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return Rules{}, &econ.EconError{
			Code:    econ.CodeConfiguration,
			Message: fmt.Sprintf("compile %s: %v", path, err),
		}
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Rules{}, &econ.EconError{
			Code:    econ.CodeConfiguration,
			Message: fmt.Sprintf("validate %s against rules schema: %v", path, err),
		}
	}

	var r Rules
	if err := unified.Decode(&r); err != nil {
		return Rules{}, &econ.EconError{
			Code:    econ.CodeConfiguration,
			Message: fmt.Sprintf("decode %s: %v", path, err),
		}
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}
