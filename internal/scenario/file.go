// Package scenario loads scenario files and registers them as fixture
// classes.
//
// A scenario file is a map of fixture properties written as YAML, JSON,
// HuJSON (JSON with comments and trailing commas) or CUE:
//
//	fixture: Evert            # optional, defaults to the filename prefix
//	description: two columns
//	parameters:
//	  iterable: [{a: [1, 2]}, {b: [3]}]
//	expected: [[{a: 1}, {b: 3}], [{a: 2}, {b: 3}]]
//
// Files named <kind>_<32 hex>.<ext> take their identifier from the name.
package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/google/uuid"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/roach88/casegen/internal/canon"
	"github.com/roach88/casegen/internal/fixture"
)

// KindKey is the property naming the fixture kind a file registers against.
const KindKey = "fixture"

// Extensions lists the supported scenario file extensions.
var Extensions = []string{".yaml", ".yml", ".json", ".hujson", ".cue"}

var hexSuffix = regexp.MustCompile(`_[0-9a-fA-F]{32}$`)

// File is one decoded scenario.
type File struct {
	// Path is the file as given to Load.
	Path string

	// Kind is the declared kind name, or the filename prefix when the file
	// declares none.
	Kind string

	// UUID comes from the filename suffix or, failing that, the content.
	UUID uuid.UUID

	// Properties are the fixture properties, without the kind key.
	Properties map[string]any
}

// Supported reports whether path has a scenario extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range Extensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// KindPrefix returns the stem of path without its "_<32 hex>" suffix.
func KindPrefix(path string) string {
	return hexSuffix.ReplaceAllString(Stem(path), "")
}

// Load reads and decodes one scenario file.
func Load(path string) (*File, error) {
	if !Supported(path) {
		return nil, loadError(ErrCodeUnsupported, path, nil, "unsupported extension %q", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, loadError(ErrCodeNotFound, path, err, "scenario file not found")
	}
	if err != nil {
		return nil, loadError(ErrCodeLoadFailed, path, err, "reading scenario: %v", err)
	}

	return Parse(path, data)
}

// Parse decodes data in the format implied by path's extension.
func Parse(path string, data []byte) (*File, error) {
	var (
		doc any
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = decodeYAML(path, data)
	case ".json", ".hujson":
		doc, err = decodeJSON(path, data)
	case ".cue":
		doc, err = decodeCUE(path, data)
	default:
		return nil, loadError(ErrCodeUnsupported, path, nil, "unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	props, ok := normalize(doc).(map[string]any)
	if !ok {
		return nil, loadError(ErrCodeShape, path, nil, "scenario must be a map of properties, got %T", doc)
	}

	f := &File{Path: path, Kind: KindPrefix(path), Properties: props}

	if raw, ok := props[KindKey]; ok {
		kind, isString := raw.(string)
		if !isString || kind == "" {
			return nil, loadError(ErrCodeShape, path, nil, "%s must be a kind name, got %v", KindKey, raw)
		}
		f.Kind = kind
		delete(props, KindKey)
	}

	if id, ok := fixture.SourceUUID(path); ok {
		f.UUID = id
	} else {
		id, err := canon.UUID(map[string]any{"source": filepath.ToSlash(filepath.Base(path)), "properties": props})
		if err != nil {
			return nil, loadError(ErrCodeShape, path, err, "scenario properties: %v", err)
		}
		f.UUID = id
	}

	return f, nil
}

func decodeYAML(path string, data []byte) (any, error) {
	var doc any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, loadError(ErrCodeShape, path, nil, "empty scenario")
		}
		return nil, loadError(ErrCodeParse, path, err, "parsing YAML: %v", err)
	}

	var extra any
	if err := decoder.Decode(&extra); err != io.EOF {
		return nil, loadError(ErrCodeParse, path, err, "scenario must be a single YAML document")
	}
	return doc, nil
}

func decodeJSON(path string, data []byte) (any, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, loadError(ErrCodeParse, path, err, "invalid JSON: %v", err)
	}

	var doc any
	decoder := json.NewDecoder(bytes.NewReader(standardized))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, loadError(ErrCodeParse, path, err, "invalid JSON: %v", err)
	}
	return doc, nil
}

func decodeCUE(path string, data []byte) (any, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueError(path, err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(path, err)
	}

	var doc any
	if err := value.Decode(&doc); err != nil {
		return nil, cueError(path, err)
	}
	return doc, nil
}

func cueError(path string, err error) *LoadError {
	le := loadError(ErrCodeBuildFailed, path, err, "building CUE value: %v", err)
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// normalize converts decoded documents to the shapes scenario code expects:
// string-keyed maps, []any lists and int for integral numbers. Integers
// that do not fit an int stay uint64, or json.Number when they exceed that
// too.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		if !strings.ContainsAny(x.String(), ".eE") {
			// Integers beyond int64 keep their exact value.
			if u, err := strconv.ParseUint(x.String(), 10, 64); err == nil {
				return u
			}
			return x
		}
		f, _ := x.Float64()
		return f
	case int64:
		return int(x)
	case uint64:
		if x > math.MaxInt64 {
			return x
		}
		return int(x)
	default:
		return v
	}
}
