package scenario

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/casegen/internal/fixture"
	"github.com/roach88/casegen/internal/log"
)

// Importer registers scenario files as fixture classes.
type Importer struct {
	// Registry defaults to fixture.Default.
	Registry *fixture.Registry

	// Kinds are the kinds scenario files may name.
	Kinds []*fixture.Kind

	// Package roots the module names given to imported classes.
	Package string

	// Filter is a doublestar glob relative to the imported directory.
	Filter string

	Logger *slog.Logger

	mu       sync.Mutex
	imported map[string]*fixture.Class
}

// NewImporter returns an importer registering into the default registry.
func NewImporter(pkg string, kinds ...*fixture.Kind) *Importer {
	return &Importer{Package: pkg, Kinds: kinds}
}

// Kind returns the kind a scenario name refers to. Names match ignoring
// case, underscores, dashes and a trailing "Fixture", so "binary_partition"
// finds BinaryPartitionFixture.
func (im *Importer) Kind(name string) (*fixture.Kind, bool) {
	want := kindKey(name)
	for _, k := range im.Kinds {
		if kindKey(k.Name) == want {
			return k, true
		}
	}
	return nil, false
}

func kindKey(name string) string {
	key := strings.ToLower(name)
	key = strings.NewReplacer("_", "", "-", "").Replace(key)
	return strings.TrimSuffix(key, "fixture")
}

// ImportDir registers every scenario file under dir into ns and returns the
// classes, in file order. Files already imported by im are not registered
// again; their existing classes are returned.
func (im *Importer) ImportDir(ns fixture.Namespace, dir string) ([]*fixture.Class, error) {
	logger := log.WithComponent(log.OrDefault(im.Logger), "scenario")

	files, err := Find(dir, im.Filter)
	if err != nil {
		return nil, err
	}

	im.mu.Lock()
	defer im.mu.Unlock()
	if im.imported == nil {
		im.imported = make(map[string]*fixture.Class)
	}

	registry := im.Registry
	if registry == nil {
		registry = fixture.Default
	}

	classes := make([]*fixture.Class, 0, len(files))
	for _, path := range files {
		key, err := filepath.Abs(path)
		if err != nil {
			key = path
		}
		if class, ok := im.imported[key]; ok {
			classes = append(classes, class)
			continue
		}

		f, err := Load(path)
		if err != nil {
			return nil, err
		}
		kind, ok := im.Kind(f.Kind)
		if !ok {
			return nil, loadError(ErrCodeUnknownKind, path, nil, "no fixture kind named %q", f.Kind)
		}

		module := im.moduleName(path, dir)
		class := registry.RegisterWithUUID(ns, module, f.UUID, []*fixture.Kind{kind}, f.Properties)
		im.imported[key] = class
		classes = append(classes, class)

		logger.Debug("imported scenario",
			log.FixtureKey, class.Name,
			"kind", kind.Name,
			"module", module,
		)
	}

	return classes, nil
}

func (im *Importer) moduleName(path, dir string) string {
	names := ModuleNames([]string{path}, im.Package, dir)
	if len(names) == 0 {
		return im.Package + "." + Stem(path)
	}
	return names[0]
}

// MustImportDir is ImportDir for package-level declarations; it panics on
// error.
func (im *Importer) MustImportDir(ns fixture.Namespace, dir string) []*fixture.Class {
	classes, err := im.ImportDir(ns, dir)
	if err != nil {
		panic(fmt.Sprintf("import scenarios from %s: %v", dir, err))
	}
	return classes
}

// LoadMode controls how errors are handled by LoadDir.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadDir decodes every scenario file under dir without registering any.
func LoadDir(dir, filter string, mode LoadMode) ([]*File, []error) {
	paths, err := Find(dir, filter)
	if err != nil {
		return nil, []error{err}
	}
	if len(paths) == 0 {
		return nil, []error{loadError(ErrCodeNoFiles, dir, nil, "no scenario files found")}
	}

	var (
		files []*File
		errs  []error
	)
	for _, path := range paths {
		f, err := Load(path)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return files, errs
			}
			continue
		}
		files = append(files, f)
	}
	return files, errs
}
