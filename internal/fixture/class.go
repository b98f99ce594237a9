package fixture

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Class is a fixture type synthesized from a property map.
type Class struct {
	Name       string
	UUID       uuid.UUID
	Module     string
	Bases      []*Kind
	Properties map[string]any
}

// Namespace collects the classes registered for one test package.
type Namespace map[string]*Class

// Kinds returns the class linearization used for hook lookup.
func (c *Class) Kinds() []*Kind {
	return linearize(c.Bases)
}

// IsError reports whether the class is an error variant.
func (c *Class) IsError() bool {
	for _, k := range c.Kinds() {
		if k == ErrorFixture {
			return true
		}
	}
	return false
}

// Category is the second-to-last segment of the class module with any
// test_ prefix or _test suffix removed. A class from
// "test_casegen.test_unit.test_fixtures.fixture_<hex>" is in "fixtures"; one
// from "internal/collections/scenarios_test.go" is in "collections".
func (c *Class) Category() string {
	return Category(c.Module)
}

// Category derives a category from a dotted module or a file path.
func Category(module string) string {
	if ext := filepath.Ext(module); sourceExtensions[ext] {
		module = strings.TrimSuffix(module, ext)
	}
	segments := strings.FieldsFunc(module, func(r rune) bool {
		return r == '.' || r == '/' || r == '\\'
	})
	if len(segments) < 2 {
		return ""
	}
	category := segments[len(segments)-2]
	category = strings.TrimPrefix(category, "test_")
	category = strings.TrimSuffix(category, "_test")
	return category
}

var sourceExtensions = map[string]bool{
	".go":     true,
	".yaml":   true,
	".yml":    true,
	".json":   true,
	".hujson": true,
	".cue":    true,
}

var sourceUUIDPattern = regexp.MustCompile(`_([0-9a-fA-F]{32})$`)

// SourceUUID extracts the identifier encoded in a scenario source name such
// as "evert_6a1d8f0c1b2e4c3d9f0a7b6c5d4e3f21.yaml".
func SourceUUID(source string) (uuid.UUID, bool) {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	match := sourceUUIDPattern.FindStringSubmatch(base)
	if match == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(match[1])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Hex returns the 32-character identifier used in class names and
// descriptions.
func Hex(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// UniqueClassName returns "f_<hex>", suffixed with _1, _2, ... until the
// name is unused in ns.
func UniqueClassName(ns Namespace, id uuid.UUID) string {
	base := "f_" + Hex(id)
	name := base
	for i := 1; ; i++ {
		if _, taken := ns[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}

// kindClass wraps a hand-written kind so it can be instantiated like a
// registered class. The identifier is derived from the kind name.
func kindClass(k *Kind) *Class {
	return &Class{
		Name:   k.Name,
		UUID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(k.Name)),
		Module: k.Module,
		Bases:  []*Kind{k},
	}
}
