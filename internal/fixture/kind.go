package fixture

// Kind is a hand-written fixture base. Scenario classes are registered
// against one or more kinds and inherit their hooks.
//
// Hooks are optional. Init, Setup, Run and Check resolve to the first kind
// in the class linearization that defines them. Describe hooks compose: each
// one receives the description built so far, applied from the root kind to
// the leaf.
type Kind struct {
	Name   string
	Parent *Kind

	// Module names the package or file the kind lives in. It only feeds
	// Category for fixtures built directly from a leaf kind.
	Module string

	Init     func(f *Fixture) error
	Describe func(f *Fixture, desc string) string
	Setup    func(f *Fixture) error
	Run      func(f *Fixture) error
	Check    func(f *Fixture)
}

// ErrorFixture marks a class whose scenario is expected to fail. Register
// prepends it to the bases of any class carrying an "error" property.
var ErrorFixture = &Kind{Name: "ErrorFixture"}

// DescendsFrom reports whether k is base or has base as an ancestor.
func (k *Kind) DescendsFrom(base *Kind) bool {
	for current := k; current != nil; current = current.Parent {
		if current == base {
			return true
		}
	}
	return false
}

// linearize orders kinds for hook lookup: each base followed by its parent
// chain, first occurrence wins.
func linearize(bases []*Kind) []*Kind {
	seen := make(map[*Kind]bool)
	var out []*Kind
	for _, base := range bases {
		for k := base; k != nil; k = k.Parent {
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func firstWith(kinds []*Kind, has func(*Kind) bool) *Kind {
	for _, k := range kinds {
		if has(k) {
			return k
		}
	}
	return nil
}

func hasInit(k *Kind) bool  { return k.Init != nil }
func hasSetup(k *Kind) bool { return k.Setup != nil }
func hasRun(k *Kind) bool   { return k.Run != nil }
func hasCheck(k *Kind) bool { return k.Check != nil }
