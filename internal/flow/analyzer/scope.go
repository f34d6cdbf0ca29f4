package analyzer

// scope is a single lexical frame: the root frame binds `env`; each
// ForEach body gets a fresh child frame holding its loop variable. Steps do
// not introduce a frame — they are organizational only.
type scope struct {
	vars   map[string]bool
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: map[string]bool{}, parent: parent}
}

func (s *scope) define(name string) {
	s.vars[name] = true
}

// bind implements `set`'s rebind-in-place semantics: a name already bound in
// an enclosing frame is updated there; otherwise it is introduced in the
// current frame.
func (s *scope) bind(name string) {
	for f := s; f != nil; f = f.parent {
		if f.vars[name] {
			return
		}
	}
	s.define(name)
}

func (s *scope) isBound(name string) bool {
	for f := s; f != nil; f = f.parent {
		if f.vars[name] {
			return true
		}
	}
	return false
}

// allNames collects every name bound anywhere in the chain, used as the
// candidate pool for fuzzy "Did you mean" suggestions.
func (s *scope) allNames() []string {
	seen := map[string]bool{}
	var names []string
	for f := s; f != nil; f = f.parent {
		for n := range f.vars {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}
