package asyncify

import "strings"

// Matcher decides whether a call site is asynchronous. object is the
// dotted receiver path of a method call ("" for plain calls and for
// receivers that are not a chain of names), name the called function.
type Matcher interface {
	Match(object, name string) bool
}

// FunctionMatcher selects functions by their declared name.
type FunctionMatcher interface {
	MatchFunction(name string) bool
}

type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	s := make(nameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s nameSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

func qualified(object, name string) string {
	return object + "." + name
}

// ExactMatcher accepts a call when its callee is listed verbatim, either
// bare ("read", any receiver) or qualified ("fs.read").
type ExactMatcher struct {
	callees nameSet
}

func NewExactMatcher(patterns []string) *ExactMatcher {
	return &ExactMatcher{callees: newNameSet(patterns)}
}

func (m *ExactMatcher) Match(object, name string) bool {
	if m.callees.has(name) {
		return true
	}
	return object != "" && m.callees.has(qualified(object, name))
}

// WildcardMatcher extends ExactMatcher with two wildcard forms. "fs.*"
// accepts every method called on the receiver fs and "*" accepts every
// call. Targets from Config and Options are compiled into one of these.
type WildcardMatcher struct {
	exact     *ExactMatcher
	receivers nameSet
	all       bool
}

func NewWildcardMatcher(patterns []string) *WildcardMatcher {
	var plain []string
	receivers := make(nameSet)
	all := false
	for _, p := range patterns {
		if p == "*" {
			all = true
		} else if recv, ok := strings.CutSuffix(p, ".*"); ok {
			receivers[recv] = struct{}{}
		} else {
			plain = append(plain, p)
		}
	}
	return &WildcardMatcher{exact: NewExactMatcher(plain), receivers: receivers, all: all}
}

func (m *WildcardMatcher) Match(object, name string) bool {
	switch {
	case m.all:
		return true
	case object != "" && m.receivers.has(object):
		return true
	}
	return m.exact.Match(object, name)
}

// CompositeMatcher accepts a call when any member does. Nil members are
// skipped.
type CompositeMatcher []Matcher

func NewCompositeMatcher(matchers ...Matcher) CompositeMatcher {
	return CompositeMatcher(matchers)
}

func (c CompositeMatcher) Match(object, name string) bool {
	for _, m := range c {
		if m != nil && m.Match(object, name) {
			return true
		}
	}
	return false
}

// FunctionNameMatcher selects functions whose name is listed.
type FunctionNameMatcher struct {
	names nameSet
}

func NewFunctionNameMatcher(names []string) *FunctionNameMatcher {
	return &FunctionNameMatcher{names: newNameSet(names)}
}

func (m *FunctionNameMatcher) MatchFunction(name string) bool {
	return m.names.has(name)
}

// FunctionPrefixMatcher selects named functions starting with one of its
// prefixes. Anonymous functions are never selected, even by "".
type FunctionPrefixMatcher struct {
	prefixes []string
}

func NewFunctionPrefixMatcher(prefixes []string) *FunctionPrefixMatcher {
	return &FunctionPrefixMatcher{prefixes: prefixes}
}

func (m *FunctionPrefixMatcher) MatchFunction(name string) bool {
	if name == "" {
		return false
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// CompositeFunctionMatcher selects a function when any member does.
type CompositeFunctionMatcher []FunctionMatcher

func NewCompositeFunctionMatcher(matchers ...FunctionMatcher) CompositeFunctionMatcher {
	return CompositeFunctionMatcher(matchers)
}

func (c CompositeFunctionMatcher) MatchFunction(name string) bool {
	for _, m := range c {
		if m != nil && m.MatchFunction(name) {
			return true
		}
	}
	return false
}

// FunctionPatterns compiles a list of function names for Config.OnlyList
// or Config.RemoveList. An entry ending in "*" selects by prefix, any
// other entry by exact name. It returns nil for an empty list so that an
// unset option leaves the corresponding Config field unset.
func FunctionPatterns(patterns []string) FunctionMatcher {
	if len(patterns) == 0 {
		return nil
	}
	var names, prefixes []string
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			prefixes = append(prefixes, prefix)
		} else {
			names = append(names, p)
		}
	}
	return NewCompositeFunctionMatcher(NewFunctionNameMatcher(names), NewFunctionPrefixMatcher(prefixes))
}
