package env

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/httprun/packages/core/parser"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc receives resolver warnings, e.g. an unresolved {{token}}.
type WarnFunc func(format string, args ...any)

// Resolver substitutes {{token}} references against four layered
// scopes, checked in this order: in-place bindings scoped to the
// current request, globals published by earlier handler scripts, the
// loaded environment profile, and the closed set of dynamic
// variables ($uuid, $timestamp, $randomInt).
type Resolver struct {
	mu          sync.RWMutex
	inPlace     map[string]string
	globals     map[string]string
	environment map[string]string
	dynamic     map[string]DynamicFunc
	warnFunc    WarnFunc

	warnMu   sync.Mutex
	warnOnce map[string]*rate.Sometimes
}

// NewResolver builds a Resolver over a fixed environment profile.
// Globals and in-place bindings start empty and are populated per run
// and per request respectively.
func NewResolver(environment map[string]string) *Resolver {
	return &Resolver{
		inPlace:     make(map[string]string),
		globals:     make(map[string]string),
		environment: environment,
		dynamic:     defaultDynamicFuncs(),
		warnOnce:    make(map[string]*rate.Sometimes),
	}
}

// SetWarnFunc installs the callback used to report unresolved tokens.
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

// SetInPlace replaces the in-place binding table for the request about
// to run. Bindings may reference each other (`@a = {{b}}`); this
// expands them over up to 8 left-to-right passes, leaving anything
// still unresolved past that bound as a literal `{{token}}`.
func (r *Resolver) SetInPlace(bindings []parser.InPlaceBinding) {
	table := make(map[string]string, len(bindings))
	for _, b := range bindings {
		table[b.Name] = b.Value
	}

	for pass := 0; pass < 8; pass++ {
		changed := false
		for _, b := range bindings {
			name := b.Name
			val := table[name]
			resolved := variablePattern.ReplaceAllStringFunc(val, func(match string) string {
				token := strings.TrimSpace(match[2 : len(match)-2])
				if v, ok := table[token]; ok {
					return v
				}
				return match
			})
			if resolved != val {
				table[name] = resolved
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	r.mu.Lock()
	r.inPlace = table
	r.mu.Unlock()
}

// SetGlobal publishes a value visible to every request parsed after it.
func (r *Resolver) SetGlobal(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globals[name] = value
}

// GetGlobal reads a previously published global.
func (r *Resolver) GetGlobal(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.globals[name]
	return v, ok
}

// Resolve substitutes every {{token}} in input, trying in-place,
// global, environment, then dynamic scopes in that order. A token
// matching none of them is left untouched and reported via warn.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		token := strings.TrimSpace(match[2 : len(match)-2])

		r.mu.RLock()
		if v, ok := r.inPlace[token]; ok {
			r.mu.RUnlock()
			return v
		}
		if v, ok := r.globals[token]; ok {
			r.mu.RUnlock()
			return v
		}
		if v, ok := r.environment[token]; ok {
			r.mu.RUnlock()
			return v
		}
		var fn DynamicFunc
		var ok bool
		if strings.HasPrefix(token, "$") {
			fn, ok = r.dynamic[token[1:]]
		}
		r.mu.RUnlock()
		if ok {
			return fn()
		}

		r.warn(token, "unresolved variable: %s", token)
		return match
	})
}

// ResolveHeaders resolves every header value in place, returning a new
// slice; header names are never substituted.
func (r *Resolver) ResolveHeaders(headers []parser.Header) []parser.Header {
	resolved := make([]parser.Header, len(headers))
	for i, h := range headers {
		resolved[i] = parser.Header{Name: h.Name, Value: r.Resolve(h.Value)}
	}
	return resolved
}

// warn reports a message at most once per distinct token, via
// rate.Sometimes, so a variable referenced dozens of times in one file
// doesn't flood stderr with the same line.
func (r *Resolver) warn(token, format string, args ...any) {
	r.warnMu.Lock()
	s, ok := r.warnOnce[token]
	if !ok {
		s = &rate.Sometimes{First: 1}
		r.warnOnce[token] = s
	}
	r.warnMu.Unlock()

	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn == nil {
		return
	}
	s.Do(func() {
		fn(format, args...)
	})
}

// HasUnresolvedVariables reports whether input contains any {{token}}
// that Resolve would leave untouched.
func (r *Resolver) HasUnresolvedVariables(input string) bool {
	return len(r.GetUnresolvedVariables(input)) > 0
}

// GetUnresolvedVariables returns, in order of appearance, every token
// in input that none of the four scopes can resolve.
func (r *Resolver) GetUnresolvedVariables(input string) []string {
	var unresolved []string
	matches := variablePattern.FindAllStringSubmatch(input, -1)
	for _, m := range matches {
		token := strings.TrimSpace(m[1])

		r.mu.RLock()
		_, inInPlace := r.inPlace[token]
		_, inGlobals := r.globals[token]
		_, inEnv := r.environment[token]
		inDynamic := false
		if strings.HasPrefix(token, "$") {
			_, inDynamic = r.dynamic[token[1:]]
		}
		r.mu.RUnlock()

		if !inInPlace && !inGlobals && !inEnv && !inDynamic {
			unresolved = append(unresolved, token)
		}
	}
	return unresolved
}

func (r *Resolver) String() string {
	return fmt.Sprintf("Resolver{inPlace=%d globals=%d environment=%d}", len(r.inPlace), len(r.globals), len(r.environment))
}
