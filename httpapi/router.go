/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package httpapi serves a trx.Interpreter's exported procedures over
// HTTP/JSON, alongside a generated OpenAPI document, a Swagger UI page, a
// procedure listing and Prometheus-compatible metrics (§4.6 base).
package httpapi

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/harrykodden/trx"
	"github.com/harrykodden/trx/internal/container"
)

// route is one compiled, dispatchable procedure path.
type route struct {
	proc    *trx.ProcedureDecl
	method  trx.HTTPMethod
	literal bool
	re      *regexp.Regexp     // set when !literal
	params  []string           // path parameter names, in template order
}

// Router resolves an incoming method+path into a ProcedureDecl, following
// §4.6's matching algorithm: strip the leading '/' and an optional 'api/'
// prefix, try an exact literal match first (backed by a '/'-separated
// container.Trie for O(1)-ish lookup independent of route count), then fall
// back to a scan of regex-compiled "{param}" templates in procedure-name
// order.
// A path matching some route's template but not its method yields a 405;
// no match at all yields a 404 — the two are distinguished so the dispatcher
// can return the right status code.
type Router struct {
	literals *container.Trie[[]*route]
	templates []*route
}

// NewRouter builds a Router over every exported procedure in module.
// Module.Procedures is a map and keeps no declaration order, so procedures
// are registered in lexicographic order of their names; when several
// templates match one path, the procedure whose name sorts first wins.
// Source declaration order plays no part in route precedence.
func NewRouter(module *trx.Module) *Router {
	r := &Router{literals: container.NewTrie[[]*route]('/')}

	names := make([]string, 0, len(module.Procedures))
	for name := range module.Procedures {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		proc := module.Procedures[name]
		if !proc.IsExported {
			continue
		}
		rt := compileRoute(proc)
		if rt.literal {
			key := normalizePath(rt.proc.PathTemplate)
			existing, _ := r.literals.Get(key)
			r.literals.Insert(key, append(existing, rt))
		} else {
			r.templates = append(r.templates, rt)
		}
	}
	return r
}

func compileRoute(proc *trx.ProcedureDecl) *route {
	tmpl := proc.PathTemplate
	if tmpl == "" {
		tmpl = proc.Name
	}
	params := extractParamNames(tmpl)
	rt := &route{proc: proc, method: proc.EffectiveMethod(), params: params}
	if len(params) == 0 {
		rt.literal = true
		return rt
	}
	rt.re = compileTemplate(tmpl)
	return rt
}

var paramPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

func extractParamNames(tmpl string) []string {
	matches := paramPattern.FindAllStringSubmatch(tmpl, -1)
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m[1]
	}
	return names
}

// compileTemplate builds an anchored regexp matching tmpl, substituting
// each "{param}" placeholder with a single-segment capture group. This is a
// direct port of the reference server's matchPathTemplate (src/cli/
// Server.cpp): regex-escape the literal portions, then replace "{name}"
// with "([^/]+)".
func compileTemplate(tmpl string) *regexp.Regexp {
	var b strings.Builder
	b.WriteByte('^')
	last := 0
	for _, loc := range paramPattern.FindAllStringIndex(tmpl, -1) {
		b.WriteString(regexp.QuoteMeta(tmpl[last:loc[0]]))
		b.WriteString(`([^/]+)`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(tmpl[last:]))
	b.WriteByte('$')
	return regexp.MustCompile(b.String())
}

// normalizePath strips a leading '/' and an optional leading "api/"
// segment, per §4.6.
func normalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "api/")
	return p
}

// MatchResult is the outcome of resolving a request path.
type MatchResult struct {
	Proc       *trx.ProcedureDecl
	PathParams map[string]string
	// MethodMismatch is true when some route's path matched but none with
	// the requested method did — the dispatcher maps this to 405 rather
	// than 404.
	MethodMismatch bool
}

// Match resolves method and rawPath into a MatchResult.
func (r *Router) Match(method, rawPath string) (MatchResult, bool) {
	path := normalizePath(rawPath)

	if candidates, ok := r.literals.Get(path); ok {
		for _, rt := range candidates {
			if string(rt.method) == method {
				return MatchResult{Proc: rt.proc, PathParams: map[string]string{}}, true
			}
		}
		return MatchResult{MethodMismatch: true}, false
	}

	var mismatch bool
	for _, rt := range r.templates {
		m := rt.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		if string(rt.method) != method {
			mismatch = true
			continue
		}
		params := make(map[string]string, len(rt.params))
		for i, name := range rt.params {
			params[name] = m[i+1]
		}
		return MatchResult{Proc: rt.proc, PathParams: params}, true
	}
	return MatchResult{MethodMismatch: mismatch}, false
}

// String renders a route key for diagnostics/logging.
func (rt *route) String() string {
	return fmt.Sprintf("%s %s", rt.method, rt.proc.PathTemplate)
}
