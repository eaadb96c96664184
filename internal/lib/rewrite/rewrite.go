// Package rewrite turns a single trailing path placeholder into a query
// parameter ahead of routing, e.g. "/level/{n}" -> "/level?l={n}".
package rewrite

import (
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

type Rule struct {
	from    string
	prefix  string
	name    string
	toPath  string
	toQuery string

	// last value extracted by Match; owned by this rule only
	value atomic.Pointer[string]
}

// New builds a rule. A placeholder is recognised only when from ends with
// "}"; otherwise the rule is a plain prefix match with no extraction.
func New(from, to string) *Rule {
	r := &Rule{from: from, prefix: from}

	if idx := strings.IndexByte(from, '{'); idx >= 0 && strings.HasSuffix(from, "}") {
		r.prefix = from[:idx]
		r.name = from[idx+1 : len(from)-1]
	}

	r.toPath, r.toQuery, _ = strings.Cut(to, "?")
	return r
}

// HasPlaceholder reports whether the rule extracts a value.
func (r *Rule) HasPlaceholder() bool {
	return r.name != ""
}

func (r *Rule) Placeholder() string {
	return r.name
}

func (r *Rule) Prefix() string {
	return r.prefix
}

// Match reports whether path shares the rule's prefix and remembers the
// extracted value for Value and Target.
func (r *Rule) Match(path string) bool {
	value, ok := r.extract(path)
	if !ok {
		return false
	}
	r.value.Store(&value)
	return true
}

// Value returns what the last successful Match extracted.
func (r *Rule) Value() string {
	if v := r.value.Load(); v != nil {
		return *v
	}
	return ""
}

// Target is the rewritten path and query for the last successful Match.
func (r *Rule) Target() string {
	return join(r.toPath, r.query(r.Value()))
}

// Resolve is the stateless form of Match followed by Target, for callers
// that may run concurrently on the same rule.
func (r *Rule) Resolve(path string) (string, bool) {
	value, ok := r.extract(path)
	if !ok {
		return "", false
	}
	return join(r.toPath, r.query(value)), true
}

// Apply rewrites req in place when it matches. Query parameters produced by
// the rule override same-named parameters already on the request.
func (r *Rule) Apply(req *http.Request) bool {
	value, ok := r.extract(req.URL.Path)
	if !ok {
		return false
	}

	params, err := url.ParseQuery(r.query(value))
	if err != nil {
		return false
	}

	q := req.URL.Query()
	for k, vs := range params {
		q[k] = vs
	}

	req.URL.Path = r.toPath
	req.URL.RawPath = ""
	req.URL.RawQuery = q.Encode()
	return true
}

func (r *Rule) extract(path string) (string, bool) {
	if !strings.HasPrefix(path, r.prefix) {
		return "", false
	}
	if r.name == "" {
		return "", true
	}
	return path[len(r.prefix):], true
}

func (r *Rule) query(value string) string {
	if r.name == "" {
		return r.toQuery
	}
	return strings.ReplaceAll(r.toQuery, "{"+r.name+"}", url.QueryEscape(value))
}

func join(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

// Middleware applies the first matching rule before the wrapped handler
// routes the request.
func Middleware(rules ...*Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			for _, rule := range rules {
				if rule.Apply(req) {
					break
				}
			}
			next.ServeHTTP(w, req)
		})
	}
}
