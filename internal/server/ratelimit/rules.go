package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// Rule limits one route family. A Path ending in "/" covers every path below
// it; any other Path must match exactly.
type Rule struct {
	Method string
	Path   string
	Limit  int // requests per Window
	Window time.Duration
	Burst  int // defaults to Limit
}

func (r Rule) matches(method, path string) bool {
	if r.Method != method {
		return false
	}
	if strings.HasSuffix(r.Path, "/") {
		return strings.HasPrefix(path, r.Path)
	}
	return r.Path == path
}

// key names the bucket family of the rule, so /sessions/a and /sessions/b
// draw from the same bucket.
func (r Rule) key() string {
	return r.Method + " " + r.Path
}

// ruleFor picks the rule for a request. Exact rules beat prefix rules and a
// longer prefix beats a shorter one.
func ruleFor(rules []Rule, method, path string) (Rule, bool) {
	var best Rule
	found := false
	for _, r := range rules {
		if !r.matches(method, path) {
			continue
		}
		if !strings.HasSuffix(r.Path, "/") {
			return r, true
		}
		if !found || len(r.Path) > len(best.Path) {
			best, found = r, true
		}
	}
	return best, found
}

// DefaultRules returns the built-in per-route limits. Reads fall back to the
// default limit.
func DefaultRules() []Rule {
	post, del := http.MethodPost, http.MethodDelete
	return []Rule{
		// Assistant-backed operations
		{Method: post, Path: "/resumes/parse", Limit: 20, Window: time.Hour, Burst: 5},
		{Method: post, Path: "/resumes/upload", Limit: 20, Window: time.Hour, Burst: 5},
		{Method: post, Path: "/strategies", Limit: 20, Window: time.Hour, Burst: 3},
		{Method: post, Path: "/sessions/", Limit: 240, Window: time.Hour, Burst: 10},

		// Accounts
		{Method: post, Path: "/auth/register", Limit: 10, Window: time.Minute, Burst: 3},
		{Method: post, Path: "/auth/login", Limit: 20, Window: time.Minute, Burst: 5},
		{Method: post, Path: "/auth/anonymous", Limit: 10, Window: time.Minute, Burst: 3},

		// Writes
		{Method: post, Path: "/resumes", Limit: 100, Window: time.Minute, Burst: 10},
		{Method: del, Path: "/resumes/", Limit: 100, Window: time.Minute, Burst: 10},
		{Method: del, Path: "/job-postings/", Limit: 100, Window: time.Minute, Burst: 10},
	}
}
