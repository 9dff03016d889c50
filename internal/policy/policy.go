// Package policy holds the access-control policy the filter enforces:
// which tools a client may call and which GitHub orgs and repositories
// those calls may touch. A Policy is built once at startup and never
// mutated afterwards, so readers need no locking.
package policy

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/cordonhq/cordon/internal/errors"
)

// Environment variables the filter reads. The credential token is
// deliberately absent: it belongs to the upstream server and the filter
// never looks at it.
const (
	// EnvTools is a comma-separated tool allowlist. Unset means the
	// built-in default catalog; set but empty allows no tools at all.
	EnvTools = "GITHUB_TOOLS"

	// EnvAllowedOrgs is a comma-separated list of org/user glob
	// patterns, e.g. "myorg,partner-*".
	EnvAllowedOrgs = "ALLOWED_ORGS"

	// EnvAllowedRepos is a comma-separated list of "owner/repo" glob
	// patterns, e.g. "myorg/*,other/specific-repo".
	EnvAllowedRepos = "ALLOWED_REPOS"
)

// Config carries the raw policy lists before compilation. Nil Tools
// selects the default catalog; a non-nil empty Tools allows no tools at
// all. Empty Orgs and Repos together select passthrough mode.
type Config struct {
	Tools []string
	Orgs  []string
	Repos []string
}

// Policy is the compiled, immutable access policy.
type Policy struct {
	allowedTools map[string]bool
	blockedTools map[string]bool
	allowedOrgs  []string
	allowedRepos []string
	orgMatchers  []*regexp.Regexp
	repoMatchers []*regexp.Regexp
}

// New compiles a Config into a Policy. Glob patterns compile at
// construction so a broken pattern fails startup instead of silently
// never matching.
func New(cfg Config) (*Policy, error) {
	// Nil means unconfigured. An explicitly empty list stays empty: it
	// is a valid allowlist that simply permits nothing.
	tools := cfg.Tools
	if tools == nil {
		tools = DefaultTools()
	}

	p := &Policy{
		allowedTools: make(map[string]bool, len(tools)),
		blockedTools: make(map[string]bool, len(blockedTools)),
		allowedOrgs:  slices.Clone(cfg.Orgs),
		allowedRepos: slices.Clone(cfg.Repos),
	}
	for _, name := range tools {
		p.allowedTools[name] = true
	}
	for name := range blockedTools {
		p.blockedTools[name] = true
	}

	var err error
	if p.orgMatchers, err = compilePatterns(cfg.Orgs); err != nil {
		return nil, &errors.PolicyError{Field: "allowed orgs", Err: err}
	}
	if p.repoMatchers, err = compilePatterns(cfg.Repos); err != nil {
		return nil, &errors.PolicyError{Field: "allowed repos", Err: err}
	}

	return p, nil
}

// FromEnv builds a Policy from GITHUB_TOOLS, ALLOWED_ORGS, and
// ALLOWED_REPOS. GITHUB_TOOLS only falls back to the default catalog
// when the variable is absent: a set-but-empty value configures an
// allowlist that permits nothing.
func FromEnv() (*Policy, error) {
	cfg := Config{
		Orgs:  SplitList(os.Getenv(EnvAllowedOrgs)),
		Repos: SplitList(os.Getenv(EnvAllowedRepos)),
	}

	if raw, ok := os.LookupEnv(EnvTools); ok {
		if cfg.Tools = SplitList(raw); cfg.Tools == nil {
			cfg.Tools = []string{}
		}
	}

	return New(cfg)
}

// ToolAllowed reports whether name is on the tool allowlist.
func (p *Policy) ToolAllowed(name string) bool {
	return p.allowedTools[name]
}

// ToolBlocked reports whether name is permanently blocked. Blocked
// wins over allowed: the caller must check it first.
func (p *Policy) ToolBlocked(name string) bool {
	return p.blockedTools[name]
}

// Restricted reports whether any org or repo restriction is configured.
// An unrestricted policy allows every owner and repository and relies
// on credential scoping instead.
func (p *Policy) Restricted() bool {
	return len(p.allowedOrgs) > 0 || len(p.allowedRepos) > 0
}

// AllowedTools returns the allowlist as a sorted slice.
func (p *Policy) AllowedTools() []string {
	return sortedKeys(p.allowedTools)
}

// BlockedTools returns the blocked set as a sorted slice.
func (p *Policy) BlockedTools() []string {
	return sortedKeys(p.blockedTools)
}

// AllowedOrgs returns the org patterns in configured order.
func (p *Policy) AllowedOrgs() []string {
	return slices.Clone(p.allowedOrgs)
}

// AllowedRepos returns the repo patterns in configured order.
func (p *Policy) AllowedRepos() []string {
	return slices.Clone(p.allowedRepos)
}

// SplitList splits a comma-separated environment value, trimming
// whitespace and dropping empty elements. "a, b,,c" yields [a b c] and
// "" yields nil.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	slices.Sort(out)

	return out
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	matchers := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := translate(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		matchers = append(matchers, re)
	}

	return matchers, nil
}
