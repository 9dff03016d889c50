package policy

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Allows reports whether the policy permits access to the given owner
// and repository. The empty string means the argument was absent.
//
// Decision order:
//  1. No restrictions configured: everything is allowed.
//  2. A repository with no owner can never be validated against
//     owner/repo patterns, so it is rejected outright.
//  3. The owner alone may be allowed by an org pattern.
//  4. Owner and repo together may be allowed by a repo pattern matched
//     against "owner/repo" as one string.
func (p *Policy) Allows(owner, repo string) bool {
	if !p.Restricted() {
		return true
	}

	if repo != "" && owner == "" {
		return false
	}

	if owner != "" {
		for _, re := range p.orgMatchers {
			if re.MatchString(owner) {
				return true
			}
		}
	}

	if owner != "" && repo != "" {
		full := owner + "/" + repo
		for _, re := range p.repoMatchers {
			if re.MatchString(full) {
				return true
			}
		}
	}

	return false
}

// translate compiles an fnmatch-style glob into an anchored regexp:
// `*` matches any run of characters including `/`, `?` matches exactly
// one character, `[...]` and `[!...]` are character classes. Matching
// is case-sensitive over the whole string. path.Match is unsuitable
// here because its `*` stops at separators, which would break repo
// patterns like a bare "*".
func translate(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?s)\A`)

	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := classEnd(pattern, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : end]
			switch {
			case strings.HasPrefix(class, "!"):
				class = "^" + class[1:]
			case strings.HasPrefix(class, "^"):
				class = `\` + class
			}
			b.WriteString("[")
			b.WriteString(strings.ReplaceAll(class, `\`, `\\`))
			b.WriteString("]")
			i = end
		default:
			if c < utf8.RuneSelf {
				b.WriteString(regexp.QuoteMeta(string(c)))
			} else {
				b.WriteByte(c)
			}
		}
	}

	b.WriteString(`\z`)

	return regexp.Compile(b.String())
}

// classEnd locates the closing bracket of a character class opening at
// open, or -1 when the class never closes and the bracket is literal.
// A `]` immediately after the opening bracket (or after `!`) belongs to
// the class, as in fnmatch.
func classEnd(pattern string, open int) int {
	i := open + 1
	if i < len(pattern) && pattern[i] == '!' {
		i++
	}
	if i < len(pattern) && pattern[i] == ']' {
		i++
	}
	for i < len(pattern) && pattern[i] != ']' {
		i++
	}
	if i >= len(pattern) {
		return -1
	}

	return i
}
