package policy

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cordonhq/cordon/internal/errors"
)

// File is the on-disk policy document. It carries the same three lists
// as the environment variables and replaces them entirely when loaded.
// Omitting the tools key selects the default catalog; an explicitly
// empty tools list permits no tools at all.
//
//	tools:
//	  - get_me
//	  - issue_read
//	orgs:
//	  - myorg
//	  - partner-*
//	repos:
//	  - other/specific-repo
type File struct {
	Tools []string `yaml:"tools"`
	Orgs  []string `yaml:"orgs"`
	Repos []string `yaml:"repos"`
}

// LoadFile reads, validates, and compiles a YAML policy file. Unknown
// keys are rejected so a misspelled list name fails loudly instead of
// silently leaving the policy at its defaults.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	// An empty document decodes to io.EOF and means a zero-valued File.
	var f File
	if err := dec.Decode(&f); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	cfg := Config{
		Orgs:  cleanList(f.Orgs),
		Repos: cleanList(f.Repos),
	}

	if f.Tools != nil {
		if cfg.Tools = cleanList(f.Tools); cfg.Tools == nil {
			cfg.Tools = []string{}
		}
	}

	return New(cfg)
}

// Validate rejects entries that could only be configuration mistakes.
// Repo patterns are matched against "owner/repo", so a pattern with
// neither a slash nor a wildcard can never match anything.
func (f *File) Validate() error {
	for _, pattern := range f.Repos {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !strings.Contains(pattern, "/") && !strings.ContainsAny(pattern, "*?[") {
			return &errors.PolicyError{
				Field: "repos",
				Err:   fmt.Errorf("pattern %q can never match an owner/repo pair (did you mean orgs?)", pattern),
			}
		}
	}

	return nil
}

// cleanList trims entries and drops empties, mirroring how the
// environment lists are parsed.
func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}
