package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cordonhq/cordon/internal/errors"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// TestLoadFile tests loading a complete policy document.
func TestLoadFile(t *testing.T) {
	path := writePolicyFile(t, `
tools:
  - get_me
  - issue_read
orgs:
  - myorg
  - partner-*
repos:
  - other/specific-repo
`)

	p, err := LoadFile(path)
	require.NoError(t, err)

	require.Equal(t, []string{"get_me", "issue_read"}, p.AllowedTools())
	require.Equal(t, []string{"myorg", "partner-*"}, p.AllowedOrgs())
	require.Equal(t, []string{"other/specific-repo"}, p.AllowedRepos())
	require.True(t, p.Allows("partner-acme", ""))
	require.False(t, p.ToolAllowed("get_file_contents"))
}

// TestLoadFile_OmittedToolsMeanDefaults tests that a document without a
// tools key selects the catalog.
func TestLoadFile_OmittedToolsMeanDefaults(t *testing.T) {
	path := writePolicyFile(t, "orgs:\n  - myorg\n")

	p, err := LoadFile(path)
	require.NoError(t, err)

	require.Len(t, p.AllowedTools(), 37)
	require.True(t, p.Restricted())
}

// TestLoadFile_ExplicitEmptyTools tests that an empty tools list permits nothing.
func TestLoadFile_ExplicitEmptyTools(t *testing.T) {
	path := writePolicyFile(t, "tools: []\norgs:\n  - myorg\n")

	p, err := LoadFile(path)
	require.NoError(t, err)

	require.Empty(t, p.AllowedTools())
	require.False(t, p.ToolAllowed("get_me"))
	require.True(t, p.Restricted())
}

// TestLoadFile_EmptyDocument tests that a blank file loads the defaults.
func TestLoadFile_EmptyDocument(t *testing.T) {
	path := writePolicyFile(t, "")

	p, err := LoadFile(path)
	require.NoError(t, err)

	require.Len(t, p.AllowedTools(), 37)
	require.False(t, p.Restricted())
}

// TestLoadFile_UnknownKey tests that a misspelled list name is rejected.
func TestLoadFile_UnknownKey(t *testing.T) {
	path := writePolicyFile(t, "tool:\n  - get_me\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse policy file")
	require.Contains(t, err.Error(), "field tool not found")
}

// TestLoadFile_Missing tests the error for a nonexistent path.
func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read policy file")
}

// TestLoadFile_BadYAML tests the error for unparseable content.
func TestLoadFile_BadYAML(t *testing.T) {
	path := writePolicyFile(t, "tools: [unclosed\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse policy file")
}

// TestLoadFile_ImpossibleRepoPattern tests validation of slash-less repo patterns.
func TestLoadFile_ImpossibleRepoPattern(t *testing.T) {
	path := writePolicyFile(t, "repos:\n  - justaname\n")

	_, err := LoadFile(path)
	require.Error(t, err)

	var perr *errors.PolicyError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "repos", perr.Field)
	require.Contains(t, err.Error(), "justaname")
}

// TestValidate_WildcardRepoPatternAllowed tests that a bare wildcard passes validation.
func TestValidate_WildcardRepoPatternAllowed(t *testing.T) {
	f := &File{Repos: []string{"*", "myorg/*"}}
	require.NoError(t, f.Validate())
}
