package cordon

import (
	"github.com/cordonhq/cordon/internal/intercept"
	"github.com/cordonhq/cordon/internal/policy"
)

// Re-export types from internal packages

// ===== Policy =====

// Policy is an immutable access-control policy: a tool allowlist, a set of
// permanently blocked tools, and glob allowlists for orgs and repos.
type Policy = policy.Policy

// PolicyConfig holds the inputs for building a Policy.
// Nil Tools selects the default allowlist and a non-nil empty Tools allows
// nothing; empty Orgs and Repos together select passthrough mode.
type PolicyConfig = policy.Config

// PolicyFile is the YAML layout accepted by LoadPolicyFile.
type PolicyFile = policy.File

// NewPolicy builds a Policy from explicit configuration.
var NewPolicy = policy.New

// PolicyFromEnv builds a Policy from the GITHUB_TOOLS, ALLOWED_ORGS and
// ALLOWED_REPOS environment variables.
var PolicyFromEnv = policy.FromEnv

// LoadPolicyFile builds a Policy from a YAML policy file.
var LoadPolicyFile = policy.LoadFile

// DefaultTools returns the default tool allowlist used when none is configured.
var DefaultTools = policy.DefaultTools

const (
	// EnvTools names the environment variable holding the tool allowlist.
	EnvTools = policy.EnvTools
	// EnvAllowedOrgs names the environment variable holding org patterns.
	EnvAllowedOrgs = policy.EnvAllowedOrgs
	// EnvAllowedRepos names the environment variable holding repo patterns.
	EnvAllowedRepos = policy.EnvAllowedRepos
)

// ===== Introspection =====

// PolicyToolName is the name of the synthetic tool cordon injects into
// tools/list responses and answers locally with a policy snapshot.
const PolicyToolName = intercept.PolicyToolName
