package policy

import "slices"

// defaultTools is the allowlist applied when GITHUB_TOOLS is unset: the
// everyday GitHub workflow surface. merge_pull_request is deliberately
// absent here and hard-blocked below: merges must happen manually.
var defaultTools = []string{
	"get_file_contents",
	"list_branches",
	"list_commits",
	"get_commit",
	"create_branch",
	"push_files",
	"create_or_update_file",
	"delete_file",
	"create_pull_request",
	"list_pull_requests",
	"pull_request_read",
	"pull_request_review_write",
	"add_comment_to_pending_review",
	"update_pull_request",
	"update_pull_request_branch",
	"issue_read",
	"issue_write",
	"add_issue_comment",
	"list_issues",
	"list_issue_types",
	"sub_issue_write",
	"search_code",
	"search_repositories",
	"search_pull_requests",
	"search_issues",
	"search_users",
	"get_status",
	"get_me",
	"get_label",
	"fork_repository",
	"create_repository",
	"get_latest_release",
	"get_release_by_tag",
	"list_releases",
	"list_tags",
	"get_tag",
	"request_copilot_review",
}

// blockedTools cannot be overridden by any environment variable or
// policy file.
var blockedTools = map[string]bool{
	"merge_pull_request": true,
}

// DefaultTools returns a copy of the built-in tool allowlist.
func DefaultTools() []string {
	return slices.Clone(defaultTools)
}
