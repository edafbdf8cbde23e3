package item

import "fmt"

// IssueRef formats "{repo}#{number}".
func IssueRef(repo string, number int) string {
	return fmt.Sprintf("%s#%d", repo, number)
}

// PullRequestRef formats "{repo}#PR{number}" as used by GitHub, Azure DevOps
// and Jira displays.
func PullRequestRef(repo string, number int) string {
	return fmt.Sprintf("%s#PR%d", repo, number)
}

// MergeRequestRef formats "{repo}!{number}", GitLab's merge request notation.
func MergeRequestRef(repo string, number int) string {
	return fmt.Sprintf("%s!%d", repo, number)
}

// FallbackRef synthesizes a reference from whatever scope is known:
// repo+number, then source path, then key.
func FallbackRef(repo string, number int, sourcePath, key string) string {
	switch {
	case repo != "" && number > 0:
		return IssueRef(repo, number)
	case sourcePath != "":
		return sourcePath
	default:
		return key
	}
}
