// Package issues provides the issues, get-issue, new-issue, edit-issue and delete-issue commands.
package issues
