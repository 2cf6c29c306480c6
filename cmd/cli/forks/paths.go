package forks

import (
	"path/filepath"
	"strings"

	pathutils "github.com/temirov/mango/internal/utils/path"
)

const homeDirectoryPrefix = "~"

var treePathResolver = pathutils.NewPathResolver(nil)

// resolveTreePath resolves a user-supplied path relative to the work tree rather than the process directory.
func resolveTreePath(workTreeRoot string, candidatePath string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) > 0 && !filepath.IsAbs(trimmedPath) && !strings.HasPrefix(trimmedPath, homeDirectoryPrefix) {
		trimmedPath = filepath.Join(workTreeRoot, trimmedPath)
	}
	return treePathResolver.Resolve(trimmedPath)
}
