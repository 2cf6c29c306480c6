package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	windowsOperatingSystemConstant     = "windows"
	homeShortcutConstant               = "~"
	homeDirectoryErrorTemplateConstant = "unable to expand %s: %w"
)

// ErrEmptyPath indicates that a blank path was supplied for resolution.
var ErrEmptyPath = errors.New("path is empty")

// HomeDirectoryProvider resolves the current user's home directory.
type HomeDirectoryProvider func() (string, error)

// PathResolver turns configured and command-line locations into absolute, cleaned paths.
// A leading ~ or ~/ expands to the home directory; ~user forms are left untouched.
type PathResolver struct {
	homeDirectory HomeDirectoryProvider
}

// NewPathResolver constructs a PathResolver; a nil provider uses os.UserHomeDir.
func NewPathResolver(homeDirectory HomeDirectoryProvider) *PathResolver {
	if homeDirectory == nil {
		homeDirectory = os.UserHomeDir
	}
	return &PathResolver{homeDirectory: homeDirectory}
}

// Resolve trims whitespace, expands the home shortcut, and returns the absolute path.
func (resolver *PathResolver) Resolve(candidatePath string) (string, error) {
	trimmedCandidate := strings.TrimSpace(candidatePath)
	if len(trimmedCandidate) == 0 {
		return "", ErrEmptyPath
	}

	expandedPath, expandError := resolver.expandHome(trimmedCandidate)
	if expandError != nil {
		return "", expandError
	}

	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", absoluteError
	}
	return filepath.Clean(absolutePath), nil
}

func (resolver *PathResolver) expandHome(candidatePath string) (string, error) {
	if !hasHomeShortcut(candidatePath) {
		return candidatePath, nil
	}

	homeDirectory := os.UserHomeDir
	if resolver != nil && resolver.homeDirectory != nil {
		homeDirectory = resolver.homeDirectory
	}
	homePath, homeError := homeDirectory()
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, candidatePath, homeError)
	}
	return filepath.Join(homePath, strings.TrimPrefix(candidatePath, homeShortcutConstant)), nil
}

func hasHomeShortcut(candidatePath string) bool {
	if candidatePath == homeShortcutConstant {
		return true
	}
	if !strings.HasPrefix(candidatePath, homeShortcutConstant) {
		return false
	}
	return os.IsPathSeparator(candidatePath[len(homeShortcutConstant)])
}

// IsNestedPath reports whether candidate equals parent or lies beneath it.
func IsNestedPath(parent string, candidate string) bool {
	parentClean := comparisonPath(parent)
	candidateClean := comparisonPath(candidate)

	if candidateClean == parentClean {
		return true
	}

	if len(candidateClean) <= len(parentClean) || !strings.HasPrefix(candidateClean, parentClean) {
		return false
	}

	if os.IsPathSeparator(parentClean[len(parentClean)-1]) {
		return true
	}
	return os.IsPathSeparator(candidateClean[len(parentClean)])
}

func comparisonPath(path string) string {
	comparison := filepath.Clean(path)
	if runtime.GOOS == windowsOperatingSystemConstant {
		comparison = strings.ToLower(comparison)
	}
	return comparison
}
