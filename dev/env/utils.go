package devenv

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const moduleName = "wastenot-e2e"

const (
	// paths starting with this prefix resolve into dev/.state under the workspace root
	StatePrefix = "<dev_state>"
	// paths starting with this prefix resolve relative to the workspace root
	WorkspacePrefix = "<workspace>"
)

var modName = regexp.MustCompile(`(?m)^module *([\w\-_./]+)$`)

func isWorkspaceRoot(currentdir string) bool {
	mod, err := os.ReadFile(filepath.Join(currentdir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == moduleName
}

// GetWorkspaceRoot walks up from the cwd until it finds the go.mod of this module.
func GetWorkspaceRoot() (string, error) {
	currentdir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs("/")
	if err != nil {
		return "", err
	}

	for currentdir != root {
		if isWorkspaceRoot(currentdir) {
			return currentdir, nil
		}
		currentdir = filepath.Dir(currentdir)
	}

	return "", os.ErrNotExist
}

func trimPrefixDir(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.TrimLeft(rest, `/\`)
	return filepath.FromSlash(rest)
}

// ResolvePath expands the <dev_state> and <workspace> prefixes, any other path
// is returned untouched.
func ResolvePath(path string) (string, error) {
	switch {
	case strings.HasPrefix(path, StatePrefix):
		root, err := GetWorkspaceRoot()
		if err != nil {
			return "", err
		}
		err = os.MkdirAll(filepath.Join(root, "dev", ".state"), 0777)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, "dev", ".state", trimPrefixDir(path, StatePrefix)), nil
	case strings.HasPrefix(path, WorkspacePrefix):
		root, err := GetWorkspaceRoot()
		if err != nil {
			return "", err
		}
		return filepath.Join(root, trimPrefixDir(path, WorkspacePrefix)), nil
	default:
		return path, nil
	}
}
