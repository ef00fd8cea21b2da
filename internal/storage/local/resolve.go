package local

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ondrasimku/file-server-go/internal/storage"
)

// resolver maps client supplied names onto paths inside a storage root.
type resolver struct {
	root     string // absolute, symlinks evaluated
	reserved string // first path segment clients may not use
}

func newResolver(root, reserved string) (*resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	return &resolver{root: canon, reserved: reserved}, nil
}

// clean normalises name to a slash separated path relative to the root.
func (r *resolver) clean(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", storage.ErrMissingFilename
	}
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(strings.TrimSpace(name), "/")

	p := path.Clean(name)
	switch {
	case p == "." || p == "":
		return "", storage.ErrMissingFilename
	case p == ".." || strings.HasPrefix(p, "../"):
		return "", storage.ErrPathTraversal
	}
	if first, _, _ := strings.Cut(p, "/"); r.reserved != "" && first == r.reserved {
		return "", storage.ErrPathTraversal
	}
	return p, nil
}

// Resolve returns the absolute destination for name, creating any missing
// intermediate directories. Every directory on the way is checked after
// symlink evaluation, so nothing is created outside the root.
func (r *resolver) Resolve(name string) (string, error) {
	p, _, err := r.walk(name, true)
	return p, err
}

// resolveTracked is Resolve that also reports the directories it created,
// deepest last, so a caller that fails afterwards can remove them.
func (r *resolver) resolveTracked(name string) (string, []string, error) {
	return r.walk(name, true)
}

// Locate is Resolve without side effects. A missing directory yields
// storage.ErrNotFound.
func (r *resolver) Locate(name string) (string, error) {
	p, _, err := r.walk(name, false)
	return p, err
}

// Mkdir creates the directory name, and every parent, under the root.
func (r *resolver) Mkdir(name string) (string, error) {
	p, err := r.clean(name)
	if err != nil {
		return "", err
	}
	dir, _, err := r.descend(p, true)
	return dir, err
}

func (r *resolver) walk(name string, create bool) (string, []string, error) {
	p, err := r.clean(name)
	if err != nil {
		return "", nil, err
	}

	dir, base := path.Split(p)
	current, created, err := r.descend(dir, create)
	if err != nil {
		return "", nil, err
	}
	return filepath.Join(current, base), created, nil
}

// descend enters every segment of dir. On failure the directories it
// created are removed again.
func (r *resolver) descend(dir string, create bool) (string, []string, error) {
	var created []string
	current := r.root
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		if seg == "" {
			continue
		}
		next, made, err := r.enter(current, seg, create)
		if err != nil {
			removeDirs(created)
			return "", nil, err
		}
		if made {
			created = append(created, next)
		}
		current = next
	}
	return current, created, nil
}

func (r *resolver) enter(parent, seg string, create bool) (string, bool, error) {
	next := filepath.Join(parent, seg)
	made := false

	canon, err := filepath.EvalSymlinks(next)
	if errors.Is(err, fs.ErrNotExist) {
		if !create {
			return "", false, storage.ErrNotFound
		}
		switch err := os.Mkdir(next, 0755); {
		case err == nil:
			made = true
		case !errors.Is(err, fs.ErrExist):
			return "", false, fmt.Errorf("failed to create directory: %w", err)
		}
		canon, err = filepath.EvalSymlinks(next)
	}
	if err != nil {
		if made {
			os.Remove(next)
		}
		// a dangling symlink lands here
		return "", false, fmt.Errorf("failed to resolve %q: %w", seg, err)
	}

	if !r.contains(canon) {
		return "", false, storage.ErrPathTraversal
	}

	info, err := os.Stat(canon)
	if err != nil {
		if made {
			os.Remove(next)
		}
		return "", false, fmt.Errorf("failed to stat %q: %w", seg, err)
	}
	if !info.IsDir() {
		// an existing file sits where a directory is needed
		if create {
			return "", false, storage.ErrNotFile
		}
		return "", false, storage.ErrNotFound
	}
	return canon, made, nil
}

// removeDirs removes dirs deepest first. Only empty directories go away.
func removeDirs(dirs []string) {
	for i := len(dirs) - 1; i >= 0; i-- {
		os.Remove(dirs[i])
	}
}

func (r *resolver) contains(p string) bool {
	if p == r.root {
		return true
	}
	return strings.HasPrefix(p, r.root+string(filepath.Separator))
}

// rel returns the slash separated path of abs relative to the root.
func (r *resolver) rel(abs string) (string, error) {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
