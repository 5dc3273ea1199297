// Package workspace is the filesystem primitive used by the sync engine and
// the installer. It wraps a go-billy filesystem rooted at the working
// directory so the same code runs against disk and against memory in tests.
package workspace

import (
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// Workspace is a working directory holding extension files. Paths are
// slash-separated and relative to the root.
type Workspace struct {
	fs   billy.Filesystem
	root string
}

// Open returns a Workspace backed by the OS directory dir.
func Open(dir string) *Workspace {
	return &Workspace{fs: osfs.New(dir), root: dir}
}

// New wraps an existing billy filesystem.
func New(fs billy.Filesystem) *Workspace {
	return &Workspace{fs: fs, root: fs.Root()}
}

// InMemory returns an empty Workspace backed by memory.
func InMemory() *Workspace {
	return New(memfs.New())
}

// Root returns the directory the workspace is rooted at.
func (w *Workspace) Root() string {
	return w.root
}

// Exists reports whether name exists.
func (w *Workspace) Exists(name string) (bool, error) {
	_, err := w.fs.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("stat %q: %w", name, err)
	}
}

// ReadFile returns the content of name.
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	data, err := util.ReadFile(w.fs, name)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", name, err)
	}
	return data, nil
}

// WriteFile replaces the content of name, creating parent directories.
func (w *Workspace) WriteFile(name string, data []byte) error {
	if dir := path.Dir(name); dir != "." {
		if err := w.MkdirAll(dir); err != nil {
			return err
		}
	}
	if err := util.WriteFile(w.fs, name, data, filePerm); err != nil {
		return fmt.Errorf("writing %q: %w", name, err)
	}
	return nil
}

// MkdirAll creates dir and any missing parents.
func (w *Workspace) MkdirAll(dir string) error {
	if err := w.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}
	return nil
}

// Files returns the sorted names of regular files directly inside dir. A
// missing dir yields no names.
func (w *Workspace) Files(dir string) ([]string, error) {
	infos, err := w.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}

	var names []string
	for _, info := range infos {
		if info.Mode().IsRegular() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
