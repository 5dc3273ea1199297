// Package selfinstall copies the running executable into a directory on
// the user's PATH.
package selfinstall

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/membank-rc/membank/internal/branding"
	"github.com/membank-rc/membank/internal/platform"
)

// ErrSameFile is returned when the executable is already the install target.
var ErrSameFile = errors.New("already installed at this location")

// Candidates returns the install directories to offer, most specific
// first: $GOBIN, the first $GOPATH/bin, then the XDG user bin directory.
func Candidates() []string {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if dir == "" {
			return
		}
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	add(os.Getenv("GOBIN"))
	if gopath := filepath.SplitList(os.Getenv("GOPATH")); len(gopath) > 0 && gopath[0] != "" {
		add(filepath.Join(gopath[0], "bin"))
	}
	add(xdg.BinHome)
	return dirs
}

// OnPath reports whether dir is listed in $PATH.
func OnPath(dir string) bool {
	dir = filepath.Clean(dir)
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		if p != "" && filepath.Clean(p) == dir {
			return true
		}
	}
	return false
}

// Plan is a resolved install.
type Plan struct {
	Source string
	Dir    string
	Target string
	// Exists is set when Target is already present and would be replaced.
	Exists bool
}

// Prepare resolves the install of src into dir. When create is set a
// missing dir is created first.
func Prepare(src, dir string, create bool) (*Plan, error) {
	src, err := filepath.EvalSymlinks(src)
	if err != nil {
		return nil, fmt.Errorf("resolving executable: %w", err)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving install directory: %w", err)
	}

	if create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := platform.CheckWritable(dir); err != nil {
		return nil, err
	}

	p := &Plan{
		Source: src,
		Dir:    dir,
		Target: filepath.Join(dir, platform.ExecutableName(branding.CLIName())),
	}

	info, err := os.Stat(p.Target)
	switch {
	case err == nil:
		p.Exists = true
		srcInfo, serr := os.Stat(src)
		if serr == nil && os.SameFile(srcInfo, info) {
			return p, ErrSameFile
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("checking %s: %w", p.Target, err)
	}
	return p, nil
}

// Install copies the executable into place through a temporary file in the
// target directory and marks it executable.
func Install(p *Plan) error {
	tmp, err := os.CreateTemp(p.Dir, "."+branding.CLIName()+"-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := copyFile(p.Source, tmpName); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("copying executable: %w", err)
	}
	if err := platform.Chmod(tmpName, platform.ExecMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting executable permissions: %w", err)
	}
	if err := os.Rename(tmpName, p.Target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("installing %s: %w", p.Target, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
