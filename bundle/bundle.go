// Package bundle loads a set of named templates from a directory, an
// in-memory filesystem, or a git remote into a single parse.Forest, so
// templates that {{template "other"}} each other can be shipped and
// loaded together. Grounded on internal/spec's loadTest/loadTests/
// LoadTests/LoadLatestTests family, generalized from "load one YAML
// fixture per directory" to "load one named template per file".
package bundle

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/mna/gotl/parse"
)

// FromFS reads every regular file at the root of fs, treating each
// file's base name without extension as a template name and its
// contents as that template's source, and parses them all into one
// forest so any file can {{template}} another by name.
func FromFS(fs billy.Filesystem) (*parse.Forest, error) {
	entries, err := fs.ReadDir("/")
	if err != nil {
		return nil, err
	}

	forest := parse.NewForest()
	for _, info := range entries {
		if info.IsDir() {
			continue
		}
		name := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))

		f, err := fs.Open(info.Name())
		if err != nil {
			return nil, err
		}
		buf, err := ioutil.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		sub, err := parse.Parse(name, string(buf))
		if err != nil {
			return nil, err
		}
		if err := forest.Merge(sub); err != nil {
			return nil, err
		}
	}
	return forest, nil
}

// LoadDir is FromFS over the real directory at path.
func LoadDir(path string) (*parse.Forest, error) {
	return FromFS(osfs.New(path))
}

// LoadGit clones url at ref into an in-memory filesystem and backing
// store, then bundles the result. Mirrors LoadLatestTests's
// clone-into-memory shape.
func LoadGit(url, ref string) (*parse.Forest, error) {
	fs := memfs.New()
	storage := memory.NewStorage()
	_, err := git.Clone(storage, fs, &git.CloneOptions{
		URL:           url,
		ReferenceName: plumbing.NewBranchReferenceName(ref),
		SingleBranch:  true,
	})
	if err != nil {
		return nil, err
	}
	return FromFS(fs)
}

// Sub returns the subtree of fs rooted at dir, for loading one named
// subdirectory of a larger template repository as its own bundle.
func Sub(fs billy.Filesystem, dir string) billy.Filesystem {
	return chroot.New(fs, dir)
}
