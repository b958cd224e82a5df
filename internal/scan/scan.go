// Package scan discovers and classifies the C/C++ sources of a single
// directory: which files are headers, which compile to objects, and which one
// holds the program entry point.
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Recognized extensions, in the order their file lists appear in the output.
const (
	ExtCpp = ".cpp"
	ExtC   = ".c"
	ExtPs  = ".ps"
	ExtS   = ".s"
	ExtH   = ".h"
	ExtObj = ".o"
)

var knownExts = []string{ExtCpp, ExtC, ExtPs, ExtS, ExtH}

// mainMarker is the literal byte sequence that designates the entry point.
// This is a raw content search, not a parse.
const mainMarker = "int main("

var ErrNoEntryPoint = errors.New(`no entry point: no source file contains "int main("`)

type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return "path not found: " + e.Path
}

type MultipleEntryPointsError struct {
	First  string
	Second string
}

func (e *MultipleEntryPointsError) Error() string {
	return fmt.Sprintf("two entry points found: %s and %s both contain %q", e.First, e.Second, mainMarker)
}

// FileSet is an append-only bucket of file names of one extension kind. The
// three views (list, space-joined string, count) are always kept consistent.
type FileSet struct {
	Names  []string
	Joined string
	Count  int
}

func (s *FileSet) append(name string) {
	s.Names = append(s.Names, name)
	s.Joined += name + " "
	s.Count++
}

// EntryPoint records the single file containing the entry-point marker.
// A zero Stem means no entry point has been registered yet.
type EntryPoint struct {
	Stem string
	Ext  string
}

func (e EntryPoint) Name() string {
	return e.Stem + e.Ext
}

// Toolchain holds the make variable references the final link rule uses.
type Toolchain struct {
	Compiler string
	Flags    string
	LibFlags string
}

// Tree is the classification result for one scanned directory. It is the only
// mutable state of a scan and is append-only: files land in their extension
// bucket, compiled units additionally land in Objects, and at most one file
// may register as Main.
type Tree struct {
	Path    string
	Objects FileSet
	Main    EntryPoint
	Total   int

	sets map[string]*FileSet
}

// NewTree resolves dir into an existing directory path. A non-empty dir is
// first tried relative to the working directory, then verbatim; an empty dir
// means the working directory itself.
func NewTree(dir string) (*Tree, error) {
	path, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}

	sets := make(map[string]*FileSet, len(knownExts))
	for _, ext := range knownExts {
		sets[ext] = &FileSet{}
	}
	return &Tree{Path: path, sets: sets}, nil
}

func resolveDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if rel := filepath.Join(cwd, dir); dirExists(rel) {
		return rel, nil
	}
	if dirExists(dir) {
		return filepath.Abs(dir)
	}
	return "", &PathNotFoundError{Path: dir}
}

func dirExists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.IsDir()
}

// Set returns the bucket for a recognized extension.
func (t *Tree) Set(ext string) *FileSet {
	return t.sets[ext]
}

// Scan classifies every regular file in the tree's directory. File names
// matching an exclude pattern are skipped before classification. Fails fast
// on the first classification error.
func (t *Tree) Scan(exclude []string) error {
	entries, err := os.ReadDir(t.Path)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if matchesAny(exclude, entry.Name()) {
			continue
		}
		if err := t.classify(entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

func matchesAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		// patterns are validated at config load time
		if ok, _ := doublestar.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// classify buckets one file by extension and, for C/C++ sources, decides
// whether it is a compiled unit or the entry point. Names that do not split
// into exactly stem.ext (no dot, or more than one) are left unclassified.
func (t *Tree) classify(name string) error {
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return nil
	}
	stem, ext := parts[0], "."+strings.TrimSpace(parts[1])

	if set, ok := t.sets[ext]; ok {
		set.append(name)
		t.Total++
	}
	if ext != ExtC && ext != ExtCpp {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(t.Path, name))
	if err != nil {
		return err
	}
	if !bytes.Contains(data, []byte(mainMarker)) {
		t.Objects.append(stem + ExtObj)
		return nil
	}

	if t.Main.Stem != "" {
		return &MultipleEntryPointsError{First: t.Main.Name(), Second: name}
	}
	t.Main = EntryPoint{Stem: stem, Ext: ext}
	return nil
}

// ResolveTarget picks the toolchain variables for the final link rule based
// on the entry point's extension. C sources link with the C toolchain,
// everything else with the C++ one.
func (t *Tree) ResolveTarget() (Toolchain, error) {
	if t.Main.Stem == "" {
		return Toolchain{}, ErrNoEntryPoint
	}
	if t.Main.Ext == ExtC {
		return Toolchain{Compiler: "$(CC)", Flags: "$(CFLAGS)", LibFlags: "$(CLIBFLAGS)"}, nil
	}
	return Toolchain{Compiler: "$(CXX)", Flags: "$(CXXFLAGS)", LibFlags: "$(CCLIBFLAGS)"}, nil
}
