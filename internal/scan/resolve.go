package scan

import (
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DependencyEdge associates one object file with the headers its source
// includes, in header discovery order.
type DependencyEdge struct {
	Object  string
	Headers []string
}

// ResolveAll maps every compiled unit to its header dependency list. Units
// are scanned in parallel, but each goroutine writes only its own slot, so
// the result keeps object discovery order and matches a sequential scan
// exactly.
func (t *Tree) ResolveAll() ([]DependencyEdge, error) {
	headers := t.Set(ExtH).Names
	edges := make([]DependencyEdge, t.Objects.Count)

	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())

	for i, object := range t.Objects.Names {
		eg.Go(func() error {
			edges[i] = DependencyEdge{Object: object}

			src, ok := t.sourceFor(object)
			if !ok {
				// a unit whose source was never classified: empty list, not an error
				return nil
			}
			includes, err := FindIncludes(filepath.Join(t.Path, src), headers)
			if err != nil {
				return err
			}
			edges[i].Headers = includes
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return edges, nil
}

// sourceFor reconstructs the source file name behind an object name:
// stem.c if that was classified, then stem.cpp.
func (t *Tree) sourceFor(object string) (string, bool) {
	stem := strings.TrimSuffix(object, ExtObj)
	if c := stem + ExtC; slices.Contains(t.Set(ExtC).Names, c) {
		return c, true
	}
	if cpp := stem + ExtCpp; slices.Contains(t.Set(ExtCpp).Names, cpp) {
		return cpp, true
	}
	return "", false
}
