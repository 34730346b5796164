// Package artifact derives and manages the images generated from a diagram.
//
// Every diagram stem owns a fixed artifact set: one vector image
// <stem>.svg plus one raster image <stem><suffix>.png per configured
// variant. Names come only from the stem and the variant table, so the set
// for a stem can always be recomputed without tracking state.
//
// [Layout.Remove] and [Layout.Rename] act on the artifacts that exist on
// disk at call time. Missing artifacts are skipped, and a failure on one
// artifact does not stop the others.
package artifact

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mmdrender/pkg/errors"
	"github.com/matzehuels/mmdrender/pkg/mermaid"
)

// Variant is one raster output size.
type Variant struct {
	Suffix string
	Width  int
}

// Artifact is one generated file.
type Artifact struct {
	Format mermaid.Format
	Suffix string // empty for the vector image
	Width  int    // zero for the vector image
	Path   string
}

// Name returns the file name of the artifact.
func (a Artifact) Name() string { return filepath.Base(a.Path) }

// Layout describes where and under which names artifacts are written.
type Layout struct {
	Dir      string
	Variants []Variant
}

// Stem returns the base name of a source path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Set returns the full artifact set for stem: vector first, then variants
// in table order.
func (l Layout) Set(stem string) []Artifact {
	set := make([]Artifact, 0, 1+len(l.Variants))
	set = append(set, Artifact{
		Format: mermaid.FormatSVG,
		Path:   filepath.Join(l.Dir, stem+"."+string(mermaid.FormatSVG)),
	})
	for _, v := range l.Variants {
		set = append(set, Artifact{
			Format: mermaid.FormatPNG,
			Suffix: v.Suffix,
			Width:  v.Width,
			Path:   filepath.Join(l.Dir, stem+v.Suffix+"."+string(mermaid.FormatPNG)),
		})
	}
	return set
}

// For returns the subset of Set(stem) matching the requested formats,
// preserving set order.
func (l Layout) For(stem string, formats []mermaid.Format) []Artifact {
	want := make(map[mermaid.Format]bool, len(formats))
	for _, f := range formats {
		want[f] = true
	}
	var out []Artifact
	for _, a := range l.Set(stem) {
		if want[a.Format] {
			out = append(out, a)
		}
	}
	return out
}

// Existing returns the artifacts of stem currently present on disk.
func (l Layout) Existing(stem string) []Artifact {
	var out []Artifact
	for _, a := range l.Set(stem) {
		if _, err := os.Lstat(a.Path); err == nil {
			out = append(out, a)
		}
	}
	return out
}

// Remove deletes every existing artifact of stem and returns the paths
// removed. Artifacts that vanish concurrently are not errors.
func (l Layout) Remove(stem string) ([]string, error) {
	var (
		removed []string
		errs    []error
	)
	for _, a := range l.Existing(stem) {
		err := os.Remove(a.Path)
		switch {
		case err == nil:
			removed = append(removed, a.Path)
		case os.IsNotExist(err):
		default:
			errs = append(errs, errors.Wrap(errors.ErrCodeArtifactIO, err, "remove %s", a.Name()))
		}
	}
	return removed, stderrors.Join(errs...)
}

// Rename moves every existing artifact of from to the same suffix and
// extension under to. It returns the new paths. Existing artifacts under
// to are overwritten.
func (l Layout) Rename(from, to string) ([]string, error) {
	if from == to {
		return nil, nil
	}
	targets := l.Set(to)

	var (
		renamed []string
		errs    []error
	)
	for i, a := range l.Set(from) {
		if _, err := os.Lstat(a.Path); err != nil {
			continue
		}
		dst := targets[i].Path
		err := os.Rename(a.Path, dst)
		switch {
		case err == nil:
			renamed = append(renamed, dst)
		case os.IsNotExist(err):
		default:
			errs = append(errs, errors.Wrap(errors.ErrCodeArtifactIO, err, "rename %s to %s", a.Name(), filepath.Base(dst)))
		}
	}
	return renamed, stderrors.Join(errs...)
}
