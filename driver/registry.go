package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/teranos/buildergen/emit"
	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/version"
)

// Change is one builder file the run created or rewrote.
type Change struct {
	Path   string
	Before []byte
	After  []byte
}

// Created reports whether the file did not exist before the run.
func (c Change) Created() bool { return c.Before == nil }

// Registry owns the per-run state: opened documents, emitted files, the
// visited set and the filesystem they are written to.
type Registry struct {
	base afero.Fs
	fs   afero.Fs
	temp bool

	docs    map[string]*emit.Document
	before  map[string][]byte
	pending map[string][]byte
	written map[string][]byte
	visited map[string]bool
	// builder path -> shape ID that claimed it
	claims map[string]string
}

// NewRegistry writes straight to fs.
func NewRegistry(fs afero.Fs) *Registry {
	return newRegistry(fs, fs, false)
}

// NewOverlayRegistry reads from fs and keeps every write in memory. check
// and --dry-run use it; nothing reaches fs.
func NewOverlayRegistry(fs afero.Fs) *Registry {
	overlay := afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(fs), afero.NewMemMapFs())
	return newRegistry(fs, overlay, true)
}

func newRegistry(base, fs afero.Fs, temp bool) *Registry {
	return &Registry{
		base:    base,
		fs:      fs,
		temp:    temp,
		docs:    make(map[string]*emit.Document),
		before:  make(map[string][]byte),
		pending: make(map[string][]byte),
		written: make(map[string][]byte),
		visited: make(map[string]bool),
		claims:  make(map[string]string),
	}
}

// Fs is the filesystem the run reads and writes.
func (r *Registry) Fs() afero.Fs { return r.fs }

// Visit marks a shape as processed. It returns false when the shape was
// already visited in this run.
func (r *Registry) Visit(shapeID string) bool {
	if r.visited[shapeID] {
		return false
	}
	r.visited[shapeID] = true
	return true
}

// Claim records that shapeID's builder lives at path. A second shape
// claiming the same path is an ambiguous nested reference.
func (r *Registry) Claim(path, shapeID string) error {
	if owner, ok := r.claims[path]; ok && owner != shapeID {
		return errors.WithHint(
			errors.Wrapf(errors.ErrAmbiguousNestedReference,
				"%s and %s both map to %s", owner, shapeID, path),
			"rename one of the types so their builders get distinct names")
	}
	r.claims[path] = shapeID
	return nil
}

// Read returns the current content of path, including writes made earlier
// in the run. A missing file is (nil, false, nil).
func (r *Registry) Read(path string) ([]byte, bool, error) {
	if src, ok := r.pending[path]; ok {
		return src, true, nil
	}
	src, err := afero.ReadFile(r.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read %s", path)
	}
	return src, true, nil
}

// Open returns the document at path, parsing it on first use. A missing
// file yields a new document in package pkg. Files stamped with a newer
// major format are refused.
func (r *Registry) Open(path, pkg string) (*emit.Document, error) {
	if doc, ok := r.docs[path]; ok {
		return doc, nil
	}

	src, exists, err := r.Read(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		doc := emit.NewDocument(path, pkg)
		r.docs[path] = doc
		return doc, nil
	}
	if err := CheckFormat(path, src); err != nil {
		return nil, err
	}

	doc, err := emit.Parse(path, src)
	if err != nil {
		return nil, err
	}
	r.docs[path] = doc
	return doc, nil
}

// CheckFormat refuses files written by a newer major format of the tool.
func CheckFormat(path string, src []byte) error {
	format, ok := emit.HeaderFormat(src)
	if !ok || version.Compatible(format) {
		return nil
	}
	return errors.WithHintf(
		errors.Wrapf(errors.ErrNewerBuilderFormat,
			"%s has format v%s, this build writes v%s", path, format, version.FormatVersion),
		"upgrade buildergen to reconcile %s", filepath.Base(path))
}

// Write records content for path and writes it out. It reports whether the
// content differs from what the file held.
func (r *Registry) Write(path string, content []byte) (bool, error) {
	prev, exists, err := r.Read(path)
	if err != nil {
		return false, err
	}
	if exists && bytes.Equal(prev, content) {
		return false, nil
	}
	if _, seen := r.before[path]; !seen {
		if exists {
			r.before[path] = prev
		} else {
			r.before[path] = nil
		}
	}

	r.pending[path] = content
	delete(r.docs, path)
	return true, r.flush(path)
}

func (r *Registry) flush(path string) error {
	content, ok := r.pending[path]
	if !ok {
		return nil
	}
	if err := r.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := afero.WriteFile(r.fs, path, content, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	r.written[path] = content
	delete(r.pending, path)
	return nil
}

// FlushAll writes anything still pending. Writes are normally eager, so
// this only matters after a failed write.
func (r *Registry) FlushAll() error {
	paths := make([]string, 0, len(r.pending))
	for p := range r.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := r.flush(p); err != nil {
			return err
		}
	}
	return nil
}

// Written lists the files the run wrote, sorted.
func (r *Registry) Written() []string {
	out := make([]string, 0, len(r.written))
	for p := range r.written {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Changes lists every written file with its content before and after the
// run. Files rewritten back to their original bytes are left out.
func (r *Registry) Changes() []Change {
	var out []Change
	for _, p := range r.Written() {
		before := r.before[p]
		after := r.written[p]
		if before != nil && bytes.Equal(before, after) {
			continue
		}
		out = append(out, Change{Path: p, Before: before, After: after})
	}
	return out
}

// DisposeTemp drops the parsed documents and, for overlay registries, the
// in-memory layer. The visited set and claims survive so a report can
// still be read.
func (r *Registry) DisposeTemp() {
	r.docs = make(map[string]*emit.Document)
	r.pending = make(map[string][]byte)
	if r.temp {
		r.fs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(r.base), afero.NewMemMapFs())
	}
}
