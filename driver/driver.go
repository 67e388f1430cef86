// Package driver walks shapes breadth-first and keeps one builder file per
// shape in step with its declaration.
package driver

import (
	"context"
	"go/types"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/buildergen/builder"
	"github.com/teranos/buildergen/emit"
	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/logger"
	"github.com/teranos/buildergen/naming"
	"github.com/teranos/buildergen/shape"
)

// Mode selects how existing builder files are treated.
type Mode string

const (
	// ModeOverwrite regenerates every builder from scratch.
	ModeOverwrite Mode = "overwrite"
	// ModeMerge reconciles existing builders and keeps manual edits.
	ModeMerge Mode = "merge"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeOverwrite || m == ModeMerge }

// Options configures a run.
type Options struct {
	Mode Mode
	// OutputDir places every builder in one directory instead of beside
	// its shape.
	OutputDir string
	Seed      uint64
}

// Placer maps a directory to the package code written there belongs to.
// It is required when Options.OutputDir is set.
type Placer interface {
	PackageFor(dir string) (path, name string, err error)
}

type item struct {
	shape *shape.Shape
	// name the builder is named after
	name  string
	owner string
	depth int
}

// Driver processes shapes one at a time. Each shape's file is written
// before the next is dequeued.
type Driver struct {
	port  shape.Port
	reg   *Registry
	opts  Options
	synth *builder.Synthesizer
	log   *zap.SugaredLogger
}

// New returns a driver reading shapes from port and writing through reg.
func New(port shape.Port, reg *Registry, opts Options) *Driver {
	if opts.Mode == "" {
		opts.Mode = ModeMerge
	}
	return &Driver{
		port:  port,
		reg:   reg,
		opts:  opts,
		synth: builder.NewSynthesizer(builder.NewFaker(opts.Seed)),
		log:   logger.ComponentLogger("driver"),
	}
}

// Roots resolves explicit type names, or lists every shape in scope when
// none are given.
func Roots(port shape.Port, names []string) ([]*shape.Shape, error) {
	if len(names) == 0 {
		return port.Shapes(), nil
	}
	roots := make([]*shape.Shape, 0, len(names))
	for _, name := range names {
		s, err := port.Resolve(name)
		if err != nil {
			return nil, err
		}
		roots = append(roots, s)
	}
	return roots, nil
}

// Run processes roots and everything reachable from them. A failing root
// stops the run, as does cancellation. Any other failure of a nested shape
// is reported and its subtree skipped.
func (d *Driver) Run(ctx context.Context, roots []*shape.Shape) (*Report, error) {
	if !d.opts.Mode.Valid() {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "unknown mode %q", d.opts.Mode)
	}
	log := logger.FromContext(ctx, d.log).With(logger.FieldMode, string(d.opts.Mode))
	start := time.Now()
	report := &Report{Mode: d.opts.Mode}

	queue := make([]item, 0, len(roots))
	for _, s := range roots {
		queue = append(queue, item{shape: s, name: s.Name})
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "run cancelled")
		}
		it := queue[0]
		queue = queue[1:]

		if !d.reg.Visit(it.shape.ID) {
			continue
		}

		res, regs, err := d.process(it)
		if err != nil {
			res.Outcome = OutcomeFailed
			if it.depth > 0 && errors.IsSkipped(err) {
				res.Outcome = OutcomeSkipped
			}
			res.Err = err
			report.add(res)
			if it.depth == 0 || errors.IsAny(err, context.Canceled, context.DeadlineExceeded) {
				return report, errors.Wrapf(err, "failed to build %s", it.shape.Name)
			}
			log.Warnw("skipping nested shape",
				logger.FieldShape, it.shape.ID,
				logger.FieldOwner, it.owner,
				logger.FieldOutcome, string(res.Outcome),
				logger.FieldError, err.Error())
			continue
		}

		log.Debugw("shape processed",
			logger.FieldShape, it.shape.ID,
			logger.FieldBuilder, res.Builder,
			logger.FieldOutcome, string(res.Outcome),
			logger.FieldDepth, it.depth)
		report.add(res)

		for _, r := range regs {
			if r.Shape == nil {
				continue
			}
			log.Debugw("nested shape queued",
				logger.FieldShape, r.Shape.ID,
				logger.FieldOwner, r.Owner,
				logger.FieldField, r.Field,
				logger.FieldType, r.TypeText)
			queue = append(queue, item{shape: r.Shape, name: r.Name, owner: r.Owner, depth: it.depth + 1})
		}
	}

	if err := d.reg.FlushAll(); err != nil {
		return report, err
	}
	report.Duration = time.Since(start)
	log.Infow("run complete",
		logger.FieldCount, len(report.Results),
		logger.FieldDurationMS, report.Duration.Milliseconds())
	return report, nil
}

func (d *Driver) process(it item) (Result, []builder.Registration, error) {
	s := it.shape
	name := it.name
	res := Result{ShapeID: s.ID, Shape: name, Builder: naming.BuilderName(name), Depth: it.depth}

	dir, pkgPath, pkgName, err := d.place(s)
	if err != nil {
		return res, nil, err
	}
	path := filepath.Join(dir, naming.FileName(name))
	res.Path = path

	if err := d.reg.Claim(path, s.ID); err != nil {
		return res, nil, err
	}

	q := shape.NewQualifier(pkgPath)
	typeText, err := d.typeText(s, q)
	if err != nil {
		return res, nil, err
	}
	fields, err := d.port.FieldsOf(s, q)
	if err != nil {
		return res, nil, err
	}
	target := builder.Target{Shape: s, Name: name, Type: typeText, Fields: fields}

	var (
		doc    *emit.Document
		entity *builder.Entity
		regs   []builder.Registration
	)
	switch d.opts.Mode {
	case ModeOverwrite:
		prev, exists, err := d.reg.Read(path)
		if err != nil {
			return res, nil, err
		}
		if exists {
			if err := CheckFormat(path, prev); err != nil {
				return res, nil, err
			}
			if !emit.IsBuilderFile(prev) {
				d.log.Warnw("replacing a file without the builder header",
					logger.FieldPath, path,
					logger.FieldBuilder, res.Builder)
			}
		}
		doc = emit.NewDocument(path, pkgName)
		entity, regs = d.synth.Synthesize(target)

	case ModeMerge:
		doc, err = d.reg.Open(path, pkgName)
		if err != nil {
			return res, nil, err
		}
		existing, err := doc.Entity(res.Builder)
		if err != nil {
			return res, nil, err
		}
		if existing != nil && existing.Fixed {
			res.Outcome = OutcomeFixed
			return res, nil, nil
		}
		entity, regs = d.synth.Reconcile(existing, target)
		// Reconcile reports only fields new to the builder. Walking the
		// rest too brings back nested builders whose files were deleted;
		// the visited set stops repeats.
		regs = append(regs, rediscover(name, fields, regs)...)
	}

	content, err := doc.Render(entity, q.Imports())
	if err != nil {
		return res, nil, err
	}

	_, existed, err := d.reg.Read(path)
	if err != nil {
		return res, nil, err
	}
	changed, err := d.reg.Write(path, content)
	if err != nil {
		return res, nil, err
	}
	switch {
	case !existed:
		res.Outcome = OutcomeCreated
	case changed:
		res.Outcome = OutcomeUpdated
	default:
		res.Outcome = OutcomeUnchanged
	}
	return res, regs, nil
}

// rediscover walks the object fields of an existing builder that seen does
// not already cover.
func rediscover(owner string, fields []shape.Field, seen []builder.Registration) []builder.Registration {
	covered := make(map[string]bool, len(seen))
	for _, r := range seen {
		covered[r.Field] = true
	}
	var out []builder.Registration
	for _, r := range builder.Discover(owner, fields) {
		if !covered[r.Field] {
			out = append(out, r)
		}
	}
	return out
}

// place decides where s's builder lives.
func (d *Driver) place(s *shape.Shape) (dir, pkgPath, pkgName string, err error) {
	if d.opts.OutputDir == "" {
		if s.Dir == "" {
			return "", "", "", errors.UnsupportedShape(s.Name, "declared outside the scanned module")
		}
		return s.Dir, s.PkgPath, s.PkgName, nil
	}

	placer, ok := d.port.(Placer)
	if !ok {
		return "", "", "", errors.AssertionFailedf("shape source %T cannot place builders in %s", d.port, d.opts.OutputDir)
	}
	pkgPath, pkgName, err = placer.PackageFor(d.opts.OutputDir)
	if err != nil {
		return "", "", "", err
	}
	if pkgPath != s.PkgPath && !s.Exported {
		return "", "", "", errors.UnsupportedShape(s.Name, "unexported type is not reachable from "+pkgPath)
	}
	return d.opts.OutputDir, pkgPath, pkgName, nil
}

// typeText is how the builder's package spells the built type.
func (d *Driver) typeText(s *shape.Shape, q *shape.Qualifier) (string, error) {
	switch src := s.Source.(type) {
	case shape.LiteralAlias:
		if isAnonymous(s) {
			return q.TypeString(src.Literal), nil
		}
	case shape.StructDecl, shape.OpaqueAlias:
	default:
		return "", errors.UnsupportedShape(s.Name, "neither a struct declaration nor an alias of one")
	}
	if q.Local(s.PkgPath) {
		return s.Name, nil
	}
	return q.Qualify(types.NewPackage(s.PkgPath, s.PkgName)) + "." + s.Name, nil
}

// isAnonymous reports whether s is a struct literal found inside another
// shape's field rather than a declared type.
func isAnonymous(s *shape.Shape) bool {
	_, literal := s.Source.(shape.LiteralAlias)
	return literal && s.File == ""
}
