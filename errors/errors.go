// Package errors is the error vocabulary of buildergen.
//
// It re-exports github.com/cockroachdb/errors so every package wraps,
// hints and inspects errors the same way, and declares the sentinels the
// builder engine reports:
//
//	if errors.Is(err, errors.ErrShapeNotFound) {
//	    // the requested root does not exist in the scanned packages
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing hints and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	GetAllHints        = crdb.GetAllHints
	GetAllDetails      = crdb.GetAllDetails
	FlattenHints       = crdb.FlattenHints
	FlattenDetails     = crdb.FlattenDetails
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// AssertionFailedf reports a broken internal invariant.
var AssertionFailedf = crdb.AssertionFailedf

// Sentinels raised by the builder engine. Wrap them to add the shape or
// file involved; callers match with Is.
var (
	// ErrShapeNotFound: a requested root shape is not declared in the scanned packages.
	ErrShapeNotFound = New("shape not found")

	// ErrUnsupportedShapeForm: the type is neither a struct declaration nor an alias of one.
	ErrUnsupportedShapeForm = New("unsupported shape form")

	// ErrAmbiguousNestedReference: two distinct shapes resolve to the same builder in one run.
	ErrAmbiguousNestedReference = New("ambiguous nested reference")

	// ErrNewerBuilderFormat: the builder file was written by a newer major version.
	ErrNewerBuilderFormat = New("builder written by a newer buildergen")

	// ErrInvalidConfig: configuration failed validation.
	ErrInvalidConfig = New("invalid configuration")
)

// ShapeNotFound wraps ErrShapeNotFound with the missing name and a hint
// listing where the loader looked.
func ShapeNotFound(name string, patterns []string, closest []string) error {
	err := Wrapf(ErrShapeNotFound, "%s", name)
	err = WithHintf(err, "scanned %v; check the --type name or the source path", patterns)
	if len(closest) > 0 {
		err = WithDetailf(err, "known shapes with similar names: %v", closest)
	}
	return err
}

// UnsupportedShape wraps ErrUnsupportedShapeForm with the offending type and its reason.
func UnsupportedShape(name, reason string) error {
	return Wrapf(ErrUnsupportedShapeForm, "%s: %s", name, reason)
}

// IsSkipped reports whether err means a nested shape was deliberately
// left alone rather than failing to build.
func IsSkipped(err error) bool {
	return err != nil && IsAny(err,
		ErrAmbiguousNestedReference,
		ErrNewerBuilderFormat,
	)
}
