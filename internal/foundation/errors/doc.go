// Package errors provides the classified error primitives used across zensite.
//
// A ClassifiedError carries a category (which part of the build failed), a
// severity (whether the run must stop) and a small structured context such as
// the offending file, line or document identifier. Errors are built with the
// fluent ErrorBuilder:
//
//	err := errors.MetadataError("too many recursions").
//		WithCause(ErrTooManyRecursions).
//		WithContext("dir", dir).
//		Build()
//
// The CLIErrorAdapter maps categories to process exit codes.
package errors
