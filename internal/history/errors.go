package history

import (
	"git.home.luguber.info/inful/zensite/internal/foundation/errors"
)

// Sentinel errors for history operations. Callers match them with errors.Is;
// the returned errors carry the underlying cause.
var (
	ErrOpenFailed   = errors.StoreError("could not open build history database").Build()
	ErrSchemaFailed = errors.StoreError("failed to initialize build history schema").Build()
	ErrWriteFailed  = errors.StoreError("failed to record build run").Build()
	ErrQueryFailed  = errors.StoreError("failed to query build history").Build()
)

func wrap(sentinel *errors.ClassifiedError, err error) error {
	return errors.WrapError(err, sentinel.Category(), sentinel.Message()).Build()
}
