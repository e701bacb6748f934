package service

import (
	"github.com/rewearapp/rewear-server/internal/errors"
	"github.com/rewearapp/rewear-server/internal/store"
)

// mapStoreErr converts storage sentinels into domain errors. Unknown errors
// pass through unchanged for the caller to wrap.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return errors.ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return errors.ErrAlreadyExists
	case errors.Is(err, store.ErrInsufficientBalance):
		return errors.ErrInsufficientBalance
	case errors.Is(err, store.ErrStateConflict):
		return errors.ErrConflict
	default:
		return err
	}
}
