package service

import (
	"errors"

	"github.com/lead-marketplace/internal/domain/shared"
)

// invalidInput classifies a domain validation error. Errors that already
// carry a kind are returned unchanged.
func invalidInput(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.Error
	if errors.As(err, &de) {
		return err
	}
	return shared.InvalidInput("%s", err.Error())
}
