package service

import (
	"log"

	"github.com/sangkips/tillbook-api/pkg/apperror"
)

// unavailable logs a storage failure and turns it into a retryable error.
// AppErrors pass through untouched.
func unavailable(op string, err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	log.Printf("%s failed: %v", op, err)
	return apperror.Wrap(err, "Service temporarily unavailable. Please try again.")
}
