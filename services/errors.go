package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cppla/topicbbs/apperrors"
)

// lookupErr classifies a failed single-record load of the named entity.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.ErrNotFound, what+" not found", err)
	}
	return apperrors.Classify(err, "load "+what)
}
