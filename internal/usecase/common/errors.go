package common

import (
	"errors"

	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
)

// Wrap приводит ошибку хранилища к DATABASE_ERROR, сохраняя уже типизированные ошибки.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}
