package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
)

// validationError converts validator failures into the shared validation
// error shape with one entry per offending field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "validation failed")
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()[:1])+fe.Field()[1:]+": "+fe.Tag())
	}
	return appErrors.Validationf(fields...)
}
