package serverutils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"rag-pipeline-be/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names, not Go ones
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateRequest checks validate tags and reports the first failing field
// as an *apperror.ValidationError.
func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := fmt.Sprintf("failed on %q", fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("failed on %q (%s)", fe.Tag(), fe.Param())
		}
		return apperror.NewValidationError(fe.Field(), reason)
	}
	return apperror.NewValidationError("request", err.Error())
}
