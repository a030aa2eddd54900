package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates v against its `validate` tags and returns a readable error
// listing every failed field.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return toReadable(v, err)
	}
	return nil
}

func toReadable(input any, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s%s' (got '%v')",
			fe.StructField(), fe.Tag(), param(fe.Param()), fe.Value()))
	}
	return fmt.Errorf("invalid %T: %s", input, strings.Join(msgs, "; "))
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
