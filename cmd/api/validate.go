package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"orderservice/pkg/order"
)

const missingFieldsMessage = "Missing required fields: userId, items (array), totalAmount"

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return order.Status(fl.Field().String()).Valid()
	})
	return v
}

// validationMessage turns validator output into the client facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" || (fe.Tag() == "min" && fe.Field() == "items") {
			return missingFieldsMessage
		}
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "status":
		return fmt.Sprintf("Invalid status %q, expected one of: %s", fe.Value(), statusList())
	case "gte":
		return fmt.Sprintf("Invalid value for %s: must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("Invalid value for %s", field)
	}
}

func statusList() string {
	names := make([]string, 0, len(order.Statuses))
	for _, s := range order.Statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
