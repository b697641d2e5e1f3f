package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// UseJSONNames makes gin's validator report fields by their json tag, so
// error details use the names clients send.
func UseJSONNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonName)
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// ParseError flattens a binding error into field -> message.
func ParseError(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &ve):
		for _, fe := range ve {
			out[fe.Field()] = message(fe)
		}
	case errors.As(err, &typeErr):
		out[typeErr.Field] = fmt.Sprintf("must be a %s", typeErr.Type)
	case errors.As(err, &syntaxErr):
		out["body"] = "malformed JSON"
	case err != nil:
		out["error"] = err.Error()
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be " + fe.Param() + " or more"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "nefield":
		return "must differ from " + fe.Param()
	}
	return fmt.Sprintf("failed the '%s' check", fe.Tag())
}
