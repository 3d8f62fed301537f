package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode unmarshals a JSON payload into dst. A malformed or empty payload is
// a 400.
func Decode(payload []byte, dst interface{}) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return apperrors.BadRequest("Invalid payload", errors.New("empty payload"))
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return apperrors.BadRequest("Invalid payload", err)
	}
	return nil
}

// Validate checks the validate struct tags of v. The message names the first
// failing field by its JSON name.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return apperrors.BadRequest(fmt.Sprintf("%s is required", fe.Field()), err)
		case "min", "max", "gte", "lte", "gt", "lt":
			return apperrors.BadRequest(fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()), err)
		case "oneof":
			return apperrors.BadRequest(fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()), err)
		default:
			return apperrors.BadRequest(fmt.Sprintf("%s is invalid", fe.Field()), err)
		}
	}
	return apperrors.BadRequest("Invalid payload", err)
}

// FlexID is an identifier that may arrive as a JSON number or as a numeric
// string. Decoding never fails; Present and Valid tell the handler what
// was sent.
type FlexID struct {
	value   int64
	present bool
	valid   bool
}

func NewFlexID(v int64) FlexID {
	return FlexID{value: v, present: true, valid: true}
}

func (f *FlexID) UnmarshalJSON(b []byte) error {
	*f = FlexID{}
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		return nil
	}
	f.present = true

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
		if s == "" {
			f.present = false
			return nil
		}
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	f.value = v
	f.valid = true
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	if !f.valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// Present reports whether a non-null, non-empty value was sent.
func (f FlexID) Present() bool { return f.present }

// Valid reports whether the value parsed as an integer.
func (f FlexID) Valid() bool { return f.valid }

func (f FlexID) Int64() int64 { return f.value }
