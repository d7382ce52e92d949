// Package validation checks decoded request bodies against their struct tags
// and turns failures into field-level issues suitable for a 400 reply.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Issue is one failed rule.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned for malformed or invalid request data.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return "invalid request data: " + strings.Join(parts, "; ")
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v (a pointer to struct). Messages come from the field's
// `msg` tag when present.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := &Error{}
	for _, fe := range verrs {
		msg := ""
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			msg = sf.Tag.Get("msg")
		}
		if msg == "" {
			msg = fmt.Sprintf("failed %q rule", fe.Tag())
		}
		out.Issues = append(out.Issues, Issue{Field: fe.Field(), Message: msg})
	}
	return out
}

// Decode reads JSON from r into dst and validates it. Malformed JSON is
// reported as an *Error as well.
func Decode(r io.Reader, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return &Error{Issues: []Issue{{Field: "body", Message: "Malformed JSON body"}}}
	}
	return Struct(dst)
}
