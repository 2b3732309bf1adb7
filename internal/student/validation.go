package student

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Failure codes, one per field marker.
const (
	CodeRequired      = "required"
	CodeInvalidFormat = "invalid format"
	CodeAlreadyExists = "already exists"
	CodeFutureDate    = "cannot be a future date"
	CodeInvalidRange  = "invalid range"
)

const (
	MinAge = 16
	MaxAge = 100
	MinGPA = 0.0
	MaxGPA = 4.0
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]?[0-9]{7,15}$`)
)

// FieldError is a single rule failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors is the ordered list of failures for one candidate.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "\n")
}

// Fields maps each failing field to its marker code.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, fe := range v {
		out[fe.Field] = fe.Code
	}
	return out
}

// Has reports whether field failed with code.
func (v ValidationErrors) Has(field, code string) bool {
	for _, fe := range v {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}

// EmailChecker answers whether another record already uses email.
type EmailChecker interface {
	EmailExists(ctx context.Context, email string, excludeID int) (bool, error)
}

// Validator runs the record rules. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	emails   EmailChecker
	now      func() time.Time
}

// NewValidator builds a Validator. A nil checker skips the uniqueness rule.
func NewValidator(emails EmailChecker, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{
		validate: NewStructValidator(now),
		emails:   emails,
		now:      now,
	}
}

// NewStructValidator returns a go-playground validator for the validate
// tags on Student. Field errors are named by their JSON keys and dates are
// compared against now.
func NewStructValidator(now func() time.Time) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// An unset Date counts as missing for required.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Date); ok && !d.IsZero() {
			return d.String()
		}
		return nil
	}, Date{})
	_ = v.RegisterValidation("student_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("student_phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	// Dates arrive as YYYY-MM-DD, which orders lexically.
	_ = v.RegisterValidation("student_not_future", func(fl validator.FieldLevel) bool {
		return fl.Field().String() <= DateOf(now()).String()
	})
	return v
}

// ruleOrder is the order failures are reported in.
var ruleOrder = []string{"firstName", "lastName", "email", "major", "enrollmentDate", "age", "gpa", "phoneNumber"}

// failureFor maps a failed tag on a field to its marker code and message.
func failureFor(field, tag string) FieldError {
	fe := FieldError{Field: field}
	switch field {
	case "firstName":
		fe.Code, fe.Message = CodeRequired, "First name is required"
	case "lastName":
		fe.Code, fe.Message = CodeRequired, "Last name is required"
	case "email":
		if tag == "required" {
			fe.Code, fe.Message = CodeRequired, "Email is required"
		} else {
			fe.Code, fe.Message = CodeInvalidFormat, "Email format is invalid"
		}
	case "major":
		fe.Code, fe.Message = CodeRequired, "Major is required"
	case "enrollmentDate":
		if tag == "required" {
			fe.Code, fe.Message = CodeRequired, "Enrollment date is required"
		} else {
			fe.Code, fe.Message = CodeFutureDate, "Enrollment date cannot be in the future"
		}
	case "age":
		fe.Code, fe.Message = CodeInvalidRange, fmt.Sprintf("Age must be between %d and %d", MinAge, MaxAge)
	case "gpa":
		fe.Code, fe.Message = CodeInvalidRange, "GPA must be between 0.0 and 4.0"
	case "phoneNumber":
		fe.Code, fe.Message = CodeInvalidFormat, "Phone number format is invalid"
	}
	return fe
}

// Validate evaluates every rule against s and returns all failures. The
// error is non-nil only when the uniqueness lookup itself fails.
func (v *Validator) Validate(ctx context.Context, s *Student) (ValidationErrors, error) {
	c := *s
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Major = strings.TrimSpace(c.Major)
	c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)

	// The validator stops at the first failing tag of a field, so each
	// field reports at most one failure.
	failed := make(map[string]string)
	if err := v.validate.Struct(&c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("validating student: %w", err)
		}
		for _, fe := range fieldErrs {
			failed[fe.Field()] = fe.Tag()
		}
	}

	if _, bad := failed["email"]; !bad && v.emails != nil {
		exists, err := v.emails.EmailExists(ctx, strings.ToLower(c.Email), c.ID)
		if err != nil {
			return nil, fmt.Errorf("checking email uniqueness: %w", err)
		}
		if exists {
			failed["email"] = "unique"
		}
	}

	var errs ValidationErrors
	for _, field := range ruleOrder {
		tag, ok := failed[field]
		if !ok {
			continue
		}
		if field == "email" && tag == "unique" {
			errs = append(errs, FieldError{Field: field, Code: CodeAlreadyExists, Message: "Email already exists"})
			continue
		}
		errs = append(errs, failureFor(field, tag))
	}
	return errs, nil
}
