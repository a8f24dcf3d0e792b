package contact

// validate.go checks a Candidate against the rules that apply at its call
// site and folds the result into an Outcome.
//
// Every applicable field is checked; failures are reported in column order
// so diagnostics are stable across runs.

import (
	"fmt"
	"strings"
)

// ReasonMalformed is the single reason reported for a row whose structure
// could not be read.
const ReasonMalformed = "malformed row"

// ValidationError represents a single failed field rule.
type ValidationError struct {
	Field   string // Column name
	Value   string // The rejected value
	Message string // Human-readable rule description
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// InvalidError aggregates every failed rule for one record.
type InvalidError struct {
	Line   int
	Errors []ValidationError
}

func (e *InvalidError) Error() string {
	return "invalid input data: " + strings.Join(e.Reasons(), "; ")
}

// Reasons returns the failures as strings, in column order.
func (e *InvalidError) Reasons() []string {
	out := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		out[i] = ve.Error()
	}
	return out
}

// Profile selects which fields apply at a call site.
type Profile struct {
	Name        string
	Phone       bool // phone_number is required and checked
	Eircode     bool // eircode is required and checked
	AgeRequired bool // age must be present; when false it is checked only if present
}

var (
	// ImportProfile applies to bulk CSV rows.
	ImportProfile = Profile{Name: "import", AgeRequired: true}

	// FormProfile applies to browser form submissions.
	FormProfile = Profile{Name: "form", Phone: true, Eircode: true}
)

// Outcome is the result of validating one Candidate. Exactly one of
// Record and Invalid is meaningful, as reported by Valid.
type Outcome struct {
	Line    int
	Record  Record
	Invalid *InvalidError
}

// Valid reports whether the candidate passed every applicable rule.
func (o Outcome) Valid() bool {
	return o.Invalid == nil
}

// Reasons returns the rejection reasons, or nil for a valid outcome.
func (o Outcome) Reasons() []string {
	if o.Invalid == nil {
		return nil
	}
	return o.Invalid.Reasons()
}

// Err returns the outcome as an error, or nil when valid.
func (o Outcome) Err() error {
	if o.Invalid == nil {
		return nil
	}
	return o.Invalid
}

// Validate checks c against profile p.
func Validate(c Candidate, p Profile) Outcome {
	if c.Malformed != "" {
		return Outcome{
			Line: c.Line,
			Invalid: &InvalidError{
				Line:   c.Line,
				Errors: []ValidationError{{Value: c.Malformed, Message: ReasonMalformed}},
			},
		}
	}

	var errs []ValidationError
	check := func(field, value string, kind FieldKind, msg string) {
		if value == "" {
			errs = append(errs, ValidationError{Field: field, Message: "required field is empty"})
			return
		}
		if !Check(kind, value) {
			errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
		}
	}

	check(ColFirstName, c.FirstName, KindName, "must be letters or digits, 1-20 characters")
	check(ColLastName, c.LastName, KindName, "must be letters or digits, 1-20 characters")
	check(ColEmail, c.Email, KindEmail, "must look like name@domain.tld")
	if p.Phone {
		check(ColPhoneNumber, c.PhoneNumber, KindPhone, "must be exactly 10 digits")
	}
	if p.Eircode {
		check(ColEircode, c.Eircode, KindEircode, "must be a digit followed by 5 letters or digits")
	}

	var age *int
	switch c.Age.State {
	case AgeMissing:
		if p.AgeRequired {
			errs = append(errs, ValidationError{Field: ColAge, Message: "required field is empty"})
		}
	case AgeNotInteger:
		errs = append(errs, ValidationError{Field: ColAge, Value: c.Age.Text, Message: "must be a whole number"})
	case AgeInteger:
		if !AgeInRange(c.Age.Value) {
			errs = append(errs, ValidationError{
				Field:   ColAge,
				Value:   c.Age.Text,
				Message: fmt.Sprintf("must be between %d and %d", MinAge, MaxAge),
			})
		} else {
			v := c.Age.Value
			age = &v
		}
	}

	if len(errs) > 0 {
		return Outcome{Line: c.Line, Invalid: &InvalidError{Line: c.Line, Errors: errs}}
	}

	rec := Record{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Age:       age,
	}
	if p.Phone {
		rec.PhoneNumber = c.PhoneNumber
	}
	if p.Eircode {
		rec.Eircode = c.Eircode
	}
	return Outcome{Line: c.Line, Record: rec}
}
