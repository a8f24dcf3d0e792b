package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/JonMunkholm/contacts/internal/contact"
)

// ErrInvalidBody is returned when a submission body cannot be decoded.
var ErrInvalidBody = errors.New("invalid request body")

// FormText is a form field that accepts a JSON string, a JSON number or
// null. Browsers post age and phone_number either way.
type FormText string

func (f *FormText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FormText(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*f = FormText(n.String())
	}
	return nil
}

// ContactForm is the body of a form submission.
type ContactForm struct {
	FirstName   FormText `json:"first_name"`
	LastName    FormText `json:"last_name"`
	Email       FormText `json:"email"`
	PhoneNumber FormText `json:"phone_number"`
	Eircode     FormText `json:"eircode"`
	Age         FormText `json:"age"`
}

// FormFromValues builds a ContactForm from url-encoded form values.
func FormFromValues(v url.Values) ContactForm {
	return ContactForm{
		FirstName:   FormText(v.Get(contact.ColFirstName)),
		LastName:    FormText(v.Get(contact.ColLastName)),
		Email:       FormText(v.Get(contact.ColEmail)),
		PhoneNumber: FormText(v.Get(contact.ColPhoneNumber)),
		Eircode:     FormText(v.Get(contact.ColEircode)),
		Age:         FormText(v.Get(contact.ColAge)),
	}
}

// RawRow converts the form into a source row. Form submissions carry no
// line number.
func (f ContactForm) RawRow() contact.RawRow {
	return contact.RawRow{Fields: map[string]string{
		contact.ColFirstName:   string(f.FirstName),
		contact.ColLastName:    string(f.LastName),
		contact.ColEmail:       string(f.Email),
		contact.ColPhoneNumber: string(f.PhoneNumber),
		contact.ColEircode:     string(f.Eircode),
		contact.ColAge:         string(f.Age),
	}}
}

// DecodeForm reads a ContactForm from a JSON body.
func DecodeForm(r io.Reader) (ContactForm, error) {
	var f ContactForm
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return ContactForm{}, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return f, nil
}
