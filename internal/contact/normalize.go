package contact

import (
	"strconv"
	"strings"
)

// Normalize trims every field of raw and parses the age column. Missing
// fields become empty strings. Age text that is not a base-10 integer is
// marked AgeNotInteger rather than failing, so Validate can reject it.
func Normalize(raw RawRow) Candidate {
	get := func(col string) string {
		return strings.TrimSpace(raw.Fields[col])
	}

	return Candidate{
		Line:        raw.Line,
		FirstName:   get(ColFirstName),
		LastName:    get(ColLastName),
		Email:       get(ColEmail),
		PhoneNumber: get(ColPhoneNumber),
		Eircode:     get(ColEircode),
		Age:         ParseAge(get(ColAge)),
		Malformed:   raw.Malformed,
	}
}

// ParseAge converts trimmed age text into an Age.
func ParseAge(text string) Age {
	if text == "" {
		return Age{State: AgeMissing}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return Age{Text: text, State: AgeNotInteger}
	}
	return Age{Text: text, Value: n, State: AgeInteger}
}
