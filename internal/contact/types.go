// Package contact defines contact records and the field rules they must pass
// before they are allowed anywhere near the database.
//
// Records arrive as a RawRow (a browser form post or one CSV line), are
// trimmed into a Candidate by Normalize, and are checked by Validate, which
// returns an Outcome: either a typed Record ready for storage or the ordered
// list of reasons the row was rejected.
package contact

// Column names shared by the CSV header, the JSON form body and the
// contacts table.
const (
	ColFirstName   = "first_name"
	ColLastName    = "last_name"
	ColEmail       = "email"
	ColPhoneNumber = "phone_number"
	ColEircode     = "eircode"
	ColAge         = "age"
)

// Columns lists every contact column in table order.
var Columns = []string{ColFirstName, ColLastName, ColEmail, ColPhoneNumber, ColEircode, ColAge}

// RawRow is one untyped source record keyed by column name.
type RawRow struct {
	// Line is the diagnostic ordinal. For CSV sources the first data row is 2.
	Line int
	// Fields maps column name to raw cell text.
	Fields map[string]string
	// Malformed is set by the source when the record's structure (not its
	// content) could not be read, e.g. a wrong column count.
	Malformed string
}

// AgeState describes what Normalize found in the age column.
type AgeState int

const (
	AgeMissing AgeState = iota
	AgeInteger
	AgeNotInteger
)

// Age is a parsed age cell. Value is meaningful only when State is AgeInteger.
type Age struct {
	Text  string
	Value int
	State AgeState
}

// Candidate is a normalized row that has not been validated yet.
type Candidate struct {
	Line        int
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Eircode     string
	Age         Age
	Malformed   string
}

// Record is a contact that passed every applicable rule.
type Record struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Eircode     string `json:"eircode,omitempty"`
	Age         *int   `json:"age,omitempty"`
}

// Values returns the record's column values in Columns order. Empty optional
// fields become nil so they are stored as NULL.
func (r Record) Values() []any {
	vals := []any{r.FirstName, r.LastName, r.Email, nullable(r.PhoneNumber), nullable(r.Eircode), nil}
	if r.Age != nil {
		vals[5] = *r.Age
	}
	return vals
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
