package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(line int, fields map[string]string) RawRow {
	return RawRow{Line: line, Fields: fields}
}

func TestNormalize_TrimsAndDefaults(t *testing.T) {
	c := Normalize(row(2, map[string]string{
		ColFirstName: "  Jane ",
		ColLastName:  "\tDoe",
		ColEmail:     " jane@doe.com ",
		ColAge:       " 30 ",
	}))

	assert.Equal(t, 2, c.Line)
	assert.Equal(t, "Jane", c.FirstName)
	assert.Equal(t, "Doe", c.LastName)
	assert.Equal(t, "jane@doe.com", c.Email)
	assert.Equal(t, "", c.PhoneNumber, "missing fields normalize to empty string")
	assert.Equal(t, "", c.Eircode)
	assert.Equal(t, AgeInteger, c.Age.State)
	assert.Equal(t, 30, c.Age.Value)
}

func TestNormalize_NilFields(t *testing.T) {
	c := Normalize(RawRow{Line: 5})

	assert.Equal(t, 5, c.Line)
	assert.Empty(t, c.FirstName)
	assert.Equal(t, AgeMissing, c.Age.State)
}

func TestValidate_ImportExampleRow(t *testing.T) {
	out := Validate(Normalize(row(2, map[string]string{
		ColFirstName: "Jane",
		ColLastName:  "Doe",
		ColEmail:     "jane@doe.com",
		ColAge:       "30",
	})), ImportProfile)

	require.True(t, out.Valid(), "reasons: %v", out.Reasons())
	assert.Nil(t, out.Err())
	assert.Equal(t, "Jane", out.Record.FirstName)
	assert.Equal(t, "jane@doe.com", out.Record.Email)
	require.NotNil(t, out.Record.Age)
	assert.Equal(t, 30, *out.Record.Age)
	assert.Empty(t, out.Record.PhoneNumber, "import rows carry no phone number")
}

func TestValidate_CollectsAllReasonsInColumnOrder(t *testing.T) {
	out := Validate(Normalize(row(7, map[string]string{
		ColFirstName: "Mary Ann",
		ColLastName:  "",
		ColEmail:     "not-an-email",
		ColAge:       "12.5",
	})), ImportProfile)

	require.False(t, out.Valid())
	assert.Equal(t, 7, out.Invalid.Line)
	assert.Equal(t, []string{
		"first_name: must be letters or digits, 1-20 characters",
		"last_name: required field is empty",
		"email: must look like name@domain.tld",
		"age: must be a whole number",
	}, out.Reasons())
	assert.Contains(t, out.Err().Error(), "invalid input data")
}

func TestValidate_AgeBounds(t *testing.T) {
	tests := []struct {
		age   string
		valid bool
	}{
		{"-1", false},
		{"0", true},
		{"120", true},
		{"121", false},
		{"12.5", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.age, func(t *testing.T) {
			out := Validate(Normalize(row(2, map[string]string{
				ColFirstName: "Jane",
				ColLastName:  "Doe",
				ColEmail:     "jane@doe.com",
				ColAge:       tt.age,
			})), ImportProfile)
			assert.Equal(t, tt.valid, out.Valid(), "reasons: %v", out.Reasons())
		})
	}
}

func TestValidate_FormProfile(t *testing.T) {
	base := map[string]string{
		ColFirstName:   "Jane",
		ColLastName:    "Doe",
		ColEmail:       "jane@doe.com",
		ColPhoneNumber: "0851234567",
		ColEircode:     "1AB2CD",
	}

	t.Run("age optional", func(t *testing.T) {
		out := Validate(Normalize(row(0, base)), FormProfile)
		require.True(t, out.Valid(), "reasons: %v", out.Reasons())
		assert.Nil(t, out.Record.Age)
		assert.Equal(t, "0851234567", out.Record.PhoneNumber)
		assert.Equal(t, "1AB2CD", out.Record.Eircode)
	})

	t.Run("age checked when present", func(t *testing.T) {
		fields := copyFields(base)
		fields[ColAge] = "121"
		out := Validate(Normalize(row(0, fields)), FormProfile)
		require.False(t, out.Valid())
		assert.Equal(t, []string{"age: must be between 0 and 120"}, out.Reasons())
	})

	t.Run("phone and eircode required", func(t *testing.T) {
		fields := copyFields(base)
		fields[ColPhoneNumber] = "085123456"
		delete(fields, ColEircode)
		out := Validate(Normalize(row(0, fields)), FormProfile)
		require.False(t, out.Valid())
		assert.Equal(t, []string{
			"phone_number: must be exactly 10 digits",
			"eircode: required field is empty",
		}, out.Reasons())
	})
}

func TestValidate_Malformed(t *testing.T) {
	out := Validate(Normalize(RawRow{Line: 4, Malformed: "expected 4 columns, got 2"}), ImportProfile)

	require.False(t, out.Valid())
	assert.Equal(t, []string{ReasonMalformed}, out.Reasons())
	assert.Equal(t, "expected 4 columns, got 2", out.Invalid.Errors[0].Value)
}

func TestRecord_Values(t *testing.T) {
	age := 42
	rec := Record{FirstName: "Jane", LastName: "Doe", Email: "jane@doe.com", Age: &age}

	assert.Equal(t, []any{"Jane", "Doe", "jane@doe.com", nil, nil, 42}, rec.Values())

	rec.Age = nil
	rec.PhoneNumber = "0851234567"
	assert.Equal(t, []any{"Jane", "Doe", "jane@doe.com", "0851234567", nil, nil}, rec.Values())
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
