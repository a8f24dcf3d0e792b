package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmailConflict(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		detail     string
		want       bool
	}{
		{"email constraint", "contacts_email_key", "", true},
		{"custom email index", "crm_people_EMAIL_uniq", "", true},
		{"primary key", "contacts_pkey", "Key (email)=(jane@doe.com) already exists.", false},
		{"detail only", "", "Key (email)=(jane@doe.com) already exists.", true},
		{"detail names another column", "", "Key (id)=(7) already exists.", false},
		{"no constraint information", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isEmailConflict(tt.constraint, tt.detail))
		})
	}
}
