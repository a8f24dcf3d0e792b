package contact

import (
	"regexp"
	"strconv"
)

// FieldKind selects one of the fixed field rules.
type FieldKind int

const (
	KindName FieldKind = iota
	KindPhone
	KindEircode
	KindEmail
	KindAge
)

// Age bounds, inclusive.
const (
	MinAge = 0
	MaxAge = 120
)

// Pre-compiled field patterns.
var (
	namePattern    = regexp.MustCompile(`^[A-Za-z0-9]{1,20}$`)
	phonePattern   = regexp.MustCompile(`^[0-9]{10}$`)
	eircodePattern = regexp.MustCompile(`^[0-9][A-Za-z0-9]{5}$`)
	emailPattern   = regexp.MustCompile(`^[^\s\p{Z}@]+@[^\s\p{Z}@]+\.[^\s\p{Z}@]+$`)
)

// Check reports whether raw satisfies the rule for kind. It never trims;
// callers pass normalized text.
func Check(kind FieldKind, raw string) bool {
	switch kind {
	case KindName:
		return namePattern.MatchString(raw)
	case KindPhone:
		return phonePattern.MatchString(raw)
	case KindEircode:
		return eircodePattern.MatchString(raw)
	case KindEmail:
		return emailPattern.MatchString(raw)
	case KindAge:
		n, err := strconv.Atoi(raw)
		return err == nil && AgeInRange(n)
	default:
		return false
	}
}

// AgeInRange reports whether n is an acceptable age.
func AgeInRange(n int) bool {
	return n >= MinAge && n <= MaxAge
}

func (k FieldKind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindPhone:
		return "phone"
	case KindEircode:
		return "eircode"
	case KindEmail:
		return "email"
	case KindAge:
		return "age"
	default:
		return "unknown"
	}
}
