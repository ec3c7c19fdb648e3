package models

// Customer is an identity record. Immutable once created: no update operation
// exists for customers.
//
// Invariants:
//   - IdentificationNumber is exactly 11 ASCII digits and globally unique
//     (uniqueness is enforced atomically by the store)
type Customer struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	Address              string `json:"address"`
	IdentificationNumber string `json:"identification_number"`
}

const identificationNumberLength = 11

// ValidateIdentificationNumber checks the 11-ASCII-digit format. Uniqueness
// is a store concern.
func ValidateIdentificationNumber(s string) (ok bool, reason string) {
	if len(s) != identificationNumberLength {
		return false, "identification number must be exactly 11 digits"
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false, "identification number cannot contain any character other than a digit"
		}
	}
	return true, ""
}
