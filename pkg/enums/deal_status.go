package enums

import "fmt"

// DealStatusCode names the seeded deal status rows. The numeric ids live in
// the database; application code addresses statuses by code only.
type DealStatusCode string

const (
	DealStatusWaiting   DealStatusCode = "waiting"
	DealStatusAccepted  DealStatusCode = "accepted"
	DealStatusAgreement DealStatusCode = "agreement"
)

var validDealStatusCodes = []DealStatusCode{
	DealStatusWaiting,
	DealStatusAccepted,
	DealStatusAgreement,
}

// String implements fmt.Stringer.
func (d DealStatusCode) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DealStatusCode.
func (d DealStatusCode) IsValid() bool {
	for _, candidate := range validDealStatusCodes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDealStatusCode converts raw input into a DealStatusCode.
func ParseDealStatusCode(value string) (DealStatusCode, error) {
	for _, candidate := range validDealStatusCodes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal status code %q", value)
}
