package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPersonnelNo is returned when a personnel number contains no digits
var ErrInvalidPersonnelNo = errors.New("invalid personnel number")

// PersonnelNo is the canonical digits-only form of a personnel number.
// Two personnel numbers identify the same person iff their PersonnelNo values are equal.
type PersonnelNo string

// NewPersonnelNo canonicalizes raw input ("A-00123 ", "00 123") by dropping everything but digits
func NewPersonnelNo(raw string) (PersonnelNo, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPersonnelNo, raw)
	}
	return PersonnelNo(b.String()), nil
}

func (p PersonnelNo) String() string {
	return string(p)
}
