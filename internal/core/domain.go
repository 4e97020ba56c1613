package core

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Student   Role = "Student"
	Staff     Role = "Staff"
	Community Role = "Community"
)

const (
	Hyperion House = "Hyperion"
	Themis   House = "Themis"
	Crius    House = "Crius"
	Thea     House = "Thea"
	Oceanus  House = "Oceanus"
)

// MaxNameLength mirrors the width of the name column.
const MaxNameLength = 256

// MinAmountKg is the smallest donation the admin form accepts.
const MinAmountKg = 0.1

type (
	// Role is the donor's relationship to the school.
	Role string

	// House is a student house. The zero value means "no house".
	House string

	// Donation is one recorded contribution. Amount is in kilograms.
	Donation struct {
		ID        int64
		Date      time.Time
		Role      Role
		House     House
		Name      string
		Amount    float64
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrEmptyName      = errors.New("name is required")
	ErrNameTooLong    = errors.New("name must be at most 256 characters")
	ErrAmountTooSmall = errors.New("amount must be at least 0.1 kg")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidRole    = errors.New("role must be one of Student, Staff, Community")
	ErrInvalidHouse   = errors.New("house must be one of Hyperion, Themis, Crius, Thea, Oceanus")
)

var validationErrors = []error{
	ErrEmptyName,
	ErrNameTooLong,
	ErrAmountTooSmall,
	ErrInvalidAmount,
	ErrInvalidRole,
	ErrInvalidHouse,
}

// IsValidation reports whether err is (or wraps) one of the donation validation errors.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// Roles returns every role in display order.
func Roles() []Role {
	return []Role{Student, Staff, Community}
}

// Houses returns every house in canonical order.
func Houses() []House {
	return []House{Hyperion, Themis, Crius, Thea, Oceanus}
}

// ParseRole accepts any casing and returns the canonical spelling.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range Roles() {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

// ParseHouse accepts any casing. An empty string yields the zero House.
func ParseHouse(s string) (House, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, h := range Houses() {
		if strings.EqualFold(s, string(h)) {
			return h, nil
		}
	}
	return "", ErrInvalidHouse
}

func (r Role) Valid() bool {
	switch r {
	case Student, Staff, Community:
		return true
	}
	return false
}

func (h House) Valid() bool {
	if h == "" {
		return true
	}
	for _, known := range Houses() {
		if h == known {
			return true
		}
	}
	return false
}

// index orders houses canonically; unknown values sort last.
func (h House) index() int {
	for i, known := range Houses() {
		if h == known {
			return i
		}
	}
	return len(Houses())
}

// Validate checks the fields the admin form supplies. It does not require
// an ID or timestamps, which are assigned by the store.
func (d Donation) Validate() error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) {
		return ErrInvalidAmount
	}
	if d.Amount < MinAmountKg {
		return ErrAmountTooSmall
	}
	if !d.Role.Valid() {
		return ErrInvalidRole
	}
	if !d.House.Valid() {
		return ErrInvalidHouse
	}
	return nil
}

// Normalize trims the name and canonicalizes role and house spelling.
// Unknown role or house values are left untouched for Validate to reject.
func (d Donation) Normalize() Donation {
	d.Name = strings.TrimSpace(d.Name)
	if r, err := ParseRole(string(d.Role)); err == nil {
		d.Role = r
	}
	if h, err := ParseHouse(string(d.House)); err == nil {
		d.House = h
	}
	return d
}

// HouseOnNonStudent reports a house given on a non-student donation.
// Such donations are stored as-is; callers only log it.
func (d Donation) HouseOnNonStudent() bool {
	return d.House != "" && d.Role != Student
}
