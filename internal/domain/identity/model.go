package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a patient does not exist.
var ErrNotFound = errors.New("patient not found")

// Patient is a person registered with the hospital. Allergies is free text as
// recorded at intake, comma-separated (e.g. "penicillin, sulfa"). BirthDate
// and WeightKg are optional; downstream safety checks degrade gracefully when
// they are missing.
type Patient struct {
	ID          uuid.UUID  `json:"id"`
	MRN         string     `json:"mrn"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	WeightKg    *float64   `json:"weight_kg,omitempty"`
	Allergies   *string    `json:"allergies,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Email       *string    `json:"email,omitempty"`
	AddressLine *string    `json:"address_line,omitempty"`
	City        *string    `json:"city,omitempty"`
	State       *string    `json:"state,omitempty"`
	PostalCode  *string    `json:"postal_code,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FullName returns the display name for the patient.
func (p *Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// AgeYears returns the patient's age in whole years at the given time, or -1
// if the birth date is unknown.
func (p *Patient) AgeYears(at time.Time) int {
	if p.BirthDate == nil {
		return -1
	}
	bd := *p.BirthDate
	years := at.Year() - bd.Year()
	if at.Month() < bd.Month() || (at.Month() == bd.Month() && at.Day() < bd.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
