package medication

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound        = errors.New("medication order not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
)

// MedicationOrder is an inpatient order placed by a clinician. Details is free
// text as entered at the point of care; when it includes a "drug:" token the
// safety engine uses it to identify the ordered drug.
type MedicationOrder struct {
	ID        uuid.UUID  `json:"id"`
	PatientID uuid.UUID  `json:"patient_id"`
	OrderedBy *uuid.UUID `json:"ordered_by,omitempty"`
	Details   string     `json:"details"`
	Status    string     `json:"status"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Prescription is an outpatient prescription with a structured drug name.
type Prescription struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	DrugName     string     `json:"drug_name"`
	DoseAmount   *float64   `json:"dose_amount,omitempty"`
	DoseUnit     string     `json:"dose_unit,omitempty"`
	Frequency    string     `json:"frequency,omitempty"`
	Route        string     `json:"route,omitempty"`
	Status       string     `json:"status"`
	PrescribedBy *uuid.UUID `json:"prescribed_by,omitempty"`
	PrescribedAt *time.Time `json:"prescribed_at,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Order status lifecycle. Terminal statuses exclude an order from the
// patient's active therapy profile.
var ValidOrderStatuses = map[string]bool{
	"pending": true, "active": true, "on-hold": true,
	"completed": true, "cancelled": true, "expired": true,
}

var TerminalOrderStatuses = map[string]bool{
	"completed": true, "cancelled": true, "expired": true,
}

var ValidPrescriptionStatuses = map[string]bool{
	"pending": true, "dispensed": true, "completed": true,
	"cancelled": true, "expired": true,
}

var TerminalPrescriptionStatuses = map[string]bool{
	"dispensed": true, "completed": true, "cancelled": true, "expired": true,
}

// IsActive reports whether the order still counts toward active therapy.
func (o *MedicationOrder) IsActive() bool {
	return !TerminalOrderStatuses[o.Status]
}

// IsActive reports whether the prescription still counts toward active therapy.
func (p *Prescription) IsActive() bool {
	return !TerminalPrescriptionStatuses[p.Status]
}
