// Package medsafety implements the medication order safety engine: allergy
// screening, duplicate therapy detection and dose range validation, combined
// into a single pass/warn/block verdict.
//
// The engine is stateless and performs no I/O of its own. Reference data
// (drug classes, dose ranges) is immutable after construction and safe for
// concurrent reads. Patient and active-therapy data are read through narrow
// collaborator interfaces; every other gap in data (unknown drug, missing
// weight, no reference entry) degrades to a warning rather than an error so
// that incomplete reference data never blocks a clinical workflow.
package medsafety

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrPatientNotFound is returned when the patient id does not resolve.
var ErrPatientNotFound = errors.New("patient not found")

// Allergy alert types.
const (
	AlertKnownAllergy = "KNOWN_ALLERGY"
	AlertCrossAllergy = "CROSS_ALLERGY"
)

// Allergy severities.
const (
	SeverityMild            = "MILD"
	SeverityModerate        = "MODERATE"
	SeveritySevere          = "SEVERE"
	SeverityLifeThreatening = "LIFE_THREATENING"
)

// Duplicate alert types.
const (
	AlertExactDuplicate       = "EXACT_DUPLICATE"
	AlertTherapeuticDuplicate = "THERAPEUTIC_DUPLICATE"
	AlertSameClass            = "SAME_CLASS"
)

// Duplicate severities.
const (
	DupSeverityLow    = "LOW"
	DupSeverityMedium = "MEDIUM"
	DupSeverityHigh   = "HIGH"
)

// Dose validation types.
const (
	DoseNoData      = "NO_DATA"
	DoseAgeBased    = "AGE_BASED"
	DoseWeightBased = "WEIGHT_BASED"
)

// Dose severities.
const (
	DoseSeverityInfo     = "INFO"
	DoseSeverityWarning  = "WARNING"
	DoseSeverityCritical = "CRITICAL"
)

// Overall severities.
const (
	OverallSafe     = "SAFE"
	OverallWarning  = "WARNING"
	OverallCritical = "CRITICAL"
)

// AllergyAlert flags a conflict between the candidate drug and a recorded
// patient allergy.
type AllergyAlert struct {
	Type             string `json:"type"`
	Severity         string `json:"severity"`
	DrugName         string `json:"drug_name"`
	Allergen         string `json:"allergen"`
	Reaction         string `json:"reaction"`
	Recommendation   string `json:"recommendation"`
	RequiresOverride bool   `json:"requires_override"`
}

// DuplicateAlert flags overlap between the candidate drug and a therapy the
// patient is already on.
type DuplicateAlert struct {
	Type              string    `json:"type"`
	Severity          string    `json:"severity"`
	DrugName          string    `json:"drug_name"`
	ExistingDrug      string    `json:"existing_drug"`
	DrugClass         string    `json:"drug_class,omitempty"`
	ExistingOrderDate time.Time `json:"existing_order_date"`
	Recommendation    string    `json:"recommendation"`
	RequiresReview    bool      `json:"requires_review"`
}

// DoseVerdict is the single result of validating a candidate dose against the
// reference table. Exactly one verdict is produced per dose check.
type DoseVerdict struct {
	IsValid         bool     `json:"is_valid"`
	ValidationType  string   `json:"validation_type"`
	Severity        string   `json:"severity"`
	PrescribedDose  float64  `json:"prescribed_dose"`
	PrescribedUnit  string   `json:"prescribed_unit"`
	RecommendedMin  *float64 `json:"recommended_min,omitempty"`
	RecommendedMax  *float64 `json:"recommended_max,omitempty"`
	RecommendedUnit string   `json:"recommended_unit,omitempty"`
	PatientFactor   string   `json:"patient_factor,omitempty"`
	Message         string   `json:"message"`
	Recommendation  string   `json:"recommendation,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// ValidationResponse is the terminal artifact of a safety check: assembled
// once, returned to the caller, never mutated afterward.
type ValidationResponse struct {
	CanProceed       bool             `json:"can_proceed"`
	RequiresOverride bool             `json:"requires_override"`
	OverallSeverity  string           `json:"overall_severity"`
	AllergyAlerts    []AllergyAlert   `json:"allergy_alerts"`
	DuplicateAlerts  []DuplicateAlert `json:"duplicate_alerts"`
	DoseVerdicts     []DoseVerdict    `json:"dose_verdicts"`
	GeneralWarnings  []string         `json:"general_warnings"`
	Summary          string           `json:"summary"`
}

// PatientSnapshot is the read-only projection of a patient needed for a
// safety check. Allergies is free text, comma-separated.
type PatientSnapshot struct {
	ID        uuid.UUID
	Name      string
	BirthDate *time.Time
	WeightKg  *float64
	Allergies string
}

// ActiveTherapy is a read-only projection of one active order or
// prescription. Prescriptions carry a structured DrugName; orders may only
// name the drug inside free-text Details.
type ActiveTherapy struct {
	Source     string
	DrugName   string
	Details    string
	RecordedAt time.Time
}

// ResolvedDrug returns the lowercase drug name for the therapy, preferring
// the structured name and falling back to extraction from the detail text.
// Empty means the record names no drug and is excluded from matching.
func (t ActiveTherapy) ResolvedDrug() string {
	if t.DrugName != "" {
		return strings.ToLower(strings.TrimSpace(t.DrugName))
	}
	return extractDrugName(t.Details)
}

// extractDrugName pulls a drug name out of free-text order details. The
// contract matches how existing order data is entered: the text must contain
// "drug:" (case-insensitive); the name runs from after the colon up to the
// next comma. Anything else contributes nothing.
func extractDrugName(details string) string {
	lower := strings.ToLower(details)
	idx := strings.Index(lower, "drug:")
	if idx < 0 {
		return ""
	}
	rest := details[idx+len("drug:"):]
	if comma := strings.Index(rest, ","); comma >= 0 {
		rest = rest[:comma]
	}
	return strings.ToLower(strings.TrimSpace(rest))
}
