package medsafety

import (
	"fmt"
	"strings"
	"time"
)

// DoseRangeValidator checks a candidate dose against the reference table,
// using weight-based pediatric ranges where they apply. It always produces
// exactly one verdict; missing reference data is a pass-through, not a
// failure.
type DoseRangeValidator struct {
	table *DoseReferenceTable
	now   func() time.Time
}

func NewDoseRangeValidator(table *DoseReferenceTable) *DoseRangeValidator {
	return &DoseRangeValidator{table: table, now: time.Now}
}

const pediatricAgeCutoff = 18

// Validate returns the verdict for the candidate dose. Boundary comparisons
// are inclusive; values are rounded to 2 decimals for messages only.
func (v *DoseRangeValidator) Validate(birthDate *time.Time, weightKg *float64, drugName string, dose float64, unit string) DoseVerdict {
	drug := strings.ToLower(strings.TrimSpace(drugName))

	ref, ok := v.table.Lookup(drug)
	if !ok {
		return DoseVerdict{
			IsValid:        true,
			ValidationType: DoseNoData,
			Severity:       DoseSeverityInfo,
			PrescribedDose: dose,
			PrescribedUnit: unit,
			Message:        fmt.Sprintf("No dose range data available for %s", drug),
			Recommendation: "Verify dose against a pharmacy reference.",
		}
	}

	if birthDate == nil {
		verdict := v.validateAdult(ref, dose, unit)
		verdict.PatientFactor = "age unknown"
		verdict.Warnings = append(verdict.Warnings, "Birth date not recorded; adult dose range assumed.")
		return verdict
	}

	age := wholeYears(*birthDate, v.now())
	if age < pediatricAgeCutoff {
		return v.validatePediatric(ref, age, weightKg, dose, unit)
	}

	verdict := v.validateAdult(ref, dose, unit)
	verdict.PatientFactor = fmt.Sprintf("adult, age %d", age)
	return verdict
}

func (v *DoseRangeValidator) validatePediatric(ref DoseReference, age int, weightKg *float64, dose float64, unit string) DoseVerdict {
	// An age-based absolute contraindication overrides every weight check.
	if ref.Contraindication != "" && strings.Contains(strings.ToLower(ref.Contraindication), "child") {
		return DoseVerdict{
			IsValid:        false,
			ValidationType: DoseAgeBased,
			Severity:       DoseSeverityCritical,
			PrescribedDose: dose,
			PrescribedUnit: unit,
			PatientFactor:  fmt.Sprintf("pediatric, age %d", age),
			Message:        fmt.Sprintf("%s is contraindicated for this patient: %s", ref.Drug, ref.Contraindication),
			Recommendation: "Do not administer. Select an age-appropriate alternative.",
		}
	}

	if ref.PedsPerKgMin > 0 {
		if weightKg == nil {
			return DoseVerdict{
				IsValid:        false,
				ValidationType: DoseWeightBased,
				Severity:       DoseSeverityWarning,
				PrescribedDose: dose,
				PrescribedUnit: unit,
				PatientFactor:  fmt.Sprintf("pediatric, age %d, weight unknown", age),
				Message:        fmt.Sprintf("Weight not available; %s requires weight-based pediatric dosing", ref.Drug),
				Recommendation: "Record the patient's current weight and re-validate.",
			}
		}

		weight := *weightKg
		minDose := ref.PedsPerKgMin * weight
		maxDose := ref.PedsPerKgMax * weight

		verdict := DoseVerdict{
			ValidationType:  DoseWeightBased,
			PrescribedDose:  dose,
			PrescribedUnit:  unit,
			RecommendedMin:  &minDose,
			RecommendedMax:  &maxDose,
			RecommendedUnit: ref.Unit,
			PatientFactor:   fmt.Sprintf("pediatric, age %d, weight %.1f kg", age, weight),
		}
		switch {
		case dose < minDose:
			verdict.IsValid = false
			verdict.Severity = DoseSeverityWarning
			verdict.Message = fmt.Sprintf("Dose %.2f %s is below the weight-based minimum %.2f %s", dose, unit, minDose, ref.Unit)
			verdict.Recommendation = fmt.Sprintf("Increase toward %.2f-%.2f %s for %.1f kg.", minDose, maxDose, ref.Unit, weight)
		case dose > maxDose:
			verdict.IsValid = false
			verdict.Severity = DoseSeverityCritical
			verdict.Message = fmt.Sprintf("Dose %.2f %s exceeds the weight-based maximum %.2f %s", dose, unit, maxDose, ref.Unit)
			verdict.Recommendation = fmt.Sprintf("Reduce to %.2f-%.2f %s for %.1f kg.", minDose, maxDose, ref.Unit, weight)
			verdict.Warnings = append(verdict.Warnings, fmt.Sprintf("Potential overdose: %.2f %s prescribed against a %.2f %s maximum.", dose, unit, maxDose, ref.Unit))
		default:
			verdict.IsValid = true
			verdict.Severity = DoseSeverityInfo
			verdict.Message = fmt.Sprintf("Dose %.2f %s is within the weight-based range %.2f-%.2f %s", dose, unit, minDose, maxDose, ref.Unit)
		}
		if ref.PedsMaxDailyPerKg > 0 {
			verdict.Warnings = append(verdict.Warnings, fmt.Sprintf("Do not exceed %.2f %s/kg per day.", ref.PedsMaxDailyPerKg, ref.Unit))
		}
		return verdict
	}

	// No pediatric per-kilogram data: fall back to the adult range but flag it.
	verdict := v.validateAdult(ref, dose, unit)
	verdict.PatientFactor = fmt.Sprintf("pediatric, age %d", age)
	verdict.Warnings = append(verdict.Warnings, fmt.Sprintf("No pediatric dosing data for %s; adult range used.", ref.Drug))
	return verdict
}

func (v *DoseRangeValidator) validateAdult(ref DoseReference, dose float64, unit string) DoseVerdict {
	minDose := ref.AdultMinDose
	maxDose := ref.AdultMaxDose

	verdict := DoseVerdict{
		ValidationType:  DoseAgeBased,
		PrescribedDose:  dose,
		PrescribedUnit:  unit,
		RecommendedMin:  &minDose,
		RecommendedMax:  &maxDose,
		RecommendedUnit: ref.Unit,
	}
	switch {
	case dose < minDose:
		verdict.IsValid = false
		verdict.Severity = DoseSeverityWarning
		verdict.Message = fmt.Sprintf("Dose %.2f %s is below the adult minimum %.2f %s", dose, unit, minDose, ref.Unit)
		verdict.Recommendation = fmt.Sprintf("Usual adult range is %.2f-%.2f %s.", minDose, maxDose, ref.Unit)
		verdict.Warnings = append(verdict.Warnings, "Subtherapeutic dose; treatment may be ineffective.")
	case dose > maxDose:
		verdict.IsValid = false
		verdict.Severity = DoseSeverityCritical
		verdict.Message = fmt.Sprintf("Dose %.2f %s exceeds the adult maximum %.2f %s", dose, unit, maxDose, ref.Unit)
		verdict.Recommendation = fmt.Sprintf("Usual adult range is %.2f-%.2f %s.", minDose, maxDose, ref.Unit)
		verdict.Warnings = append(verdict.Warnings, "Toxicity risk: prescribed dose exceeds the maximum single dose.")
	default:
		verdict.IsValid = true
		verdict.Severity = DoseSeverityInfo
		verdict.Message = fmt.Sprintf("Dose %.2f %s is within the adult range %.2f-%.2f %s", dose, unit, minDose, maxDose, ref.Unit)
	}

	if ref.AdultMaxDaily > 0 {
		verdict.Warnings = append(verdict.Warnings, fmt.Sprintf("Do not exceed %.2f %s per day.", ref.AdultMaxDaily, ref.Unit))
	}
	if ref.RenalCheck {
		w := "Check renal function before administering."
		if ref.RenalAdjustment != "" {
			w = fmt.Sprintf("Check renal function before administering: %s.", ref.RenalAdjustment)
		}
		verdict.Warnings = append(verdict.Warnings, w)
	}
	if ref.INRMonitoring {
		verdict.Warnings = append(verdict.Warnings, "INR monitoring required.")
	}
	return verdict
}

// wholeYears computes age in completed years between birth and now.
func wholeYears(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
