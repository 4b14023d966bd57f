package medsafety

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/metrics"
)

// PatientSource supplies the patient snapshot for a safety check.
type PatientSource interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*PatientSnapshot, error)
}

// TherapySource supplies the patient's active therapies. Both methods return
// empty slices, never an error, when nothing is active.
type TherapySource interface {
	ActiveMedicationOrders(ctx context.Context, patientID uuid.UUID) ([]ActiveTherapy, error)
	ActivePrescriptions(ctx context.Context, patientID uuid.UUID) ([]ActiveTherapy, error)
}

// Service orchestrates the three checkers and applies the overall
// severity/override policy. It classifies only; enforcement of overrides is
// the caller's responsibility.
type Service struct {
	patients   PatientSource
	therapies  TherapySource
	allergies  *AllergyScreener
	duplicates *DuplicateTherapyDetector
	doses      *DoseRangeValidator
	log        zerolog.Logger
}

func NewService(
	patients PatientSource,
	therapies TherapySource,
	registry *DrugClassRegistry,
	doseTable *DoseReferenceTable,
	log zerolog.Logger,
) *Service {
	return &Service{
		patients:   patients,
		therapies:  therapies,
		allergies:  NewAllergyScreener(registry),
		duplicates: NewDuplicateTherapyDetector(registry),
		doses:      NewDoseRangeValidator(doseTable),
		log:        log,
	}
}

// ValidateMedicationOrder runs the full three-checker pass for one drug.
func (s *Service) ValidateMedicationOrder(ctx context.Context, patientID uuid.UUID, drugName string, dose float64, unit, frequency string) (*ValidationResponse, error) {
	if strings.TrimSpace(drugName) == "" {
		return nil, fmt.Errorf("drug_name is required")
	}
	if dose <= 0 {
		return nil, fmt.Errorf("dose must be positive")
	}

	patient, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	therapies, err := s.activeTherapies(ctx, patientID)
	if err != nil {
		return nil, err
	}

	allergyAlerts := s.allergies.Screen(patient.Allergies, drugName)
	duplicateAlerts := s.duplicates.Detect(therapies, drugName)
	verdict := s.doses.Validate(patient.BirthDate, patient.WeightKg, drugName, dose, unit)

	header := fmt.Sprintf("Safety check for %s: %s %.2f %s", patient.Name, strings.ToLower(strings.TrimSpace(drugName)), dose, unit)
	if frequency != "" {
		header += " " + frequency
	}
	resp := s.assemble(header, allergyAlerts, duplicateAlerts, []DoseVerdict{verdict}, nil)

	s.log.Debug().
		Str("patient_id", patientID.String()).
		Str("drug", drugName).
		Str("overall_severity", resp.OverallSeverity).
		Bool("can_proceed", resp.CanProceed).
		Msg("medication order validated")

	return resp, nil
}

// QuickValidate runs the allergy screen plus exact-duplicate detection only.
// Intended for low-latency inline hints; no dose check.
func (s *Service) QuickValidate(ctx context.Context, patientID uuid.UUID, drugName string) (*ValidationResponse, error) {
	if strings.TrimSpace(drugName) == "" {
		return nil, fmt.Errorf("drug_name is required")
	}

	patient, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	therapies, err := s.activeTherapies(ctx, patientID)
	if err != nil {
		return nil, err
	}

	allergyAlerts := s.allergies.Screen(patient.Allergies, drugName)
	duplicateAlerts := s.duplicates.DetectExact(therapies, drugName)

	header := fmt.Sprintf("Quick safety check for %s: %s", patient.Name, strings.ToLower(strings.TrimSpace(drugName)))
	return s.assemble(header, allergyAlerts, duplicateAlerts, nil, nil), nil
}

// ValidateMultipleDrugs runs allergy and duplicate checks per drug, then a
// pairwise pass that flags candidate drugs sharing an allergy class or a
// therapeutic-equivalence group. Doses are per drug and not supplied in this
// mode, so no dose check runs.
func (s *Service) ValidateMultipleDrugs(ctx context.Context, patientID uuid.UUID, drugNames []string) (*ValidationResponse, error) {
	if len(drugNames) == 0 {
		return nil, fmt.Errorf("drug_names is required")
	}

	patient, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	therapies, err := s.activeTherapies(ctx, patientID)
	if err != nil {
		return nil, err
	}

	var allergyAlerts []AllergyAlert
	var duplicateAlerts []DuplicateAlert
	drugs := make([]string, 0, len(drugNames))
	for _, name := range drugNames {
		drug := strings.ToLower(strings.TrimSpace(name))
		if drug == "" {
			continue
		}
		drugs = append(drugs, drug)
		allergyAlerts = append(allergyAlerts, s.allergies.Screen(patient.Allergies, drug)...)
		duplicateAlerts = append(duplicateAlerts, s.duplicates.Detect(therapies, drug)...)
	}

	generalWarnings := s.pairwiseWarnings(drugs)

	header := fmt.Sprintf("Safety check for %s: %s", patient.Name, strings.Join(drugs, ", "))
	resp := s.assemble(header, allergyAlerts, duplicateAlerts, nil, generalWarnings)

	s.log.Debug().
		Str("patient_id", patientID.String()).
		Int("drug_count", len(drugs)).
		Str("overall_severity", resp.OverallSeverity).
		Msg("multi-drug order validated")

	return resp, nil
}

func (s *Service) activeTherapies(ctx context.Context, patientID uuid.UUID) ([]ActiveTherapy, error) {
	orders, err := s.therapies.ActiveMedicationOrders(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading active orders: %w", err)
	}
	prescriptions, err := s.therapies.ActivePrescriptions(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading active prescriptions: %w", err)
	}
	return append(orders, prescriptions...), nil
}

// pairwiseWarnings flags every unordered pair of candidate drugs that share
// an allergy class or a therapeutic-equivalence group.
func (s *Service) pairwiseWarnings(drugs []string) []string {
	registry := s.duplicates.registry
	var warnings []string
	for i := 0; i < len(drugs); i++ {
		for j := i + 1; j < len(drugs); j++ {
			a, b := drugs[i], drugs[j]
			if classA, ok := registry.ClassOf(a); ok {
				if classB, ok := registry.ClassOf(b); ok && classA == classB {
					warnings = append(warnings, fmt.Sprintf("%s and %s are both %s agents.", a, b, classA))
				}
			}
			if groupA, ok := registry.EquivalenceGroupOf(a); ok {
				if groupB, ok := registry.EquivalenceGroupOf(b); ok && groupA == groupB {
					warnings = append(warnings, fmt.Sprintf("%s and %s are therapeutic equivalents (%s); ordering both is usually unintended.", a, b, groupA))
				}
			}
		}
	}
	return warnings
}

// assemble applies the overall severity/override policy and renders the
// summary, producing the final immutable response.
func (s *Service) assemble(header string, allergyAlerts []AllergyAlert, duplicateAlerts []DuplicateAlert, doseVerdicts []DoseVerdict, generalWarnings []string) *ValidationResponse {
	resp := &ValidationResponse{
		AllergyAlerts:   allergyAlerts,
		DuplicateAlerts: duplicateAlerts,
		DoseVerdicts:    doseVerdicts,
		GeneralWarnings: generalWarnings,
	}

	hasLifeThreateningAllergy := false
	hasBlockingAlert := false
	for _, a := range allergyAlerts {
		if a.Severity == SeveritySevere || a.Severity == SeverityLifeThreatening {
			hasLifeThreateningAllergy = true
		}
		if a.RequiresOverride {
			hasBlockingAlert = true
		}
	}
	for _, d := range duplicateAlerts {
		if d.RequiresReview {
			hasBlockingAlert = true
		}
	}

	hasCriticalDose := false
	doseIssues := 0
	for _, v := range doseVerdicts {
		if !v.IsValid {
			doseIssues++
			if v.Severity == DoseSeverityCritical {
				hasCriticalDose = true
			}
		}
	}

	// Informational findings (LOW duplicates, in-range dose verdicts) do not
	// escalate past SAFE on their own.
	hasWarnings := len(allergyAlerts) > 0 || doseIssues > 0 || len(generalWarnings) > 0
	for _, d := range duplicateAlerts {
		if d.Severity != DupSeverityLow {
			hasWarnings = true
		}
	}

	switch {
	case hasLifeThreateningAllergy || hasCriticalDose:
		resp.CanProceed = false
		resp.RequiresOverride = true
		resp.OverallSeverity = OverallCritical
	case hasBlockingAlert:
		resp.CanProceed = true
		resp.RequiresOverride = true
		resp.OverallSeverity = OverallWarning
	case hasWarnings:
		resp.CanProceed = true
		resp.RequiresOverride = false
		resp.OverallSeverity = OverallWarning
	default:
		resp.CanProceed = true
		resp.RequiresOverride = false
		resp.OverallSeverity = OverallSafe
	}

	resp.Summary = renderSummary(header, resp, doseIssues)

	metrics.ValidationsTotal.WithLabelValues(resp.OverallSeverity).Inc()

	return resp
}

// renderSummary produces the deterministic human-readable summary: header,
// then either a single affirmative line or one count line per non-empty
// category and a trailing directive.
func renderSummary(header string, resp *ValidationResponse, doseIssues int) string {
	var b strings.Builder
	b.WriteString(header)

	if len(resp.AllergyAlerts) == 0 && len(resp.DuplicateAlerts) == 0 &&
		doseIssues == 0 && len(resp.GeneralWarnings) == 0 {
		b.WriteString("\nNo safety concerns identified.")
		return b.String()
	}

	if n := len(resp.AllergyAlerts); n > 0 {
		fmt.Fprintf(&b, "\nAllergy alerts: %d", n)
	}
	if n := len(resp.DuplicateAlerts); n > 0 {
		fmt.Fprintf(&b, "\nDuplicate therapy alerts: %d", n)
	}
	if doseIssues > 0 {
		fmt.Fprintf(&b, "\nDose findings: %d", doseIssues)
	}
	if n := len(resp.GeneralWarnings); n > 0 {
		fmt.Fprintf(&b, "\nInteraction warnings: %d", n)
	}

	switch {
	case resp.OverallSeverity == OverallCritical:
		b.WriteString("\nDo not proceed without clinician override.")
	case resp.RequiresOverride:
		b.WriteString("\nClinician review and override required before proceeding.")
	case resp.OverallSeverity == OverallWarning:
		b.WriteString("\nReview warnings before proceeding.")
	default:
		b.WriteString("\nInformational findings only; no action required.")
	}
	return b.String()
}
