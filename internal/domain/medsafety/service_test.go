package medsafety

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Collaborators --

type mockPatientSource struct {
	patients map[uuid.UUID]*PatientSnapshot
}

func newMockPatientSource() *mockPatientSource {
	return &mockPatientSource{patients: make(map[uuid.UUID]*PatientSnapshot)}
}

func (m *mockPatientSource) GetPatient(_ context.Context, id uuid.UUID) (*PatientSnapshot, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (m *mockPatientSource) add(p *PatientSnapshot) uuid.UUID {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients[p.ID] = p
	return p.ID
}

type mockTherapySource struct {
	orders        map[uuid.UUID][]ActiveTherapy
	prescriptions map[uuid.UUID][]ActiveTherapy
}

func newMockTherapySource() *mockTherapySource {
	return &mockTherapySource{
		orders:        make(map[uuid.UUID][]ActiveTherapy),
		prescriptions: make(map[uuid.UUID][]ActiveTherapy),
	}
}

func (m *mockTherapySource) ActiveMedicationOrders(_ context.Context, patientID uuid.UUID) ([]ActiveTherapy, error) {
	return m.orders[patientID], nil
}

func (m *mockTherapySource) ActivePrescriptions(_ context.Context, patientID uuid.UUID) ([]ActiveTherapy, error) {
	return m.prescriptions[patientID], nil
}

func newTestService(patients *mockPatientSource, therapies *mockTherapySource) *Service {
	return NewService(patients, therapies, DefaultDrugClassRegistry(), DefaultDoseReferences(), zerolog.Nop())
}

func adultSnapshot(name, allergies string) *PatientSnapshot {
	bd := time.Date(1980, 4, 2, 0, 0, 0, 0, time.UTC)
	w := 70.0
	return &PatientSnapshot{Name: name, BirthDate: &bd, WeightKg: &w, Allergies: allergies}
}

// -- Tests --

func TestValidateMedicationOrderPatientNotFound(t *testing.T) {
	svc := newTestService(newMockPatientSource(), newMockTherapySource())

	_, err := svc.ValidateMedicationOrder(context.Background(), uuid.New(), "amoxicillin", 500, "mg", "q8h")
	if err != ErrPatientNotFound {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestValidateMedicationOrderInputValidation(t *testing.T) {
	svc := newTestService(newMockPatientSource(), newMockTherapySource())

	if _, err := svc.ValidateMedicationOrder(context.Background(), uuid.New(), "", 500, "mg", ""); err == nil {
		t.Error("expected error for empty drug name")
	}
	if _, err := svc.ValidateMedicationOrder(context.Background(), uuid.New(), "amoxicillin", 0, "mg", ""); err == nil {
		t.Error("expected error for non-positive dose")
	}
}

func TestValidateCleanOrderIsSafe(t *testing.T) {
	patients := newMockPatientSource()
	id := patients.add(adultSnapshot("Jane Doe", ""))
	svc := newTestService(patients, newMockTherapySource())

	resp, err := svc.ValidateMedicationOrder(context.Background(), id, "amoxicillin", 500, "mg", "q8h")
	if err != nil {
		t.Fatalf("ValidateMedicationOrder: %v", err)
	}
	if resp.OverallSeverity != OverallSafe {
		t.Errorf("overall_severity = %s, want %s", resp.OverallSeverity, OverallSafe)
	}
	if !resp.CanProceed || resp.RequiresOverride {
		t.Errorf("can_proceed=%v requires_override=%v, want true/false", resp.CanProceed, resp.RequiresOverride)
	}
	if !strings.Contains(resp.Summary, "Jane Doe") {
		t.Errorf("summary missing patient name: %q", resp.Summary)
	}
	if !strings.Contains(resp.Summary, "No safety concerns identified.") {
		t.Errorf("expected affirmative summary line, got %q", resp.Summary)
	}
}

func TestValidateKnownAllergyBlocks(t *testing.T) {
	patients := newMockPatientSource()
	id := patients.add(adultSnapshot("Jane Doe", "amoxicillin"))
	svc := newTestService(patients, newMockTherapySource())

	resp, err := svc.ValidateMedicationOrder(context.Background(), id, "amoxicillin", 500, "mg", "q8h")
	if err != nil {
		t.Fatalf("ValidateMedicationOrder: %v", err)
	}
	if resp.OverallSeverity != OverallCritical {
		t.Errorf("overall_severity = %s, want %s", resp.OverallSeverity, OverallCritical)
	}
	if resp.CanProceed {
		t.Error("expected can_proceed=false")
	}
	if !resp.RequiresOverride {
		t.Error("expected requires_override=true")
	}
	if len(resp.AllergyAlerts) != 1 {
		t.Errorf("allergy alert count = %d, want 1", len(resp.AllergyAlerts))
	}
}

func TestValidateCriticalOverdoseBlocks(t *testing.T) {
	patients := newMockPatientSource()
	id := patients.add(adultSnapshot("Jane Doe", ""))
	svc := newTestService(patients, newMockTherapySource())

	resp, err := svc.ValidateMedicationOrder(context.Background(), id, "ibuprofen", 1200, "mg", "q6h")
	if err != nil {
		t.Fatalf("ValidateMedicationOrder: %v", err)
	}
	if resp.OverallSeverity != OverallCritical {
		t.Errorf("overall_severity = %s, want %s", resp.OverallSeverity, OverallCritical)
	}
	if resp.CanProceed {
		t.Error("expected can_proceed=false for critical overdose")
	}
}

func TestValidateExactDuplicateRequiresOverride(t *testing.T) {
	patients := newMockPatientSource()
	id := patients.add(adultSnapshot("Jane Doe", ""))
	therapies := newMockTherapySource()
	therapies.prescriptions[id] = []ActiveTherapy{{
		Source:     "prescription",
		DrugName:   "metformin",
		RecordedAt: time.Now(),
	}}
	svc := newTestService(patients, therapies)

	resp, err := svc.ValidateMedicationOrder(context.Background(), id, "metformin", 500, "mg", "bid")
	if err != nil {
		t.Fatalf("ValidateMedicationOrder: %v", err)
	}
	if resp.OverallSeverity != OverallWarning {
		t.Errorf("overall_severity = %s, want %s", resp.OverallSeverity, OverallWarning)
	}
	if !resp.CanProceed {
		t.Error("expected can_proceed=true")
	}
	if !resp.RequiresOverride {
		t.Error("expected requires_override=true")
	}
}

func TestValidateSameClassOnlyStaysSafe(t *testing.T) {
	patients := newMockPatientSource()
	id := patients.add(adultSnapshot("Jane Doe", ""))
	therapies := newMockTherapySource()
	therapies.orders[id] = []ActiveTherapy{{
		Source:     "order",
		Details:    "drug: ampicillin, 500mg IV q6h",
		RecordedAt: time.Now(),
	}}
	svc := newTestService(patients, therapies)

	resp, err := svc.ValidateMedicationOrder(context.Background(), id, "amoxicillin", 500, "mg", "q8h")
	if err != nil {
		t.Fatalf("ValidateMedicationOrder: %v", err)
	}
	if len(resp.DuplicateAlerts) != 1 || resp.DuplicateAlerts[0].Type != AlertSameClass {
		t.Fatalf("expected exactly one SAME_CLASS alert, got %+v", resp.DuplicateAlerts)
	}
	if resp.OverallSeverity != OverallSafe {
		t.Errorf("overall_severity = %s, want %s (informational alerts must not escalate)", resp.OverallSeverity, OverallSafe)
	}
	if !resp.CanProceed || resp.RequiresOverride {
		t.Errorf("can_proceed=%v requires_override=%v, want true/false", resp.CanProceed, resp.RequiresOverride)
	}
}

func TestQuickValidateSkipsDoseAndNonExactDuplicates(t *testing.T) {
	patients := newMockPatientSource()
	id := patients.add(adultSnapshot("Jane Doe", ""))
	therapies := newMockTherapySource()
	therapies.prescriptions[id] = []ActiveTherapy{{
		Source:     "prescription",
		DrugName:   "omeprazole",
		RecordedAt: time.Now(),
	}}
	svc := newTestService(patients, therapies)

	resp, err := svc.QuickValidate(context.Background(), id, "pantoprazole")
	if err != nil {
		t.Fatalf("QuickValidate: %v", err)
	}
	if len(resp.DoseVerdicts) != 0 {
		t.Errorf("quick check must not produce dose verdicts, got %d", len(resp.DoseVerdicts))
	}
	if len(resp.DuplicateAlerts) != 0 {
		t.Errorf("quick check must only run the exact-duplicate rule, got %+v", resp.DuplicateAlerts)
	}
	if resp.OverallSeverity != OverallSafe {
		t.Errorf("overall_severity = %s, want %s", resp.OverallSeverity, OverallSafe)
	}
}

func TestQuickValidateStillScreensAllergies(t *testing.T) {
	patients := newMockPatientSource()
	id := patients.add(adultSnapshot("Jane Doe", "penicillin"))
	svc := newTestService(patients, newMockTherapySource())

	resp, err := svc.QuickValidate(context.Background(), id, "cefazolin")
	if err != nil {
		t.Fatalf("QuickValidate: %v", err)
	}
	if len(resp.AllergyAlerts) != 1 || resp.AllergyAlerts[0].Type != AlertCrossAllergy {
		t.Fatalf("expected one CROSS_ALLERGY alert, got %+v", resp.AllergyAlerts)
	}
	if resp.OverallSeverity != OverallCritical {
		t.Errorf("overall_severity = %s, want %s", resp.OverallSeverity, OverallCritical)
	}
}

func TestValidateMultipleDrugsPairwiseWarnings(t *testing.T) {
	patients := newMockPatientSource()
	id := patients.add(adultSnapshot("Jane Doe", ""))
	svc := newTestService(patients, newMockTherapySource())

	resp, err := svc.ValidateMultipleDrugs(context.Background(), id, []string{"omeprazole", "pantoprazole"})
	if err != nil {
		t.Fatalf("ValidateMultipleDrugs: %v", err)
	}
	if len(resp.GeneralWarnings) != 1 {
		t.Fatalf("general warning count = %d, want 1: %v", len(resp.GeneralWarnings), resp.GeneralWarnings)
	}
	if !strings.Contains(resp.GeneralWarnings[0], "omeprazole") || !strings.Contains(resp.GeneralWarnings[0], "pantoprazole") {
		t.Errorf("warning must name both drugs: %q", resp.GeneralWarnings[0])
	}
	if len(resp.DoseVerdicts) != 0 {
		t.Errorf("multi-drug mode must not produce dose verdicts, got %d", len(resp.DoseVerdicts))
	}
	if resp.OverallSeverity != OverallWarning {
		t.Errorf("overall_severity = %s, want %s", resp.OverallSeverity, OverallWarning)
	}
}

func TestValidateMultipleDrugsSharedClassWarning(t *testing.T) {
	patients := newMockPatientSource()
	id := patients.add(adultSnapshot("Jane Doe", ""))
	svc := newTestService(patients, newMockTherapySource())

	resp, err := svc.ValidateMultipleDrugs(context.Background(), id, []string{"amoxicillin", "ampicillin"})
	if err != nil {
		t.Fatalf("ValidateMultipleDrugs: %v", err)
	}
	if len(resp.GeneralWarnings) != 1 {
		t.Fatalf("general warning count = %d, want 1: %v", len(resp.GeneralWarnings), resp.GeneralWarnings)
	}
	if !strings.Contains(resp.GeneralWarnings[0], "PENICILLIN") {
		t.Errorf("warning must name the shared class: %q", resp.GeneralWarnings[0])
	}
}

func TestValidateMultipleDrugsEmptyList(t *testing.T) {
	svc := newTestService(newMockPatientSource(), newMockTherapySource())
	if _, err := svc.ValidateMultipleDrugs(context.Background(), uuid.New(), nil); err == nil {
		t.Error("expected error for empty drug list")
	}
}
