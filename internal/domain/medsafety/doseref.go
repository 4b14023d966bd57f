package medsafety

import "strings"

// DoseReference holds dosing bounds and monitoring flags for one drug.
// Adult bounds are per single dose; pediatric bounds are per kilogram per
// dose. A zero PedsPerKgMin means no pediatric per-kilogram data exists.
type DoseReference struct {
	Drug              string
	Unit              string
	AdultMinDose      float64
	AdultMaxDose      float64
	AdultMaxDaily     float64
	PedsPerKgMin      float64
	PedsPerKgMax      float64
	PedsMaxDailyPerKg float64
	WeightBased       bool
	RenalCheck        bool
	RenalAdjustment   string
	INRMonitoring     bool
	Contraindication  string
}

// DoseReferenceTable is an immutable drug-name-keyed lookup of dose
// references. Absence of an entry is a valid state, not an error.
type DoseReferenceTable struct {
	entries map[string]DoseReference
}

func NewDoseReferenceTable(refs []DoseReference) *DoseReferenceTable {
	t := &DoseReferenceTable{entries: make(map[string]DoseReference, len(refs))}
	for _, ref := range refs {
		t.entries[strings.ToLower(strings.TrimSpace(ref.Drug))] = ref
	}
	return t
}

// Lookup returns the reference for a drug, case-insensitive.
func (t *DoseReferenceTable) Lookup(drug string) (DoseReference, bool) {
	ref, ok := t.entries[strings.ToLower(strings.TrimSpace(drug))]
	return ref, ok
}

// DefaultDoseReferences returns the dose reference data the hospital ships
// with. Values follow common adult single-dose ranges in mg.
func DefaultDoseReferences() *DoseReferenceTable {
	return NewDoseReferenceTable([]DoseReference{
		{
			Drug: "amoxicillin", Unit: "mg",
			AdultMinDose: 250, AdultMaxDose: 1000, AdultMaxDaily: 3000,
			PedsPerKgMin: 10, PedsPerKgMax: 15, PedsMaxDailyPerKg: 45,
		},
		{
			Drug: "ibuprofen", Unit: "mg",
			AdultMinDose: 200, AdultMaxDose: 800, AdultMaxDaily: 3200,
			PedsPerKgMin: 5, PedsPerKgMax: 10, PedsMaxDailyPerKg: 40,
		},
		{
			Drug: "acetaminophen", Unit: "mg",
			AdultMinDose: 325, AdultMaxDose: 1000, AdultMaxDaily: 4000,
			PedsPerKgMin: 10, PedsPerKgMax: 15, PedsMaxDailyPerKg: 60,
		},
		{
			Drug: "aspirin", Unit: "mg",
			AdultMinDose: 81, AdultMaxDose: 650, AdultMaxDaily: 4000,
			Contraindication: "Avoid in children under 16 due to Reye's syndrome risk",
		},
		{
			Drug: "metformin", Unit: "mg",
			AdultMinDose: 500, AdultMaxDose: 1000, AdultMaxDaily: 2550,
			RenalCheck:      true,
			RenalAdjustment: "Avoid if eGFR below 30 mL/min; reduce dose if eGFR 30-45 mL/min",
		},
		{
			Drug: "vancomycin", Unit: "mg",
			AdultMinDose: 500, AdultMaxDose: 2000, AdultMaxDaily: 4000,
			PedsPerKgMin: 10, PedsPerKgMax: 15, PedsMaxDailyPerKg: 60,
			WeightBased: true, RenalCheck: true,
			RenalAdjustment: "Dose per trough levels; extend interval in renal impairment",
		},
		{
			Drug: "warfarin", Unit: "mg",
			AdultMinDose: 1, AdultMaxDose: 10, AdultMaxDaily: 10,
			INRMonitoring: true,
		},
		{
			Drug: "lisinopril", Unit: "mg",
			AdultMinDose: 2.5, AdultMaxDose: 40, AdultMaxDaily: 80,
			RenalCheck:      true,
			RenalAdjustment: "Start low in renal impairment; monitor potassium and creatinine",
		},
		{
			Drug: "omeprazole", Unit: "mg",
			AdultMinDose: 10, AdultMaxDose: 40, AdultMaxDaily: 80,
			PedsPerKgMin: 0.5, PedsPerKgMax: 1.5, PedsMaxDailyPerKg: 3,
		},
		{
			Drug: "ceftriaxone", Unit: "mg",
			AdultMinDose: 500, AdultMaxDose: 2000, AdultMaxDaily: 4000,
			PedsPerKgMin: 25, PedsPerKgMax: 50, PedsMaxDailyPerKg: 100,
			WeightBased: true,
		},
	})
}
