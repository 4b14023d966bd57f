package medsafety

import (
	"fmt"
	"strings"
)

// DuplicateTherapyDetector checks a candidate drug against the patient's
// active orders and prescriptions.
type DuplicateTherapyDetector struct {
	registry *DrugClassRegistry
}

func NewDuplicateTherapyDetector(registry *DrugClassRegistry) *DuplicateTherapyDetector {
	return &DuplicateTherapyDetector{registry: registry}
}

// Detect runs all three duplication rules. The rules are independent; every
// applicable rule fires. Records whose drug name cannot be resolved are
// silently excluded.
func (d *DuplicateTherapyDetector) Detect(therapies []ActiveTherapy, drugName string) []DuplicateAlert {
	candidate := strings.ToLower(strings.TrimSpace(drugName))
	if candidate == "" {
		return nil
	}

	var alerts []DuplicateAlert

	alerts = append(alerts, d.DetectExact(therapies, drugName)...)

	if group, ok := d.registry.EquivalenceGroupOf(candidate); ok {
		for _, t := range therapies {
			existing := t.ResolvedDrug()
			if existing == "" || existing == candidate {
				continue
			}
			if existingGroup, ok := d.registry.EquivalenceGroupOf(existing); ok && existingGroup == group {
				alerts = append(alerts, DuplicateAlert{
					Type:              AlertTherapeuticDuplicate,
					Severity:          DupSeverityMedium,
					DrugName:          candidate,
					ExistingDrug:      existing,
					DrugClass:         group,
					ExistingOrderDate: t.RecordedAt,
					Recommendation:    fmt.Sprintf("Patient already receives %s from the %s group. Confirm both agents are intended.", existing, group),
					RequiresReview:    true,
				})
			}
		}
	}

	if class, ok := d.registry.ClassOf(candidate); ok {
		for _, t := range therapies {
			existing := t.ResolvedDrug()
			if existing == "" {
				continue
			}
			if existingClass, ok := d.registry.ClassOf(existing); ok && existingClass == class {
				alerts = append(alerts, DuplicateAlert{
					Type:              AlertSameClass,
					Severity:          DupSeverityLow,
					DrugName:          candidate,
					ExistingDrug:      existing,
					DrugClass:         class,
					ExistingOrderDate: t.RecordedAt,
					Recommendation:    fmt.Sprintf("Both %s and %s are %s agents. Informational only.", candidate, existing, class),
					RequiresReview:    false,
				})
			}
		}
	}

	return alerts
}

// DetectExact runs only the exact-duplicate rule. Used by the quick check.
func (d *DuplicateTherapyDetector) DetectExact(therapies []ActiveTherapy, drugName string) []DuplicateAlert {
	candidate := strings.ToLower(strings.TrimSpace(drugName))
	if candidate == "" {
		return nil
	}

	var alerts []DuplicateAlert
	for _, t := range therapies {
		if t.ResolvedDrug() != candidate {
			continue
		}
		alerts = append(alerts, DuplicateAlert{
			Type:              AlertExactDuplicate,
			Severity:          DupSeverityHigh,
			DrugName:          candidate,
			ExistingDrug:      candidate,
			ExistingOrderDate: t.RecordedAt,
			Recommendation:    fmt.Sprintf("An active %s for %s already exists. Review before ordering again.", t.Source, candidate),
			RequiresReview:    true,
		})
	}
	return alerts
}
