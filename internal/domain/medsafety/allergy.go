package medsafety

import (
	"fmt"
	"strings"
)

// AllergyScreener checks a candidate drug against a patient's recorded
// allergy list.
type AllergyScreener struct {
	registry *DrugClassRegistry
}

func NewAllergyScreener(registry *DrugClassRegistry) *AllergyScreener {
	return &AllergyScreener{registry: registry}
}

// parseAllergyTokens splits free-text allergies on commas into lowercase
// trimmed tokens. This is the single seam for the free-text allergy format.
func parseAllergyTokens(allergies string) []string {
	var tokens []string
	for _, part := range strings.Split(allergies, ",") {
		token := strings.ToLower(strings.TrimSpace(part))
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Screen returns zero or more allergy alerts for the candidate drug. An
// exact documented allergy is definitive: it produces a single alert and
// suppresses the subtler class checks. Unknown drugs and classes degrade to
// no alert, never an error.
func (s *AllergyScreener) Screen(allergies, drugName string) []AllergyAlert {
	drug := strings.ToLower(strings.TrimSpace(drugName))
	tokens := parseAllergyTokens(allergies)
	if drug == "" || len(tokens) == 0 {
		return nil
	}

	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	// Exact match short-circuits everything else.
	if tokenSet[drug] {
		return []AllergyAlert{{
			Type:             AlertKnownAllergy,
			Severity:         SeveritySevere,
			DrugName:         drug,
			Allergen:         drug,
			Reaction:         fmt.Sprintf("Documented allergy to %s", drug),
			Recommendation:   "Do not administer. Select an alternative agent.",
			RequiresOverride: true,
		}}
	}

	var alerts []AllergyAlert

	candidateClass, hasClass := s.registry.ClassOf(drug)

	// Some records document the allergy at the class level ("penicillin"
	// covering all penicillins).
	if hasClass && tokenSet[strings.ToLower(candidateClass)] {
		alerts = append(alerts, AllergyAlert{
			Type:             AlertKnownAllergy,
			Severity:         SeveritySevere,
			DrugName:         drug,
			Allergen:         strings.ToLower(candidateClass),
			Reaction:         fmt.Sprintf("Documented allergy to %s class, which includes %s", strings.ToLower(candidateClass), drug),
			Recommendation:   "Do not administer. Select an agent outside the allergy class.",
			RequiresOverride: true,
		})
	}

	if hasClass {
		for _, token := range tokens {
			allergenClass, ok := s.registry.ClassOf(token)
			if !ok || allergenClass == candidateClass {
				continue
			}
			desc, ok := s.registry.CrossReactivity(allergenClass, candidateClass)
			if !ok {
				continue
			}
			severity := crossReactivitySeverity(desc)
			alerts = append(alerts, AllergyAlert{
				Type:     AlertCrossAllergy,
				Severity: severity,
				DrugName: drug,
				Allergen: token,
				Reaction: fmt.Sprintf("Possible cross-reaction: allergy to %s (%s), %s is %s (%s)",
					token, allergenClass, drug, candidateClass, desc),
				Recommendation:   "Assess reaction history before administering; consider an unrelated alternative.",
				RequiresOverride: severity == SeveritySevere || severity == SeverityLifeThreatening,
			})
		}
	}

	return alerts
}

// crossReactivitySeverity derives alert severity from the reactivity
// descriptor text recorded in the registry.
func crossReactivitySeverity(descriptor string) string {
	lower := strings.ToLower(descriptor)
	switch {
	case strings.Contains(lower, "10%"):
		return SeveritySevere
	case strings.Contains(lower, "1-2%"):
		return SeverityModerate
	case strings.Contains(lower, "low"):
		return SeverityMild
	default:
		return SeverityModerate
	}
}
