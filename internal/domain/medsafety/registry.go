package medsafety

import "strings"

type classPair struct {
	from string
	to   string
}

// DrugClassRegistry is immutable reference data mapping drug names to allergy
// classes and therapeutic-equivalence groups, plus cross-class reactivity
// descriptors. Built once at startup and safe for concurrent reads. All
// lookups are case-insensitive; unknown drugs yield "no class", not an error.
type DrugClassRegistry struct {
	drugToClass     map[string]string
	classMembers    map[string][]string
	crossReactivity map[classPair]string
	drugToGroup     map[string]string
	groupMembers    map[string][]string
}

// NewDrugClassRegistry builds a registry from class membership, ordered
// cross-reactivity entries keyed as [from, to], and therapeutic-equivalence
// groups. Class and group names are canonicalized to upper case, drug names
// to lower case.
func NewDrugClassRegistry(
	classes map[string][]string,
	cross map[[2]string]string,
	groups map[string][]string,
) *DrugClassRegistry {
	r := &DrugClassRegistry{
		drugToClass:     make(map[string]string),
		classMembers:    make(map[string][]string),
		crossReactivity: make(map[classPair]string),
		drugToGroup:     make(map[string]string),
		groupMembers:    make(map[string][]string),
	}
	for class, drugs := range classes {
		cn := strings.ToUpper(strings.TrimSpace(class))
		for _, d := range drugs {
			dn := strings.ToLower(strings.TrimSpace(d))
			r.drugToClass[dn] = cn
			r.classMembers[cn] = append(r.classMembers[cn], dn)
		}
	}
	for pair, desc := range cross {
		key := classPair{
			from: strings.ToUpper(strings.TrimSpace(pair[0])),
			to:   strings.ToUpper(strings.TrimSpace(pair[1])),
		}
		r.crossReactivity[key] = desc
	}
	for group, drugs := range groups {
		gn := strings.ToUpper(strings.TrimSpace(group))
		for _, d := range drugs {
			dn := strings.ToLower(strings.TrimSpace(d))
			r.drugToGroup[dn] = gn
			r.groupMembers[gn] = append(r.groupMembers[gn], dn)
		}
	}
	return r
}

// ClassOf returns the allergy class of a drug. ok is false when the drug is
// not in the registry.
func (r *DrugClassRegistry) ClassOf(drug string) (string, bool) {
	class, ok := r.drugToClass[strings.ToLower(strings.TrimSpace(drug))]
	return class, ok
}

// CrossReactivity returns the reactivity descriptor for the ordered class
// pair (from, to).
func (r *DrugClassRegistry) CrossReactivity(from, to string) (string, bool) {
	key := classPair{
		from: strings.ToUpper(strings.TrimSpace(from)),
		to:   strings.ToUpper(strings.TrimSpace(to)),
	}
	desc, ok := r.crossReactivity[key]
	return desc, ok
}

// EquivalenceGroupOf returns the therapeutic-equivalence group of a drug.
func (r *DrugClassRegistry) EquivalenceGroupOf(drug string) (string, bool) {
	group, ok := r.drugToGroup[strings.ToLower(strings.TrimSpace(drug))]
	return group, ok
}

// DefaultDrugClassRegistry returns the registry the hospital ships with.
func DefaultDrugClassRegistry() *DrugClassRegistry {
	return NewDrugClassRegistry(
		map[string][]string{
			"PENICILLIN":    {"amoxicillin", "ampicillin", "penicillin", "piperacillin", "ticarcillin"},
			"CEPHALOSPORIN": {"cefazolin", "ceftriaxone", "cephalexin", "cefuroxime", "cefepime"},
			"CARBAPENEM":    {"meropenem", "imipenem", "ertapenem"},
			"SULFONAMIDE":   {"sulfamethoxazole", "sulfasalazine", "sulfadiazine"},
			"NSAID":         {"ibuprofen", "naproxen", "ketorolac", "aspirin"},
			"MACROLIDE":     {"azithromycin", "erythromycin", "clarithromycin"},
		},
		map[[2]string]string{
			{"PENICILLIN", "CEPHALOSPORIN"}: "10% cross-reactivity - use with caution",
			{"CEPHALOSPORIN", "PENICILLIN"}: "1-2% cross-reactivity",
			{"PENICILLIN", "CARBAPENEM"}:    "low cross-reactivity",
		},
		map[string][]string{
			"PPI":           {"omeprazole", "pantoprazole", "esomeprazole", "lansoprazole"},
			"STATIN":        {"atorvastatin", "simvastatin", "rosuvastatin", "pravastatin"},
			"ACE_INHIBITOR": {"lisinopril", "enalapril", "ramipril"},
			"BETA_BLOCKER":  {"metoprolol", "atenolol", "propranolol"},
			"SSRI":          {"sertraline", "fluoxetine", "escitalopram"},
		},
	)
}
