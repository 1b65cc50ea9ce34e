package config

import "sort"

// Predefined holds the curated exposure-outcome pairs shipped with the engine.
// Each pair carries the generic-concept blocklist by default.
var Predefined = map[string]Config{
	"depression_alzheimers": {
		Name:          "depression_alzheimers",
		Description:   "Investigating the relationship between depression and Alzheimer's disease",
		ExposureCUIs:  []string{"C0011570"},
		ExposureLabel: "Depression",
		OutcomeCUIs:   []string{"C0002395"},
		OutcomeLabel:  "Alzheimers_Disease",
	},
	"hypertension_alzheimers": {
		Name:          "hypertension_alzheimers",
		Description:   "Investigating the relationship between hypertension and Alzheimer's disease",
		ExposureCUIs:  []string{"C0020538"},
		ExposureLabel: "Hypertension",
		OutcomeCUIs:   []string{"C0002395"},
		OutcomeLabel:  "Alzheimers_Disease",
	},
	"diabetes_alzheimers": {
		Name:          "diabetes_alzheimers",
		Description:   "Investigating the relationship between diabetes mellitus and Alzheimer's disease",
		ExposureCUIs:  []string{"C0011849", "C0011860"},
		ExposureLabel: "Diabetes_Mellitus",
		OutcomeCUIs:   []string{"C0002395"},
		OutcomeLabel:  "Alzheimers_Disease",
	},
	"smoking_cancer": {
		Name:          "smoking_cancer",
		Description:   "Investigating the relationship between smoking and cancer",
		ExposureCUIs:  []string{"C0037369"},
		ExposureLabel: "Smoking",
		OutcomeCUIs:   []string{"C0006826", "C0024121"},
		OutcomeLabel:  "Cancer",
	},
	"cardiovascular_dementia": {
		Name:          "cardiovascular_dementia",
		Description:   "Investigating the relationship between cardiovascular diseases and dementia",
		ExposureCUIs:  []string{"C0020538", "C0003507", "C0018801"},
		ExposureLabel: "Cardiovascular_Disease",
		OutcomeCUIs:   []string{"C0002395", "C0011265"},
		OutcomeLabel:  "Dementia",
	},
}

// PredefinedNames returns the predefined configuration names sorted.
func PredefinedNames() []string {
	names := make([]string, 0, len(Predefined))
	for name := range Predefined {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromPredefined returns a validated copy of the named predefined pair with
// the runtime parameters applied. The generic-concept blocklist is merged in.
func FromPredefined(name string, predicates []string, degree, threshold int) (Config, error) {
	base, ok := Predefined[name]
	if !ok {
		return Config{}, &FieldError{Field: "config", Reason: "unknown predefined configuration " + name}
	}
	cfg := base
	cfg.Predicates = append([]string(nil), predicates...)
	if len(cfg.Predicates) == 0 {
		cfg.Predicates = []string{"CAUSES"}
	}
	cfg.Degree = degree
	cfg.Threshold = threshold
	cfg.BlocklistCUIs = append([]string(nil), GenericConceptCUIs...)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
