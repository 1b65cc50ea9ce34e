package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlFile mirrors the on-disk YAML configuration document.
type yamlFile struct {
	ExposureCUIs  []string    `yaml:"exposure_cuis"`
	OutcomeCUIs   []string    `yaml:"outcome_cuis"`
	ExposureName  string      `yaml:"exposure_name"`
	OutcomeName   string      `yaml:"outcome_name"`
	Predicates    []string    `yaml:"predicates"`
	PredicateCSV  string      `yaml:"predication_type"` // legacy comma-separated form
	MinPMIDs      int         `yaml:"min_pmids"`
	Degree        int         `yaml:"degree"`
	Thresholds    map[int]int `yaml:"thresholds_by_degree"`
	BlocklistCUIs []string    `yaml:"blocklist_cuis"`
	// IncludeDefaultBlocklist merges the compiled-in generic-concept list
	// into blocklist_cuis.
	IncludeDefaultBlocklist bool `yaml:"include_default_blocklist"`
}

// FromYAML builds a validated Config from a YAML file. Unset fields take the
// same defaults the predefined pairs use: CAUSES, degree 3, threshold 50.
func FromYAML(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read yaml config: %w", err)
	}
	var f yamlFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Config{}, fmt.Errorf("parse yaml config: %w", err)
	}

	predicates := f.Predicates
	if len(predicates) == 0 && f.PredicateCSV != "" {
		for _, p := range strings.Split(f.PredicateCSV, ",") {
			if p = strings.TrimSpace(p); p != "" {
				predicates = append(predicates, strings.ToUpper(p))
			}
		}
	}
	if len(predicates) == 0 {
		predicates = []string{"CAUSES"}
	}

	cfg := Config{
		Name:               configName(f.ExposureCUIs, f.OutcomeCUIs),
		ExposureCUIs:       f.ExposureCUIs,
		OutcomeCUIs:        f.OutcomeCUIs,
		ExposureLabel:      f.ExposureName,
		OutcomeLabel:       f.OutcomeName,
		Predicates:         predicates,
		Degree:             f.Degree,
		Threshold:          f.MinPMIDs,
		ThresholdsByDegree: f.Thresholds,
		BlocklistCUIs:      append([]string(nil), f.BlocklistCUIs...),
	}
	if cfg.Degree == 0 {
		cfg.Degree = 3
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 50
	}
	if cfg.ExposureLabel == "" {
		cfg.ExposureLabel = "Exposure_" + strings.Join(f.ExposureCUIs, "_")
	}
	if cfg.OutcomeLabel == "" {
		cfg.OutcomeLabel = "Outcome_" + strings.Join(f.OutcomeCUIs, "_")
	}
	if f.IncludeDefaultBlocklist {
		cfg.BlocklistCUIs = mergeBlocklists(cfg.BlocklistCUIs, GenericConceptCUIs)
	}
	cfg.Description = fmt.Sprintf("YAML configuration with %d exposure CUI(s) and %d outcome CUI(s), predicates: %s",
		len(cfg.ExposureCUIs), len(cfg.OutcomeCUIs), strings.Join(cfg.Predicates, ", "))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configName(exposure, outcome []string) string {
	short := func(cuis []string) string {
		if len(cuis) > 2 {
			cuis = cuis[:2]
		}
		return strings.Join(cuis, "_")
	}
	return "yaml_" + short(exposure) + "_" + short(outcome)
}

func mergeBlocklists(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, cui := range list {
			if !seen[cui] {
				seen[cui] = true
				out = append(out, cui)
			}
		}
	}
	return out
}
