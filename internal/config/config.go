// Package config defines the immutable analysis configuration: the exposure
// and outcome concept sets, the predicate filter, the hop bound, and the
// evidence thresholds. A Config is built once at the process boundary (from a
// predefined pair or a YAML file) and passed by value; it is never mutated
// after validation.
package config

import (
	"fmt"
	"sort"
)

// FieldError reports a malformed or inconsistent configuration field. It is
// always raised before any database activity.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: field %q: %s", e.Field, e.Reason)
}

// ValidPredicates is the known predicate vocabulary of the predication store.
var ValidPredicates = map[string]bool{
	"CAUSES": true, "TREATS": true, "PREVENTS": true, "INTERACTS_WITH": true,
	"AFFECTS": true, "ASSOCIATED_WITH": true, "PREDISPOSES": true,
	"COMPLICATES": true, "AUGMENTS": true, "DISRUPTS": true, "INHIBITS": true,
	"STIMULATES": true, "PRODUCES": true, "MANIFESTATION_OF": true,
	"RESULT_OF": true, "PROCESS_OF": true, "PART_OF": true, "ISA": true,
	"LOCATION_OF": true, "ADMINISTERED_TO": true, "METHOD_OF": true,
	"USES": true, "DIAGNOSES": true,
}

// Config is the full analysis configuration consumed by the pipeline.
type Config struct {
	Name          string
	Description   string
	ExposureCUIs  []string
	OutcomeCUIs   []string
	ExposureLabel string
	OutcomeLabel  string
	Predicates    []string
	Degree        int
	Threshold     int
	// ThresholdsByDegree overrides Threshold for individual hops.
	ThresholdsByDegree map[int]int
	BlocklistCUIs      []string
}

// HopThreshold returns the minimum distinct-pmid count for the given hop:
// the per-hop override when present, the flat threshold otherwise.
func (c Config) HopThreshold(hop int) int {
	if t, ok := c.ThresholdsByDegree[hop]; ok {
		return t
	}
	return c.Threshold
}

// TargetCUIs returns exposure plus outcome CUIs in declaration order.
func (c Config) TargetCUIs() []string {
	out := make([]string, 0, len(c.ExposureCUIs)+len(c.OutcomeCUIs))
	out = append(out, c.ExposureCUIs...)
	out = append(out, c.OutcomeCUIs...)
	return out
}

// Validate rejects inconsistent configurations with a FieldError naming the
// offending field.
func (c Config) Validate() error {
	if len(c.ExposureCUIs) == 0 {
		return &FieldError{Field: "exposure_cuis", Reason: "must not be empty"}
	}
	if len(c.OutcomeCUIs) == 0 {
		return &FieldError{Field: "outcome_cuis", Reason: "must not be empty"}
	}
	if len(c.Predicates) == 0 {
		return &FieldError{Field: "predicates", Reason: "must not be empty"}
	}
	for _, p := range c.Predicates {
		if !ValidPredicates[p] {
			return &FieldError{Field: "predicates", Reason: fmt.Sprintf("unknown predicate %q (valid: %s)", p, validPredicateList())}
		}
	}
	if c.Degree < 1 {
		return &FieldError{Field: "degree", Reason: fmt.Sprintf("must be a positive integer, got %d", c.Degree)}
	}
	if c.Threshold < 1 {
		return &FieldError{Field: "threshold", Reason: fmt.Sprintf("must be >= 1, got %d", c.Threshold)}
	}
	for hop, t := range c.ThresholdsByDegree {
		if hop < 1 || hop > c.Degree {
			return &FieldError{Field: "thresholds_by_degree", Reason: fmt.Sprintf("hop %d outside 1..%d", hop, c.Degree)}
		}
		if t < 1 {
			return &FieldError{Field: "thresholds_by_degree", Reason: fmt.Sprintf("threshold for hop %d must be >= 1, got %d", hop, t)}
		}
	}
	if c.ExposureLabel == "" {
		return &FieldError{Field: "exposure_name", Reason: "must not be empty"}
	}
	if c.OutcomeLabel == "" {
		return &FieldError{Field: "outcome_name", Reason: "must not be empty"}
	}
	// A blocklist entry may overlap the exposure or outcome CUIs. The
	// pre-flight probe applies the blocklist, so such a run ends in the
	// no-evidence outcome rather than a configuration error.
	return nil
}

func validPredicateList() string {
	preds := make([]string, 0, len(ValidPredicates))
	for p := range ValidPredicates {
		preds = append(preds, p)
	}
	sort.Strings(preds)
	out := ""
	for i, p := range preds {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
