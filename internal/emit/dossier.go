package emit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/causalab/semdag-engine/pkg/models"
)

// singleLineArrayMax is the pretty-printer threshold: scalar arrays up to this
// length stay on one line. pmid_refs arrays ignore the threshold and are
// always emitted inline.
const singleLineArrayMax = 10

// WriteDossier emits causal_assertions_{k}.json: the compact assertion records
// plus the per-pmid deduplicated sentence map. Every pmid referenced by an
// assertion gets a pmid_sentences key, empty when no sentence was retrieved.
func (e *Emitter) WriteDossier(degree int, assertions []models.Assertion, sentences map[string][]string) (string, error) {
	referenced := make(map[string]bool)
	for _, a := range assertions {
		for _, pmid := range a.PMIDs {
			referenced[pmid] = true
		}
	}

	pmids := make([]string, 0, len(referenced))
	for pmid := range referenced {
		pmids = append(pmids, pmid)
	}
	sort.Strings(pmids)

	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString("  \"pmid_sentences\": {\n")
	for i, pmid := range pmids {
		fmt.Fprintf(&b, "    %s: %s", jsonString(pmid), formatStringArray(dedupe(sentences[pmid]), "    "))
		if i < len(pmids)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  },\n")

	b.WriteString("  \"assertions\": [\n")
	for i, a := range assertions {
		b.WriteString("    {\n")
		fmt.Fprintf(&b, "      \"subj\": %s,\n", jsonString(a.SubjectName))
		fmt.Fprintf(&b, "      \"subj_cui\": %s,\n", jsonString(a.SubjectCUI))
		fmt.Fprintf(&b, "      \"predicate\": %s,\n", jsonString(a.Predicate))
		fmt.Fprintf(&b, "      \"obj\": %s,\n", jsonString(a.ObjectName))
		fmt.Fprintf(&b, "      \"obj_cui\": %s,\n", jsonString(a.ObjectCUI))
		fmt.Fprintf(&b, "      \"ev_count\": %d,\n", a.EvidenceCount)
		fmt.Fprintf(&b, "      \"pmid_refs\": %s\n", inlineStringArray(a.PMIDs))
		b.WriteString("    }")
		if i < len(assertions)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  ]\n}\n")

	return e.write(fmt.Sprintf("causal_assertions_%d.json", degree), []byte(b.String()))
}

// dedupe removes duplicate strings preserving first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// jsonString renders s as a JSON string literal.
func jsonString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

// inlineStringArray renders the array on a single line regardless of length.
func inlineStringArray(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = jsonString(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// formatStringArray applies the pretty-printer rule: inline up to
// singleLineArrayMax elements, one element per line beyond that. indent is the
// indentation of the line the array opens on.
func formatStringArray(items []string, indent string) string {
	if len(items) <= singleLineArrayMax {
		return inlineStringArray(items)
	}
	var b strings.Builder
	b.WriteString("[\n")
	for i, s := range items {
		b.WriteString(indent + "  " + jsonString(s))
		if i < len(items)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(indent + "]")
	return b.String()
}

// formatSeconds renders a duration in seconds the way a float JSON field is
// expected: plain decimal, no exponent.
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
