package models

// SentenceRef points into the sentence store.
type SentenceRef struct {
	PMID       string `json:"pmid"`
	SentenceID string `json:"sentenceId"`
}

// Assertion is the atom of evidence: one subject-predicate-object triple
// together with the publications that attest it. Multiple assertions may share
// a triple if they were admitted at different hops.
type Assertion struct {
	SubjectCUI     string        `json:"subjectCui"`
	SubjectName    string        `json:"subjectName"`
	SubjectSemtype string        `json:"subjectSemtype,omitempty"`
	ObjectCUI      string        `json:"objectCui"`
	ObjectName     string        `json:"objectName"`
	ObjectSemtype  string        `json:"objectSemtype,omitempty"`
	Predicate      string        `json:"predicate"`
	EvidenceCount  int           `json:"evidenceCount"` // COUNT(DISTINCT pmid) under the active filter
	PMIDs          []string      `json:"pmids"`
	SentenceRefs   []SentenceRef `json:"sentenceRefs,omitempty"`
	HopLevel       int           `json:"hopLevel"` // hop at which this assertion was admitted (1..k)
}

// HopQuery carries the parameters of one hop expansion against the evidence
// store. For hop 1 Frontier is nil and the exposure/outcome CUI sets scope the
// query; for hops >= 2 only Frontier scopes it.
type HopQuery struct {
	Hop          int
	Frontier     []string
	ExposureCUIs []string
	OutcomeCUIs  []string
	Predicates   []string
	MinPMIDs     int
	Blocklist    []string
}

// Edge is a directed edge between consolidated node labels.
type Edge struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// Graph is the consolidated causal graph artifact: node labels, deduplicated
// self-loop-free edges, and the exposure/outcome annotations.
type Graph struct {
	Nodes     map[string]bool
	Edges     map[Edge]bool
	Exposures map[string]bool
	Outcomes  map[string]bool
}

// NewGraph returns an empty graph with all sets allocated.
func NewGraph() Graph {
	return Graph{
		Nodes:     make(map[string]bool),
		Edges:     make(map[Edge]bool),
		Exposures: make(map[string]bool),
		Outcomes:  make(map[string]bool),
	}
}

// Outcome status values. EvidenceAbsent is a controlled outcome, not an error.
const (
	StatusCompleted  = "completed"
	StatusNoEvidence = "no_evidence"
)

// Outcome is the typed timing-and-outcome record returned by one pipeline run.
type Outcome struct {
	RunID          string `json:"runId"`
	Status         string `json:"status"`
	Degree         int    `json:"degree"`
	AssertionCount int    `json:"assertionCount"`
	NodeCount      int    `json:"nodeCount"`
	EdgeCount      int    `json:"edgeCount"`
	MarkovBlanket  bool   `json:"markovBlanket"`
}
