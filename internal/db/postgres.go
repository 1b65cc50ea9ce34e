// Package db is the evidence store adapter: the only package in the repo that
// speaks SQL. It reads two tables, predication and sentence, whose qualified
// names are resolved from the environment at connect time. All access is
// read-only and every value reaches the database as a bound parameter.
package db

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/pkg/models"
)

// ConnectError wraps a failure to establish or verify the connection pool.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return "db: connect: " + e.Err.Error() }
func (e *ConnectError) Unwrap() error { return e.Err }

// QueryError wraps a failed store operation with the operation name and, for
// hop expansion, the hop at which it failed (0 otherwise).
type QueryError struct {
	Op  string
	Hop int
	Err error
}

func (e *QueryError) Error() string {
	if e.Hop > 0 {
		return fmt.Sprintf("db: %s (hop %d): %v", e.Op, e.Hop, e.Err)
	}
	return fmt.Sprintf("db: %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// excludedSemtypes are the semantic types filtered out of every predication
// query: activities, behaviors, events, governmental/regulatory activity,
// machine activity, occupational activity.
var excludedSemtypes = []string{"acty", "bhvr", "evnt", "gora", "mcha", "ocac"}

// Store provides read-only access to the predication and sentence tables
// through a pgx connection pool.
type Store struct {
	pool      *pgxpool.Pool
	predTable string
	sentTable string
	log       *zap.Logger
}

// Connect initializes the pool, verifies it with a ping, and resolves the
// table names from the environment.
func Connect(ctx context.Context, connStr string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, &ConnectError{Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectError{Err: err}
	}

	s := &Store{
		pool:      pool,
		predTable: tableFromEnv("DB_PREDICATION_SCHEMA", "DB_PREDICATION_TABLE", "public", "predication"),
		sentTable: tableFromEnv("DB_SENTENCE_SCHEMA", "DB_SENTENCE_TABLE", "public", "sentence"),
		log:       log,
	}
	log.Info("connected to evidence store",
		zap.String("predication_table", s.predTable),
		zap.String("sentence_table", s.sentTable))
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// tableFromEnv builds a sanitized schema-qualified table name from the two
// environment variables, falling back to the given defaults.
func tableFromEnv(schemaVar, tableVar, defSchema, defTable string) string {
	schema := os.Getenv(schemaVar)
	if schema == "" {
		schema = defSchema
	}
	table := os.Getenv(tableVar)
	if table == "" {
		table = defTable
	}
	return pgx.Identifier{schema, table}.Sanitize()
}

// hopCondition returns the scoping clause for the query's hop and the bound
// CUI array. Hop 1 is scoped by the exposure and outcome sets; later hops by
// the frontier.
func hopCondition(q models.HopQuery) (string, []string) {
	if q.Hop == 1 {
		targets := make([]string, 0, len(q.ExposureCUIs)+len(q.OutcomeCUIs))
		targets = append(targets, q.ExposureCUIs...)
		targets = append(targets, q.OutcomeCUIs...)
		return "(cp.subject_cui = ANY($1) OR cp.object_cui = ANY($1))", targets
	}
	return "(cp.subject_cui = ANY($1) OR cp.object_cui = ANY($1))", q.Frontier
}

// textArray returns a non-nil slice for array binding. pgx encodes a nil
// []string as SQL NULL, and `x = ANY(NULL)` is NULL, which would make the
// negated blocklist clause exclude every row. An empty array keeps the clause
// a no-op instead.
func textArray(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// filterClauses is the shared predicate, semantic-type, and blocklist filter.
// Parameter positions: $2 predicates, $3 excluded semtypes, $4 blocklist.
const filterClauses = `
  AND cp.predicate = ANY($2)
  AND NOT (cp.subject_semtype = ANY($3) OR cp.object_semtype = ANY($3))
  AND NOT (cp.subject_cui = ANY($4) OR cp.object_cui = ANY($4))`

// ExistsEvidence runs the pre-flight check: does any triple touching the
// exposure or outcome sets survive the hop-1 filters and threshold?
func (s *Store) ExistsEvidence(ctx context.Context, q models.HopQuery) (bool, error) {
	cond, cuis := hopCondition(q)
	sql := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1
			FROM %s cp
			WHERE %s %s
			GROUP BY cp.subject_cui, cp.object_cui, cp.predicate
			HAVING COUNT(DISTINCT cp.pmid) >= $5
			LIMIT 1
		)`, s.predTable, cond, filterClauses)

	s.log.Debug("pre-flight evidence check",
		zap.Int("target_cuis", len(cuis)),
		zap.Int("min_pmids", q.MinPMIDs))

	var found bool
	err := s.pool.QueryRow(ctx, sql, cuis, q.Predicates, excludedSemtypes, textArray(q.Blocklist), q.MinPMIDs).Scan(&found)
	if err != nil {
		return false, &QueryError{Op: "exists_evidence", Err: err}
	}
	return found, nil
}

// ExpandHop retrieves every triple admitted at the query's hop: grouped by
// triple, thresholded on distinct pmids, ordered by subject name.
func (s *Store) ExpandHop(ctx context.Context, q models.HopQuery) ([]models.Assertion, error) {
	cond, cuis := hopCondition(q)
	sql := fmt.Sprintf(`
		SELECT cp.subject_cui, cp.subject_name, cp.subject_semtype,
		       cp.object_cui, cp.object_name, cp.object_semtype,
		       cp.predicate,
		       COUNT(DISTINCT cp.pmid) AS evidence,
		       STRING_AGG(DISTINCT cp.pmid::text, ',' ORDER BY cp.pmid::text) AS pmid_list,
		       STRING_AGG(DISTINCT cp.pmid::text || '|' || cp.sentence_id::text, ',') AS ref_list
		FROM %s cp
		WHERE %s %s
		GROUP BY cp.subject_cui, cp.subject_name, cp.subject_semtype,
		         cp.object_cui, cp.object_name, cp.object_semtype, cp.predicate
		HAVING COUNT(DISTINCT cp.pmid) >= $5
		ORDER BY cp.subject_name ASC`, s.predTable, cond, filterClauses)

	s.log.Debug("expanding hop",
		zap.Int("hop", q.Hop),
		zap.Int("frontier_cuis", len(cuis)),
		zap.Int("min_pmids", q.MinPMIDs),
		zap.Int("blocklist_cuis", len(q.Blocklist)))

	rows, err := s.pool.Query(ctx, sql, cuis, q.Predicates, excludedSemtypes, textArray(q.Blocklist), q.MinPMIDs)
	if err != nil {
		return nil, &QueryError{Op: "expand_hop", Hop: q.Hop, Err: err}
	}
	defer rows.Close()

	var assertions []models.Assertion
	for rows.Next() {
		var a models.Assertion
		var pmidList, refList string
		err := rows.Scan(&a.SubjectCUI, &a.SubjectName, &a.SubjectSemtype,
			&a.ObjectCUI, &a.ObjectName, &a.ObjectSemtype,
			&a.Predicate, &a.EvidenceCount, &pmidList, &refList)
		if err != nil {
			return nil, &QueryError{Op: "expand_hop", Hop: q.Hop, Err: err}
		}
		a.PMIDs = splitAggList(pmidList)
		a.SentenceRefs = splitRefList(refList)
		a.HopLevel = q.Hop
		assertions = append(assertions, a)
	}
	if rows.Err() != nil {
		return nil, &QueryError{Op: "expand_hop", Hop: q.Hop, Err: rows.Err()}
	}
	return assertions, nil
}

// FetchSentences batch-retrieves the sentence texts for the given refs,
// deduplicated per pmid in first-seen order.
func (s *Store) FetchSentences(ctx context.Context, refs []models.SentenceRef) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(refs) == 0 {
		return out, nil
	}

	pmids := make([]string, len(refs))
	sentenceIDs := make([]string, len(refs))
	for i, r := range refs {
		pmids[i] = r.PMID
		sentenceIDs[i] = r.SentenceID
	}

	sql := fmt.Sprintf(`
		SELECT st.pmid, st.sentence
		FROM %s st
		JOIN unnest($1::text[], $2::text[]) AS r(pmid, sentence_id)
		  ON st.pmid = r.pmid AND st.sentence_id = r.sentence_id`, s.sentTable)

	s.log.Debug("fetching sentences", zap.Int("refs", len(refs)))

	rows, err := s.pool.Query(ctx, sql, pmids, sentenceIDs)
	if err != nil {
		return nil, &QueryError{Op: "fetch_sentences", Err: err}
	}
	defer rows.Close()

	seen := make(map[string]map[string]bool)
	for rows.Next() {
		var pmid, text string
		if err := rows.Scan(&pmid, &text); err != nil {
			return nil, &QueryError{Op: "fetch_sentences", Err: err}
		}
		if seen[pmid] == nil {
			seen[pmid] = make(map[string]bool)
		}
		if seen[pmid][text] {
			continue
		}
		seen[pmid][text] = true
		out[pmid] = append(out[pmid], text)
	}
	if rows.Err() != nil {
		return nil, &QueryError{Op: "fetch_sentences", Err: rows.Err()}
	}
	return out, nil
}

// FetchCanonicalNames maps each CUI to one canonical surface name from the
// sentence table. CUIs absent from the table are simply missing from the map.
func (s *Store) FetchCanonicalNames(ctx context.Context, cuis []string) (map[string]string, error) {
	out := make(map[string]string, len(cuis))
	if len(cuis) == 0 {
		return out, nil
	}

	sql := fmt.Sprintf(`
		SELECT DISTINCT ON (cui) cui, name
		FROM %s
		WHERE cui = ANY($1)
		ORDER BY cui, name`, s.sentTable)

	rows, err := s.pool.Query(ctx, sql, cuis)
	if err != nil {
		return nil, &QueryError{Op: "fetch_canonical_names", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var cui, name string
		if err := rows.Scan(&cui, &name); err != nil {
			return nil, &QueryError{Op: "fetch_canonical_names", Err: err}
		}
		out[cui] = name
	}
	if rows.Err() != nil {
		return nil, &QueryError{Op: "fetch_canonical_names", Err: rows.Err()}
	}
	return out, nil
}

// MarkovBlanket returns the union of parent, child, and spouse surface names
// for one target CUI: parents are subjects asserting into the target, children
// are objects the target asserts into, and spouses are subjects asserting into
// those children, excluding the target itself under any of its names.
func (s *Store) MarkovBlanket(ctx context.Context, target string, predicates []string, minPMIDs int, blocklist []string) ([]string, error) {
	mbFilter := `
	    AND cp.predicate = ANY($2)
	    AND NOT (cp.subject_semtype = ANY($4) OR cp.object_semtype = ANY($4))
	    AND NOT (cp.subject_cui = ANY($5) OR cp.object_cui = ANY($5))`

	sql := fmt.Sprintf(`
		WITH parents AS (
			SELECT cp.subject_name AS name
			FROM %[1]s cp
			WHERE cp.object_cui = $1 %[2]s
			GROUP BY cp.subject_name
			HAVING COUNT(DISTINCT cp.pmid) >= $3
		),
		children AS (
			SELECT cp.object_name AS name, cp.object_cui AS cui
			FROM %[1]s cp
			WHERE cp.subject_cui = $1 %[2]s
			GROUP BY cp.object_name, cp.object_cui
			HAVING COUNT(DISTINCT cp.pmid) >= $3
		),
		target_names AS (
			SELECT DISTINCT name FROM %[3]s WHERE cui = $1
		),
		spouses AS (
			SELECT cp.subject_name AS name
			FROM %[1]s cp
			WHERE cp.object_cui IN (SELECT cui FROM children)
			  AND cp.subject_cui <> $1
			  AND cp.subject_name NOT IN (SELECT name FROM target_names)
			  %[2]s
			GROUP BY cp.subject_name
			HAVING COUNT(DISTINCT cp.pmid) >= $3
		)
		SELECT name FROM parents
		UNION
		SELECT name FROM children
		UNION
		SELECT name FROM spouses
		ORDER BY name`, s.predTable, mbFilter, s.sentTable)

	s.log.Debug("computing markov blanket", zap.String("target_cui", target), zap.Int("min_pmids", minPMIDs))

	rows, err := s.pool.Query(ctx, sql, target, predicates, minPMIDs, excludedSemtypes, textArray(blocklist))
	if err != nil {
		return nil, &QueryError{Op: "markov_blanket", Err: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{Op: "markov_blanket", Err: err}
		}
		names = append(names, name)
	}
	if rows.Err() != nil {
		return nil, &QueryError{Op: "markov_blanket", Err: rows.Err()}
	}
	return names, nil
}

// splitAggList splits a STRING_AGG result on commas, dropping empty segments.
func splitAggList(agg string) []string {
	if agg == "" {
		return nil
	}
	parts := strings.Split(agg, ",")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitRefList parses a STRING_AGG of pmid|sentence_id pairs.
func splitRefList(agg string) []models.SentenceRef {
	if agg == "" {
		return nil
	}
	var refs []models.SentenceRef
	for _, part := range strings.Split(agg, ",") {
		pmid, sid, ok := strings.Cut(part, "|")
		if !ok || pmid == "" {
			continue
		}
		refs = append(refs, models.SentenceRef{PMID: pmid, SentenceID: sid})
	}
	return refs
}
