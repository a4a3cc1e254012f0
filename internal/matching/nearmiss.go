package matching

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/stubwire/stubwire/pkg/contract"
)

// FieldResult describes whether a single matcher field matched the request.
type FieldResult struct {
	Field    string `json:"field"`
	Matched  bool   `json:"matched"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`

	score    int
	maxScore int
}

// NearMiss is a contract that partially or fully matched an incoming
// request's shape. The engine annotates StateGated for contracts whose shape
// matched fully but whose scenario was in the wrong state.
type NearMiss struct {
	ContractID      string        `json:"contractId"`
	ContractName    string        `json:"contractName,omitempty"`
	Scenario        string        `json:"scenario,omitempty"`
	RequiredState   string        `json:"requiredState,omitempty"`
	CurrentState    string        `json:"currentState,omitempty"`
	StateGated      bool          `json:"stateGated,omitempty"`
	ShapeMatched    bool          `json:"shapeMatched"`
	MatchPercentage int           `json:"matchPercentage"`
	Fields          []FieldResult `json:"fields,omitempty"`
	Reason          string        `json:"reason"`

	score    int
	maxScore int
}

// Breakdown evaluates every field in the matcher against the request without
// short-circuiting, returning per-field match/mismatch results. Only fields
// the matcher specifies are included.
func Breakdown(m *contract.RequestMatcher, r *http.Request, body []byte) *NearMiss {
	nm := &NearMiss{}
	if m == nil || (m.Path != "" && m.PathPattern != "") {
		return nm
	}

	add := func(field string, matched bool, weight int, expected, actual any) {
		fr := FieldResult{Field: field, Matched: matched, Expected: expected, Actual: actual, maxScore: weight}
		if matched {
			fr.score = weight
		}
		nm.Fields = append(nm.Fields, fr)
		nm.score += fr.score
		nm.maxScore += weight
	}

	if m.Method != "" {
		add("method", MatchMethod(m.Method, r.Method), scoreMethod, m.Method, r.Method)
	}
	if m.Path != "" {
		add("path", MatchPath(m.Path, r.URL.Path), scorePath, m.Path, r.URL.Path)
	}
	if m.PathPattern != "" {
		ok, _ := MatchPathPattern(m.PathPattern, r.URL.Path)
		add("pathPattern", ok, scorePathPattern, m.PathPattern, r.URL.Path)
	}
	for name, expected := range m.Headers {
		actual := r.Header.Get(name)
		if actual == "" {
			actual = "(missing)"
		}
		add("header "+name, MatchHeaderPattern(name, expected, r.Header), scoreHeader, expected, actual)
	}
	for name, expected := range m.QueryParams {
		actual := r.URL.Query().Get(name)
		if actual == "" {
			actual = "(missing)"
		}
		add("query "+name, MatchQueryParam(name, expected, r.URL.Query()), scoreQueryParam, expected, actual)
	}
	if m.BodyEquals != "" {
		add("bodyEquals", string(body) == m.BodyEquals, scoreBodyEquals,
			truncate(m.BodyEquals, 200), truncate(string(body), 200))
	}
	if m.BodyContains != "" {
		add("bodyContains", strings.Contains(string(body), m.BodyContains), scoreBodyContains,
			m.BodyContains, nil)
	}
	if m.BodyPattern != "" {
		add("bodyPattern", MatchBodyPattern(m.BodyPattern, body), scoreBodyPattern, m.BodyPattern, nil)
	}
	if len(m.BodyJSONPath) > 0 {
		add("bodyJsonPath", MatchJSONPath(m.BodyJSONPath, body),
			len(m.BodyJSONPath)*scoreJSONPathField, m.BodyJSONPath, nil)
	}
	if m.BodyExpr != "" {
		add("bodyExpr", MatchBodyExpr(m.BodyExpr, body), scoreBodyExpr, m.BodyExpr, nil)
	}

	nm.ShapeMatched = nm.maxScore > 0 && nm.score == nm.maxScore
	if nm.maxScore > 0 {
		nm.MatchPercentage = (nm.score * 100) / nm.maxScore
	}
	nm.Reason = reason(nm.Fields)
	return nm
}

// CollectNearMisses evaluates contracts against the request and returns the
// top N by partial match ranking. Contracts with nothing matched at all are
// skipped. Only called on unmatched requests — zero overhead on hits.
func CollectNearMisses(contracts []*contract.Contract, r *http.Request, body []byte, topN int) []NearMiss {
	if topN <= 0 {
		topN = 3
	}

	var candidates []NearMiss
	for _, c := range contracts {
		if c == nil || c.Request == nil {
			continue
		}
		nm := Breakdown(c.Request, r, body)
		if nm.score == 0 {
			continue
		}
		nm.ContractID = c.ID
		nm.ContractName = c.Name
		nm.Scenario = c.Scenario
		nm.RequiredState = c.EffectiveRequiredState()
		candidates = append(candidates, *nm)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].MatchPercentage > candidates[j].MatchPercentage
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// reason creates a human-readable explanation of why a contract partially
// matched but ultimately failed.
func reason(fields []FieldResult) string {
	if len(fields) == 0 {
		return "no fields to compare"
	}

	var matched []string
	var firstMiss *FieldResult
	for i := range fields {
		if fields[i].Matched {
			matched = append(matched, fields[i].Field)
		} else if firstMiss == nil {
			firstMiss = &fields[i]
		}
	}

	if firstMiss == nil {
		return "request shape matched"
	}

	miss := firstMiss.Field + " did not match"
	if s, ok := firstMiss.Expected.(string); ok {
		if actual, ok := firstMiss.Actual.(string); ok {
			miss = fmt.Sprintf("%s expected %q, got %q", firstMiss.Field, s, actual)
		} else {
			miss = fmt.Sprintf("%s expected %q", firstMiss.Field, s)
		}
	}

	if len(matched) == 0 {
		return miss
	}
	return strings.Join(matched, ", ") + " matched, but " + miss
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
