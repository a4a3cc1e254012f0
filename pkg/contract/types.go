// Package contract defines the stub contract model: a request matcher, a
// response template, and an optional scenario precondition/transition pair.
package contract

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// StateStarted is the initial state of every scenario. Scenarios are in this
// state before any transition and after a reset.
const StateStarted = "Started"

// Contract pairs a request matcher with a response template, optionally
// gated on a scenario state. Contracts are immutable once loaded.
type Contract struct {
	// ID uniquely identifies the contract. Assigned at load time if empty.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Name is an optional display name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Description is optional free-form documentation.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Scenario names the state machine this contract participates in.
	// Empty means the contract is stateless and always eligible.
	Scenario string `json:"scenario,omitempty" yaml:"scenario,omitempty"`

	// RequiredState is the scenario state this contract is eligible in.
	// Defaults to StateStarted when Scenario is set and this is empty.
	RequiredState string `json:"requiredState,omitempty" yaml:"requiredState,omitempty"`

	// NewState, when non-empty, is the state the scenario moves to after
	// this contract serves a request.
	NewState string `json:"newState,omitempty" yaml:"newState,omitempty"`

	// Request describes the request shape this contract matches.
	Request *RequestMatcher `json:"request" yaml:"request"`

	// Response describes the response to render on a match.
	Response *ResponseTemplate `json:"response" yaml:"response"`
}

// Stateless reports whether the contract participates in no scenario.
func (c *Contract) Stateless() bool {
	return c.Scenario == ""
}

// EffectiveRequiredState returns the state the contract is eligible in,
// defaulting to StateStarted for scenario contracts that leave
// RequiredState empty. Returns "" for stateless contracts.
func (c *Contract) EffectiveRequiredState() string {
	if c.Scenario == "" {
		return ""
	}
	if c.RequiredState == "" {
		return StateStarted
	}
	return c.RequiredState
}

// RequestMatcher describes the request shape a contract matches. All
// specified fields must match (conjunction); unspecified fields are ignored.
type RequestMatcher struct {
	// Method is the HTTP method (case-insensitive). Empty matches any.
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// Path matches the URL path exactly, with optional {param} segments
	// and a trailing /* wildcard.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// PathPattern matches the URL path against an RE2 regular expression.
	// Mutually exclusive with Path.
	PathPattern string `json:"pathPattern,omitempty" yaml:"pathPattern,omitempty"`

	// Headers maps header names to expected values. Values support
	// prefix*, *suffix, and *contains* wildcards.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// QueryParams maps query parameter names to expected values.
	QueryParams map[string]string `json:"queryParams,omitempty" yaml:"queryParams,omitempty"`

	// BodyEquals matches the raw body byte-for-byte.
	BodyEquals string `json:"bodyEquals,omitempty" yaml:"bodyEquals,omitempty"`

	// BodyContains matches bodies containing the substring.
	BodyContains string `json:"bodyContains,omitempty" yaml:"bodyContains,omitempty"`

	// BodyPattern matches the body against an RE2 regular expression.
	BodyPattern string `json:"bodyPattern,omitempty" yaml:"bodyPattern,omitempty"`

	// BodyJSONPath maps JSONPath expressions to expected values. A value
	// of {"exists": true/false} asserts presence/absence instead.
	BodyJSONPath map[string]any `json:"bodyJsonPath,omitempty" yaml:"bodyJsonPath,omitempty"`

	// BodyExpr is a boolean expression evaluated against the parsed JSON
	// body (bound as "body").
	BodyExpr string `json:"bodyExpr,omitempty" yaml:"bodyExpr,omitempty"`
}

// Empty reports whether the matcher specifies no criteria at all.
func (m *RequestMatcher) Empty() bool {
	return m.Method == "" && m.Path == "" && m.PathPattern == "" &&
		len(m.Headers) == 0 && len(m.QueryParams) == 0 &&
		m.BodyEquals == "" && m.BodyContains == "" && m.BodyPattern == "" &&
		len(m.BodyJSONPath) == 0 && m.BodyExpr == ""
}

// ResponseTemplate specifies the response to render on a match. Header
// values and the body may contain {{...}} template expressions.
type ResponseTemplate struct {
	StatusCode int               `json:"statusCode" yaml:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       string            `json:"body,omitempty" yaml:"body,omitempty"`
	DelayMs    int               `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
}

// UnmarshalJSON handles the Body field accepting both a string and a JSON
// object/array. Object and array bodies are kept as their raw JSON text, so
// config files can write body: {"id": 1} instead of body: '{"id": 1}'.
func (r *ResponseTemplate) UnmarshalJSON(data []byte) error {
	var proxy struct {
		StatusCode int               `json:"statusCode"`
		Headers    map[string]string `json:"headers,omitempty"`
		Body       json.RawMessage   `json:"body,omitempty"`
		DelayMs    int               `json:"delayMs,omitempty"`
	}
	if err := json.Unmarshal(data, &proxy); err != nil {
		return err
	}

	r.StatusCode = proxy.StatusCode
	r.Headers = proxy.Headers
	r.DelayMs = proxy.DelayMs

	if len(proxy.Body) == 0 {
		r.Body = ""
		return nil
	}

	// String body is the common case
	var s string
	if err := json.Unmarshal(proxy.Body, &s); err == nil {
		r.Body = s
		return nil
	}

	// Object, array, number, or boolean: keep the raw JSON text
	r.Body = string(proxy.Body)
	return nil
}

// UnmarshalYAML handles the Body field accepting both a string and a YAML
// mapping/sequence. Mapping and sequence bodies are marshaled to a JSON
// string.
func (r *ResponseTemplate) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping node, got %d", value.Kind)
	}

	type responseAlias ResponseTemplate
	var alias responseAlias

	// Find the body node and swap in a placeholder scalar so the default
	// decoder doesn't choke on object bodies.
	var bodyNode *yaml.Node
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "body" {
			bodyNode = value.Content[i+1]
			orig := *bodyNode
			value.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Value: "", Tag: "!!str"}
			if err := value.Decode(&alias); err != nil {
				return err
			}
			*value.Content[i+1] = orig
			bodyNode = &orig
			goto handleBody
		}
	}

	if err := value.Decode(&alias); err != nil {
		return err
	}
	*r = ResponseTemplate(alias)
	return nil

handleBody:
	*r = ResponseTemplate(alias)

	if bodyNode.Kind == yaml.ScalarNode {
		r.Body = bodyNode.Value
		return nil
	}

	var bodyObj any
	if err := bodyNode.Decode(&bodyObj); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	bodyJSON, err := json.Marshal(bodyObj)
	if err != nil {
		return fmt.Errorf("failed to marshal body to JSON: %w", err)
	}
	r.Body = string(bodyJSON)
	return nil
}
