package contract

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/ohler55/ojg/jp"

	"github.com/stubwire/stubwire/pkg/template"
)

// ConfigError reports a malformed contract at load time. Loading stops at
// the first ConfigError; the server never starts with a bad contract set.
type ConfigError struct {
	// ContractID identifies the offending contract (may be a positional
	// placeholder when the contract has no ID yet).
	ContractID string

	// Field names the offending field, when one can be singled out.
	Field string

	// Message describes what is wrong.
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("contract %s: field %s: %s", e.ContractID, e.Field, e.Message)
	}
	return fmt.Sprintf("contract %s: %s", e.ContractID, e.Message)
}

// Validate checks the contract for structural errors. It returns a
// *ConfigError describing the first problem found, or nil.
func (c *Contract) Validate() error {
	if c.Request == nil {
		return &ConfigError{ContractID: c.ID, Field: "request", Message: "request matcher is required"}
	}
	if c.Response == nil {
		return &ConfigError{ContractID: c.ID, Field: "response", Message: "response template is required"}
	}

	if c.Scenario == "" {
		if c.RequiredState != "" {
			return &ConfigError{ContractID: c.ID, Field: "requiredState", Message: "requiredState requires a scenario"}
		}
		if c.NewState != "" {
			return &ConfigError{ContractID: c.ID, Field: "newState", Message: "newState requires a scenario"}
		}
	}

	if err := c.Request.validate(c.ID); err != nil {
		return err
	}
	return c.Response.validate(c.ID)
}

func (m *RequestMatcher) validate(contractID string) error {
	if m.Path != "" && m.PathPattern != "" {
		return &ConfigError{ContractID: contractID, Field: "path", Message: "path and pathPattern are mutually exclusive"}
	}
	if m.Empty() {
		return &ConfigError{ContractID: contractID, Field: "request", Message: "at least one match criterion is required"}
	}

	if m.PathPattern != "" {
		if _, err := regexp.Compile(m.PathPattern); err != nil {
			return &ConfigError{ContractID: contractID, Field: "pathPattern", Message: fmt.Sprintf("invalid regular expression: %v", err)}
		}
	}
	if m.BodyPattern != "" {
		if _, err := regexp.Compile(m.BodyPattern); err != nil {
			return &ConfigError{ContractID: contractID, Field: "bodyPattern", Message: fmt.Sprintf("invalid regular expression: %v", err)}
		}
	}
	for path := range m.BodyJSONPath {
		if _, err := jp.ParseString(path); err != nil {
			return &ConfigError{ContractID: contractID, Field: "bodyJsonPath", Message: fmt.Sprintf("invalid JSONPath %q: %v", path, err)}
		}
	}
	if m.BodyExpr != "" {
		if _, err := expr.Compile(m.BodyExpr, expr.AllowUndefinedVariables(), expr.AsBool()); err != nil {
			return &ConfigError{ContractID: contractID, Field: "bodyExpr", Message: fmt.Sprintf("invalid expression: %v", err)}
		}
	}
	return nil
}

func (r *ResponseTemplate) validate(contractID string) error {
	if r.StatusCode < 100 || r.StatusCode > 599 {
		return &ConfigError{ContractID: contractID, Field: "statusCode", Message: fmt.Sprintf("status code %d out of range", r.StatusCode)}
	}
	if r.DelayMs < 0 {
		return &ConfigError{ContractID: contractID, Field: "delayMs", Message: "delay must not be negative"}
	}
	if err := template.Validate(r.Body); err != nil {
		return &ConfigError{ContractID: contractID, Field: "body", Message: err.Error()}
	}
	for name, value := range r.Headers {
		if err := template.Validate(value); err != nil {
			return &ConfigError{ContractID: contractID, Field: "headers." + name, Message: err.Error()}
		}
	}
	return nil
}
