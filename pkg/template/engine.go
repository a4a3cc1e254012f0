// Package template renders {{...}} expressions inside response templates.
//
// Supported expressions:
//
//   - {{uuid}}, {{uuid.short}} — random identifiers
//   - {{now}}, {{timestamp}}, {{timestamp.iso}}, {{timestamp.unix_ms}} — time
//   - {{random.int(min, max)}}, {{random.string(len)}} — random data
//   - {{request.method}}, {{request.path}}, {{request.query.name}},
//     {{request.header.Name}}, {{request.body.field.nested}} — request echo
//   - {{path.param}} — named path parameters from the matched contract path
//   - {{scenario.name}}, {{scenario.state}}, {{scenario.newState}} — the
//     matched contract's scenario, its pre-transition state, and the state
//     being transitioned to
//   - {{upper(...)}}, {{lower(...)}} — string helpers over any expression
//
// Unknown expressions render as the empty string so a template never fails at
// request time; syntax problems are caught at load by Validate.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Engine processes templates with variable substitution. The Engine is
// stateless and safe for concurrent use.
type Engine struct{}

// New creates a new template engine.
func New() *Engine {
	return &Engine{}
}

// templateRegex matches {{expression}} patterns with optional whitespace.
var templateRegex = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

var (
	// random.int(min, max)
	randomIntPattern = regexp.MustCompile(`^random\.int\((\d+),\s*(\d+)\)$`)
	// random.string(length)
	randomStringPattern = regexp.MustCompile(`^random\.string\((\d+)\)$`)
	// upper(expr) / lower(expr)
	funcCallPattern = regexp.MustCompile(`^(upper|lower)\((.+)\)$`)
)

// Process evaluates a template string with the given context, replacing every
// {{expression}} with its evaluated result.
func (e *Engine) Process(tmpl string, ctx *Context) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	return templateRegex.ReplaceAllStringFunc(tmpl, func(match string) string {
		inner := templateRegex.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		return e.evaluate(strings.TrimSpace(inner[1]), ctx)
	})
}

// evaluate processes a single template expression and returns its value.
// Unknown expressions return the empty string.
func (e *Engine) evaluate(expr string, ctx *Context) string {
	switch expr {
	case "uuid":
		return uuid.New().String()
	case "uuid.short":
		return uuid.New().String()[:8]
	case "now":
		return time.Now().Format(time.RFC3339)
	case "timestamp", "timestamp.unix":
		return strconv.FormatInt(time.Now().Unix(), 10)
	case "timestamp.iso":
		return time.Now().UTC().Format(time.RFC3339Nano)
	case "timestamp.unix_ms":
		return strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	if ctx != nil {
		switch expr {
		case "request.method":
			return ctx.Request.Method
		case "request.path":
			return ctx.Request.Path
		case "request.body":
			return ctx.Request.RawBody
		case "scenario.name":
			return ctx.Scenario.Name
		case "scenario.state":
			return ctx.Scenario.State
		case "scenario.newState":
			return ctx.Scenario.NewState
		}

		if rest, ok := strings.CutPrefix(expr, "request.body."); ok {
			return ctx.bodyField(rest)
		}
		if rest, ok := strings.CutPrefix(expr, "request.header."); ok {
			return ctx.headerValue(rest)
		}
		if rest, ok := strings.CutPrefix(expr, "request.query."); ok {
			return ctx.queryValue(rest)
		}
		if rest, ok := strings.CutPrefix(expr, "path."); ok {
			return ctx.Request.PathParams[rest]
		}
	}

	if m := randomIntPattern.FindStringSubmatch(expr); m != nil {
		return funcRandomInt(mustAtoi(m[1]), mustAtoi(m[2]))
	}
	if m := randomStringPattern.FindStringSubmatch(expr); m != nil {
		return funcRandomString(mustAtoi(m[1]))
	}
	if m := funcCallPattern.FindStringSubmatch(expr); m != nil {
		inner := e.evaluate(strings.TrimSpace(m[2]), ctx)
		if m[1] == "upper" {
			return strings.ToUpper(inner)
		}
		return strings.ToLower(inner)
	}

	return ""
}

// Validate checks template delimiters: every {{ must have a matching }} and
// no expression may be empty. Unknown expression names are not an error (they
// render empty), but broken delimiters surface here at load time instead of
// in responses.
func Validate(tmpl string) error {
	rest := tmpl
	for {
		open := strings.Index(rest, "{{")
		if open == -1 {
			break
		}
		closing := strings.Index(rest[open:], "}}")
		if closing == -1 {
			return fmt.Errorf("unclosed template expression at offset %d", len(tmpl)-len(rest)+open)
		}
		if strings.TrimSpace(rest[open+2:open+closing]) == "" {
			return fmt.Errorf("empty template expression at offset %d", len(tmpl)-len(rest)+open)
		}
		rest = rest[open+closing+2:]
	}
	return nil
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
