package matching

import (
	"encoding/json"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// exprCache holds compiled body expressions keyed by source text. Contracts
// are immutable after load, so the cache never needs invalidation.
var exprCache sync.Map // string -> *vm.Program

// MatchBodyExpr evaluates an expr-lang boolean expression against the parsed
// JSON request body, bound as `body`. A non-JSON body, a compile failure
// (rejected at load time), an evaluation error, or a non-boolean result all
// yield no match.
func MatchBodyExpr(source string, body []byte) bool {
	if source == "" {
		return false
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return false
	}

	program, err := compileBodyExpr(source)
	if err != nil {
		return false
	}

	out, err := expr.Run(program, map[string]any{"body": data})
	if err != nil {
		return false
	}

	result, ok := out.(bool)
	return ok && result
}

func compileBodyExpr(source string) (*vm.Program, error) {
	if cached, ok := exprCache.Load(source); ok {
		return cached.(*vm.Program), nil
	}

	program, err := expr.Compile(source, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	exprCache.Store(source, program)
	return program, nil
}
