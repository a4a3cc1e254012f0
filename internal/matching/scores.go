package matching

// Field weights used to rank near-miss candidates in diagnostics. More
// specific predicates weigh more, so a candidate that matched an exact body
// ranks above one that only matched the method. Selection itself is
// first-full-match by insertion order and ignores these entirely.
const (
	scoreMethod        = 10
	scorePath          = 15
	scorePathPattern   = 14
	scoreHeader        = 10
	scoreQueryParam    = 5
	scoreBodyEquals    = 25
	scoreBodyPattern   = 22
	scoreBodyContains  = 20
	scoreJSONPathField = 15
	scoreBodyExpr      = 15
)
