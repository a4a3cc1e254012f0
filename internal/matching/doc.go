// Package matching evaluates contract request matchers against incoming
// HTTP requests.
//
// A matcher is a conjunction: every specified predicate (method, path,
// headers, query params, body) must hold for a full match. There is no
// partial-credit selection — a contract either matches fully or not at all,
// and among several full matches the first by insertion order wins.
//
// The package also provides a per-field breakdown used to rank near-miss
// candidates in "no matching stub" diagnostics; the field scores exist only
// for that ranking and never influence selection.
package matching
