package compiler

import (
	goscanner "go/scanner"
	gotoken "go/token"
)

// Errors is the accumulated set of compile-time diagnostics produced by a
// single Compile call. It is go/scanner's ErrorList, the same accumulator
// the scanner package this compiler's lineage descends from uses; Compile
// never needs its position-sorting behavior (every diagnostic already
// carries its own preformatted "[line L] Error ...: msg" text). ErrorList
// does not implement Unwrap() []error, so a caller wanting the individual
// diagnostics out of the error Compile returns must go through Diagnostics
// below rather than an interface assertion.
type Errors = goscanner.ErrorList

// addError appends a preformatted diagnostic. The go/token.Position is left
// zero (invalid) so each entry's Error() (and so ErrorList's Error()) prints
// msg verbatim instead of prepending a position we have already embedded in it.
func addError(errs *Errors, msg string) {
	errs.Add(gotoken.Position{}, msg)
}

// Diagnostics reports whether err is the accumulated error Compile returns
// (the concrete goscanner.ErrorList produced by Errors.Err()) and, if so,
// its individual diagnostics in source order. ok is false for any other
// error, including nil, so callers can distinguish a compile failure from
// every other kind of error without naming goscanner themselves.
func Diagnostics(err error) (diags []error, ok bool) {
	list, ok := err.(goscanner.ErrorList)
	if !ok {
		return nil, false
	}
	diags = make([]error, len(list))
	for i, e := range list {
		diags[i] = e
	}
	return diags, true
}
