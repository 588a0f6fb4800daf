// Package convert turns preprocessed LaTeX into an engine-native
// arithmetic syntax via a fixed, ordered table of regex rewrites.
// Every pass runs exactly once, in table order; no second sweep is
// performed over the already-rewritten text, apart from a final step
// that puts back function names split by implicit multiplication.
package convert

import (
	"regexp"
	"strings"
)

// LogStyle selects how a bare \log converts, since engines disagree.
type LogStyle int

const (
	// LogNatural converts \log to the engine's natural-log name.
	LogNatural LogStyle = iota
	// LogBase10 converts \log to the engine's base-10 log name.
	LogBase10
)

// Table holds the per-engine knobs layered on top of the shared
// rewrite pipeline.
type Table struct {
	GreekSigil string // prefix applied to Greek letter names, e.g. "%"
	LogStyle   LogStyle
	LogName    string // natural-log function name, e.g. "log" or "ln"
	Log10Name  string // base-10 function name, e.g. "log10"
}

var (
	fracRE     = regexp.MustCompile(`\\frac\{([^{}]*)\}\{([^{}]*)\}`)
	nthRootRE  = regexp.MustCompile(`\\sqrt\[([^\]]*)\]\{([^{}]*)\}`)
	sqrtRE     = regexp.MustCompile(`\\sqrt\{([^{}]*)\}`)
	superRE    = regexp.MustCompile(`\^\{([^{}]*)\}`)
	subRE      = regexp.MustCompile(`_\{([^{}]*)\}`)
	eRE        = regexp.MustCompile(`\\e\b`)
	braceOpenRE  = regexp.MustCompile(`\{`)
	braceCloseRE = regexp.MustCompile(`\}`)
	backslashRE  = regexp.MustCompile(`\\[a-zA-Z]*`)

	digitLetterRE = regexp.MustCompile(`(\d)([a-zA-Z(])`)
	letterDigitRE = regexp.MustCompile(`([a-zA-Z)])(\d)`)
	closeLetterRE = regexp.MustCompile(`\)([a-zA-Z])`)
	letterOpenRE  = regexp.MustCompile(`([a-zA-Z0-9])\(`)
)

var trigNames = []struct{ latex, native string }{
	{`\arcsin`, "asin"}, {`\arccos`, "acos"}, {`\arctan`, "atan"},
	{`\sinh`, "sinh"}, {`\cosh`, "cosh"}, {`\tanh`, "tanh"},
	{`\sin`, "sin"}, {`\cos`, "cos"}, {`\tan`, "tan"},
}

// greekNames excludes "pi", which is converted earlier alongside the
// constant \pi regardless of sigil, matching how engines treat it as
// a numeric constant rather than a bound variable.
var greekNames = []string{
	"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta",
	"iota", "kappa", "lambda", "mu", "nu", "xi", "omicron", "rho",
	"sigma", "tau", "upsilon", "phi", "chi", "psi", "omega",
}

// Convert rewrites preprocessed LaTeX s into t's native arithmetic
// syntax, applying every phase exactly once in order.
func (t Table) Convert(s string) string {
	out := s

	out = fracRE.ReplaceAllString(out, "(($1)/($2))")
	out = nthRootRE.ReplaceAllString(out, "(($2)^(1/($1)))")
	out = sqrtRE.ReplaceAllString(out, "sqrt($1)")

	for _, tr := range trigNames {
		out = replaceLiteralCommand(out, tr.latex, tr.native)
	}

	switch t.LogStyle {
	case LogBase10:
		out = replaceLiteralCommand(out, `\log`, nameOr(t.Log10Name, "log10"))
	default:
		out = replaceLiteralCommand(out, `\log`, nameOr(t.LogName, "log"))
	}
	out = replaceLiteralCommand(out, `\ln`, nameOr(t.LogName, "log"))

	out = replaceLiteralCommand(out, `\pi`, "pi")
	out = eRE.ReplaceAllString(out, "exp(1)")

	for _, g := range greekNames {
		out = replaceLiteralCommand(out, `\`+g, t.GreekSigil+g)
	}

	out = replaceLiteral(out, `\cdot`, "*")
	out = replaceLiteral(out, `\times`, "*")
	out = replaceLiteral(out, `\div`, "/")

	out = superRE.ReplaceAllString(out, "^($1)")
	out = subRE.ReplaceAllString(out, "_$1")

	out = braceOpenRE.ReplaceAllString(out, "(")
	out = braceCloseRE.ReplaceAllString(out, ")")
	out = backslashRE.ReplaceAllString(out, "")

	out = implicitMultiply(out)

	// implicitMultiply also splits the function calls emitted above
	// (sin(x) becomes sin*(x), log10(x) becomes log*10*(x)); restore them.
	names := []string{"sqrt", "exp", nameOr(t.LogName, "log"), nameOr(t.Log10Name, "log10")}
	for _, tr := range trigNames {
		names = append(names, tr.native)
	}
	for _, fn := range names {
		out = strings.ReplaceAll(out, implicitMultiply(fn+"("), fn+"(")
	}
	return out
}

// implicitMultiply inserts an explicit * between adjacent factors.
func implicitMultiply(s string) string {
	s = digitLetterRE.ReplaceAllString(s, "$1*$2")
	s = letterDigitRE.ReplaceAllString(s, "$1*$2")
	s = closeLetterRE.ReplaceAllString(s, ")*$1")
	return letterOpenRE.ReplaceAllString(s, "$1*(")
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func replaceLiteralCommand(s, command, native string) string {
	return strings.ReplaceAll(s, command, native)
}

func replaceLiteral(s, old, new string) string {
	return strings.ReplaceAll(s, old, new)
}
