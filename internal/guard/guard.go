// Package guard applies per-engine safety checks to template input
// values before they are interpolated into a compute request sent to
// an in-process or subprocess engine. Each profile pairs a maximum
// length with a deny-list of substrings associated with sandbox
// escapes in that engine's host language.
package guard

import (
	"regexp"
	"strings"
)

// Profile is a named input-validation rule set.
type Profile struct {
	name       string
	maxLen     int
	blocked    *regexp.Regexp
	denyNulls  bool
	denyNLSemi bool
}

// Symbolic is the profile for the goja-backed symbolic engine, grounded
// on the Python/SymPy co-interpreter's blocklist: it rejects tokens
// that reach into the interpreter's runtime or filesystem.
var Symbolic = Profile{
	name:   "symbolic",
	maxLen: 500,
	blocked: regexp.MustCompile(`(?i)(__import__|exec\s*\(|eval\s*\(|compile\s*\(|open\s*\(` +
		`|os\.|sys\.|subprocess|import\s|from\s.*import` +
		`|globals|locals|getattr|setattr|delattr` +
		`|__builtins__|__class__|__subclasses__` +
		`|Popen|system\(|popen)`),
	denyNulls: true,
}

// Algebra is the profile for the external GAP-like engine, grounded on
// its blocklist of filesystem and process primitives, plus a
// statement-separator ban since templates only ever need one expression.
var Algebra = Profile{
	name:   "algebra",
	maxLen: 200,
	blocked: regexp.MustCompile(`(?i)(Exec|IO_|Process|Runtime|System|InputTextFile|OutputTextFile` +
		`|ReadAll|PrintTo|AppendTo|QUIT|Filename|DirectoryCurrent` +
		`|DirectoryContents|Concatenation.*Filename)`),
	denyNLSemi: true,
}

// Calc is the profile for the external Maxima-like engine: it rejects
// the calculator's shell, file, Lisp-escape, environment and loading
// primitives, plus statement separators, since each template emits
// exactly one command.
var Calc = Profile{
	name:   "calc",
	maxLen: 500,
	blocked: regexp.MustCompile(`(?i)(system\s*\(|:lisp|to_lisp|load\s*\(|batch` +
		`|opena|openr|openw|with_stdout|writefile|stringout|save\s*\(` +
		`|getenv|delete_file|rename_file|eval_string|run_testsuite)`),
	denyNulls:  true,
	denyNLSemi: true,
}

// Validate reports whether value passes p's safety checks.
func (p Profile) Validate(value string) bool {
	if value == "" || len(value) > p.maxLen {
		return false
	}
	if p.blocked != nil && p.blocked.MatchString(value) {
		return false
	}
	if p.denyNulls && strings.ContainsRune(value, 0) {
		return false
	}
	if p.denyNLSemi && strings.ContainsAny(value, ";\n") {
		return false
	}
	return true
}

// Name returns the profile's identifier.
func (p Profile) Name() string { return p.name }

// ValidateInputs runs p against every value in inputs, returning the
// first key that fails validation and false, or ("", true) if all pass.
func (p Profile) ValidateInputs(inputs map[string]string) (string, bool) {
	for key, value := range inputs {
		if !p.Validate(value) {
			return key, false
		}
	}
	return "", true
}
