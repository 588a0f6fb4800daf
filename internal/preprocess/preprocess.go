// Package preprocess normalizes raw LaTeX markup into a canonical
// form engines can convert to their own native syntax. The pipeline
// runs in four fixed phases: strip environment wrappers, strip
// typographical commands, normalize synonym commands, then collapse
// whitespace.
package preprocess

import (
	"regexp"
	"strings"
)

var envPatterns = compileAll([]string{
	`\\begin\{equation\*?\}`, `\\end\{equation\*?\}`,
	`\\begin\{align\*?\}`, `\\end\{align\*?\}`,
	`\\begin\{gather\*?\}`, `\\end\{gather\*?\}`,
	`\\begin\{multline\*?\}`, `\\end\{multline\*?\}`,
	`\\begin\{eqnarray\*?\}`, `\\end\{eqnarray\*?\}`,
	`\\\[`, `\\\]`,
	`\$\$`, `\$`,
})

var stripCommands = compileAll([]string{
	`\\left`, `\\right`,
	`\\displaystyle`, `\\textstyle`, `\\scriptstyle`,
	`\\Bigg`, `\\bigg`, `\\Big`, `\\big`,
	`\\,`, `\\;`, `\\:`, `\\!`, `\\quad`, `\\qquad`,
	`&`, `\\\\`, `\\nonumber`, `\\label\{[^}]*\}`,
	`\\tag\{[^}]*\}`,
})

var fontCommands = compileAll([]string{
	`\\mathrm\{([^}]*)\}`,
	`\\mathbf\{([^}]*)\}`,
	`\\mathit\{([^}]*)\}`,
	`\\text\{([^}]*)\}`,
	`\\textit\{([^}]*)\}`,
	`\\boldsymbol\{([^}]*)\}`,
	`\\operatorname\{([^}]*)\}`,
})

type synonym struct {
	old, new string
}

var synonyms = []synonym{
	{`\dfrac`, `\frac`},
	{`\tfrac`, `\frac`},
	{`\ge`, `\geq`},
	{`\le`, `\leq`},
	{`\ne`, `\neq`},
	{`\to`, `\rightarrow`},
	{`\gets`, `\leftarrow`},
	{`\land`, `\wedge`},
	{`\lor`, `\vee`},
	{`\lnot`, `\neg`},
	{`\cdot`, "*"},
	{`\times`, "*"},
}

var whitespaceRE = regexp.MustCompile(`\s+`)

var commandRE = regexp.MustCompile(`\\[a-zA-Z]+`)

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// StripEnvironments removes math environment wrappers (phase 1).
func StripEnvironments(latex string) string {
	result := latex
	for _, re := range envPatterns {
		result = re.ReplaceAllString(result, "")
	}
	return result
}

// RemoveTypographical strips typographical commands and extracts
// the contents of font commands, discarding the font itself (phase 2).
func RemoveTypographical(latex string) string {
	result := latex
	for _, re := range stripCommands {
		result = re.ReplaceAllString(result, "")
	}
	for _, re := range fontCommands {
		result = re.ReplaceAllString(result, "$1")
	}
	return result
}

// NormalizeSynonyms maps alternative LaTeX commands to their
// canonical forms (phase 3).
// Only whole command names are matched, so \geq is never read as \ge.
func NormalizeSynonyms(latex string) string {
	return commandRE.ReplaceAllStringFunc(latex, func(cmd string) string {
		for _, s := range synonyms {
			if cmd == s.old {
				return s.new
			}
		}
		return cmd
	})
}

// CleanWhitespace collapses whitespace runs and trims a single
// redundant pair of outer braces (phase 4).
func CleanWhitespace(latex string) string {
	result := whitespaceRE.ReplaceAllString(latex, " ")
	result = strings.TrimSpace(result)
	if strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}") {
		inner := result[1 : len(result)-1]
		if strings.Count(inner, "{") == strings.Count(inner, "}") {
			result = inner
		}
	}
	return result
}

// Preprocess runs the full 4-phase pipeline over raw LaTeX.
func Preprocess(latex string) string {
	result := latex
	result = StripEnvironments(result)
	result = RemoveTypographical(result)
	result = NormalizeSynonyms(result)
	result = CleanWhitespace(result)
	return result
}
