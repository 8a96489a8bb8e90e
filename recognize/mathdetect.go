package recognize

import "regexp"

// The default heuristics are deliberately approximate: they exist to skip
// the markup pass on clearly prose-only text, not to classify math with
// precision.
var mathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d\s*[+\-*/=<>]\s*\d`),           // arithmetic between digits
	regexp.MustCompile(`\\[a-zA-Z]{2,}`),                 // LaTeX commands
	regexp.MustCompile(`[∫∑∏√∞≈≠≤≥±∂∇·×÷]`),              // math symbols
	regexp.MustCompile(`[α-ωΑ-Ω]`),                       // Greek letters
	regexp.MustCompile(`[a-zA-Z0-9]\s*\^\s*[a-zA-Z0-9]`), // exponents
	regexp.MustCompile(`\([a-z]\)\s*=`),                  // f(x) = style definitions
	regexp.MustCompile(`\d+\s*/\s*\d+`),                  // fractions
}

// DefaultMathPredicate reports whether text looks like it contains a
// mathematical expression.
func DefaultMathPredicate(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range mathPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
