package writer

import "strings"

// formulaLeadChars are the characters that, at the start of a cell
// value, would be interpreted as a spreadsheet formula by a
// vulnerable client (§3).
const formulaLeadChars = "=+-@\t\r\n"

// Sanitize neutralizes formula injection by prefixing a leading
// apostrophe whenever s begins with one of the formula-trigger
// characters. Idempotent on already-sanitized input (an apostrophe is
// not itself a trigger character).
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune(formulaLeadChars, rune(s[0])) {
		return "'" + s
	}
	return s
}
