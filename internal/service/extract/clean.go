package extract

import "strings"

// CleanPath strips the braces and quotes that shells and file managers wrap
// around dropped or pasted paths.
func CleanPath(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "{}")
	s = strings.Trim(s, `"`)
	return strings.Trim(s, "'")
}
