package helpers

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern builds an ILIKE pattern matching s anywhere in a column.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}

// PrefixPattern builds an ILIKE pattern matching columns starting with s.
func PrefixPattern(s string) string {
	return EscapeLike(s) + "%"
}

// SplitCSV splits a comma separated query value, trimming entries and dropping empty ones.
func SplitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}

// NormalizeTags trims every entry and drops the empty ones. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
