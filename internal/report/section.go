package report

import "strings"

// Unspecified names the group of rows with a blank section.
const Unspecified = "UNSPECIFIED"

// Group is the rows sharing one sanitized section name.
type Group struct {
	Name string
	Rows []Row
}

// SanitizeSection turns a section value into a file-safe group name.
// Spaces and path separators become underscores; blank becomes UNSPECIFIED.
func SanitizeSection(section string) string {
	s := strings.TrimSpace(section)
	if s == "" {
		return Unspecified
	}
	return strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(s)
}

// SectionFileName is the export file name for a section.
func SectionFileName(section string) string {
	return "section_" + SanitizeSection(section) + ".csv"
}

// GroupBySection partitions rows by sanitized section, in order of first
// appearance. Every row lands in exactly one group.
func GroupBySection(rows []Row) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, r := range rows {
		name := SanitizeSection(r.Record.Section)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}
