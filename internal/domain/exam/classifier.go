package exam

import "strings"

// Classify picks the exam type for an upload. The lowercased
// "filename description" text is scanned against each entry in catalog
// order and the first entry with a keyword occurring as a substring wins.
// No match yields General.
//
// Matching is plain substring search without accent folding, so "crânio"
// does not match "cranio" and short keywords such as "tac" also match
// inside longer words.
func (c *Catalog) Classify(filename, description string) Type {
	combined := strings.ToLower(filename + " " + description)
	for _, e := range c.entries {
		for _, kw := range e.Keywords {
			if strings.Contains(combined, kw) {
				return e.Type
			}
		}
	}
	return General
}
