package reference

import (
	"os"
	"strings"

	"exam-analyzer-go/internal/domain/exam"
)

// Status summarises the cache directory for health reporting.
type Status struct {
	Dir   string `json:"dir"`
	Files int    `json:"files"`
	Bytes int64  `json:"bytes"`
	// Expected is the number of reference files the catalog can produce.
	Expected int `json:"expected"`
}

func (c *Cache) Status() (Status, error) {
	st := Status{Dir: c.dir}
	for _, e := range c.catalog.Entries() {
		n := len(c.catalog.References(e.Type))
		if n > c.limit {
			n = c.limit
		}
		st.Expected += n
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return st, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), "_normal_") || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		st.Files++
		st.Bytes += info.Size()
	}
	return st, nil
}

// Catalog exposes the exam table the cache resolves URLs from.
func (c *Cache) Catalog() *exam.Catalog {
	return c.catalog
}
