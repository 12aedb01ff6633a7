package exam

import "strings"

// Catalog is the ordered, read-only table consulted by the classifier and
// the reference cache. Order is the classification precedence.
type Catalog struct {
	entries []Entry
	index   map[Type]int
}

// NewCatalog copies entries into a catalog. Keywords are lowercased and
// trimmed. When no entry is named General an empty fallback row is appended
// so lookups always resolve.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)+1),
		index:   make(map[Type]int, len(entries)+1),
	}
	for _, e := range entries {
		if _, dup := c.index[e.Type]; dup {
			continue
		}
		keywords := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		c.index[e.Type] = len(c.entries)
		c.entries = append(c.entries, Entry{
			Type:       e.Type,
			Keywords:   keywords,
			References: append([]string(nil), e.References...),
		})
	}
	if _, ok := c.index[General]; !ok {
		c.index[General] = len(c.entries)
		c.entries = append(c.entries, Entry{Type: General})
	}
	return c
}

// DefaultCatalog returns the built-in exam table.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultEntries)
}

// Entries returns a copy of the catalog rows in precedence order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Has(t Type) bool {
	_, ok := c.index[t]
	return ok
}

// References returns the first MaxReferences URLs for t. Unknown types use
// the General list.
func (c *Catalog) References(t Type) []string {
	i, ok := c.index[t]
	if !ok {
		i = c.index[General]
	}
	refs := c.entries[i].References
	if len(refs) > MaxReferences {
		refs = refs[:MaxReferences]
	}
	return append([]string(nil), refs...)
}

const wiki = "https://upload.wikimedia.org/wikipedia/commons/thumb/"

var defaultEntries = []Entry{
	{
		Type:     BrainMRI,
		Keywords: []string{"cerebro", "cranio", "brain", "mri head", "ressonancia cranio"},
		References: []string{
			wiki + "1/19/Cerebral_angiography%2C_arteria_vertebralis.jpg/800px-Cerebral_angiography%2C_arteria_vertebralis.jpg",
			wiki + "5/5e/Lateral_head_on_MRI_edit.jpg/800px-Lateral_head_on_MRI_edit.jpg",
		},
	},
	{
		Type:     KneeMRI,
		Keywords: []string{"joelho", "knee", "tibial", "femoral"},
		References: []string{
			wiki + "9/9e/MRI_of_human_knee.jpg/800px-MRI_of_human_knee.jpg",
		},
	},
	{
		Type:     ChestXRay,
		Keywords: []string{"torax", "pulm", "chest", "xray", "raio-x"},
		References: []string{
			wiki + "7/7e/Normal_posteroanterior_%28PA%29_chest_radiograph_%28X-ray%29.jpg/800px-Normal_posteroanterior_%28PA%29_chest_radiograph_%28X-ray%29.jpg",
		},
	},
	{
		Type:     SpineMRI,
		Keywords: []string{"coluna", "lombar", "cervical", "spine", "vertebr"},
		References: []string{
			wiki + "9/96/Vertebral_column_lateral_diagram.png/400px-Vertebral_column_lateral_diagram.png",
		},
	},
	{
		Type:     HeadCT,
		Keywords: []string{"tomografia", "ct scan", "tac"},
		References: []string{
			wiki + "6/6c/Computed_tomography_of_human_brain_-_large.png/800px-Computed_tomography_of_human_brain_-_large.png",
		},
	},
	{
		Type: General,
		References: []string{
			wiki + "5/5e/Lateral_head_on_MRI_edit.jpg/800px-Lateral_head_on_MRI_edit.jpg",
		},
	},
}
