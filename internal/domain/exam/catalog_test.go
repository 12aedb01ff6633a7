package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name        string
		filename    string
		description string
		want        Type
	}{
		{"knee from filename", "mri_joelho_direito.png", "", KneeMRI},
		{"spine from description", "scan001.dcm", "dor lombar intensa", SpineMRI},
		{"unknown falls back", "img_0001.jpg", "", General},
		{"case insensitive", "CHEST_PA.JPG", "", ChestXRay},
		{"multi word keyword", "exam.png", "MRI Head axial", BrainMRI},
		{"hyphenated keyword", "raio-x.png", "", ChestXRay},
		{"ct scan phrase", "x.png", "ct scan sem contraste", HeadCT},
		{"substring keyword", "x.png", "vertebral", SpineMRI},
		{"keywords span filename and description", "tomo", "grafia", General},
		{"accented text is not folded", "x.png", "crânio", General},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.Classify(tt.filename, tt.description))
		})
	}
}

func TestClassify_DeclaredOrderWins(t *testing.T) {
	catalog := DefaultCatalog()

	// torax is declared before coluna
	assert.Equal(t, ChestXRay, catalog.Classify("coluna_torax.jpg", ""))
	// cranio belongs to the brain MRI row, which precedes the CT row
	assert.Equal(t, BrainMRI, catalog.Classify("tomografia_cranio.png", ""))
	// "tac" inside "contact" still selects the CT row
	assert.Equal(t, HeadCT, catalog.Classify("contact_sheet.png", ""))
	// no accent folding: "tórax" does not match "torax"
	assert.Equal(t, General, catalog.Classify("tórax.png", ""))
}

func TestClassify_IsPure(t *testing.T) {
	catalog := DefaultCatalog()
	first := catalog.Classify("knee.png", "dor")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, catalog.Classify("knee.png", "dor"))
	}
}

func TestCatalog_References(t *testing.T) {
	catalog := DefaultCatalog()

	for _, e := range catalog.Entries() {
		refs := catalog.References(e.Type)
		assert.LessOrEqual(t, len(refs), MaxReferences, e.Type)
	}
	assert.Len(t, catalog.References(BrainMRI), 2)
	assert.Len(t, catalog.References(KneeMRI), 1)
	assert.Equal(t, catalog.References(General), catalog.References(Type("unknown")))
}

func TestNewCatalog_CapsAndNormalises(t *testing.T) {
	catalog := NewCatalog([]Entry{
		{Type: "ressonancia_ombro", Keywords: []string{" Ombro ", "", "SHOULDER"}, References: []string{"a", "b", "c"}},
		{Type: "ressonancia_ombro", Keywords: []string{"ignored"}},
	})

	entries := catalog.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"ombro", "shoulder"}, entries[0].Keywords)
	assert.Equal(t, General, entries[1].Type)
	assert.Equal(t, []string{"a", "b"}, catalog.References("ressonancia_ombro"))
	assert.Equal(t, Type("ressonancia_ombro"), catalog.Classify("shoulder.png", ""))
	assert.Equal(t, General, catalog.Classify("ignored.png", ""))
	assert.Empty(t, catalog.References(General))
}

func TestCatalog_EntriesIsACopy(t *testing.T) {
	catalog := DefaultCatalog()
	entries := catalog.Entries()
	entries[0].Type = "mutated"
	assert.Equal(t, BrainMRI, catalog.Entries()[0].Type)
}
