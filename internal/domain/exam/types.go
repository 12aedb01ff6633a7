package exam

// Type identifies an exam category. Values are the raw keys reported to
// clients, e.g. "ressonancia_joelho".
type Type string

const (
	BrainMRI  Type = "ressonancia_cerebro"
	KneeMRI   Type = "ressonancia_joelho"
	ChestXRay Type = "raio_x_torax"
	SpineMRI  Type = "ressonancia_coluna"
	HeadCT    Type = "tomografia_cranio"
	General   Type = "geral"
)

func (t Type) String() string {
	return string(t)
}

// MaxReferences bounds how many reference URLs of one type are consulted.
const MaxReferences = 2

// Entry is one row of the catalog: an exam type, the keywords that select
// it and the URLs of its normal reference images.
type Entry struct {
	Type       Type
	Keywords   []string
	References []string
}
