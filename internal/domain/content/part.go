// Package content defines the ordered multimodal parts sent to a model.
package content

// Kind discriminates Part.
type Kind int

const (
	KindText Kind = iota
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Part is either a text fragment or an inline image. Only the fields of
// its Kind are meaningful.
type Part struct {
	Kind     Kind
	Text     string
	Data     []byte
	MIMEType string
}

func Text(s string) Part {
	return Part{Kind: KindText, Text: s}
}

func Image(data []byte, mimeType string) Part {
	return Part{Kind: KindImage, Data: data, MIMEType: mimeType}
}

// CountImages reports how many image parts parts holds.
func CountImages(parts []Part) int {
	n := 0
	for _, p := range parts {
		if p.Kind == KindImage {
			n++
		}
	}
	return n
}
