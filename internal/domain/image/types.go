package image

// Normalized is an image ready to be sent to the model.
type Normalized struct {
	Data     []byte
	MIMEType string
	// Format is the decoder name ("png", "bmp", ...) or empty when the
	// payload could not be decoded.
	Format     string
	Transcoded bool
}

// Inspection captures what the upload validator learned about a payload.
type Inspection struct {
	Decodable    bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	SniffedMIME  string
	SecurityRisk string
}
