package model

// Image is the normalized descriptor produced by camera or gallery picks.
type Image struct {
	URI      string
	Name     string
	Type     string
	Width    int
	Height   int
	FileSize int64
}

// Upload is an image materialized for a multipart request.
type Upload struct {
	Name string
	Type string
	Data []byte
}
