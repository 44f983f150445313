package models

// Attachment is one file carried by an inbound email. The bytes are held
// only for the duration of the request; either discarded or persisted as
// a resume object.
type Attachment struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
	Size        int    `json:"size"`
}

// InboundEmail is the canonical form of one inbound application email,
// produced by the payload normalizer from whatever wire encoding the
// provider delivered. Transient; never persisted verbatim.
type InboundEmail struct {
	FromHeader  string
	To          string
	Subject     string
	PlainBody   string
	HTMLBody    string
	Attachments []Attachment
}
