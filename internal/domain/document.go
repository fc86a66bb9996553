package domain

// MetadataFilenameKey is the metadata key every document carries.
const MetadataFilenameKey = "filename"

// MetadataFileTypeKey holds the original file extension, when known.
const MetadataFileTypeKey = "file_type"

// Document is an ingested text body with its open metadata mapping.
// Immutable once stored; exactly one text body per document.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Filename returns the filename metadata entry, or the document ID as fallback.
func (d Document) Filename() string {
	if f, ok := d.Metadata[MetadataFilenameKey]; ok && f != "" {
		return f
	}
	return d.ID
}

// DocumentInfo is a listing entry for an ingested document.
type DocumentInfo struct {
	ID       string `json:"document_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
