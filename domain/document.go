package domain

import "time"

// Updates is a partial assignment of a document's mutable fields.
// Keys are field identifiers of the form template (e.g. "company_name").
type Updates map[string]any

// Document is the unit of collaboration. Version is the sole
// concurrency-control token: it grows by exactly one per accepted
// mutation and a proposal carrying any other value is rejected.
type Document struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"ownerId"`
	Title          string    `json:"title"`
	Fields         Updates   `json:"fields"`
	Version        int64     `json:"version"`
	LastModified   time.Time `json:"lastModified"`
	LastModifiedBy string    `json:"lastModifiedBy"`
}

// Apply merges a partial update into the document's fields.
// The caller owns versioning; Apply never touches Version.
func (d *Document) Apply(updates Updates) {
	if d.Fields == nil {
		d.Fields = make(Updates, len(updates))
	}
	for k, v := range updates {
		d.Fields[k] = v
	}
}
