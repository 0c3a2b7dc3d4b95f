package domain

import "time"

// FieldLock is an advisory, single-holder claim on one editable field.
// It coordinates concurrent editing at the UI level only: holding a lock
// is not required to propose a mutation for that field.
type FieldLock struct {
	DocumentID string      `json:"documentId"`
	FieldID    string      `json:"fieldId"`
	Holder     Participant `json:"holder"`
	AcquiredAt time.Time   `json:"acquiredAt"`
}
