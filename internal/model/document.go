package model

import (
	"fmt"

	"github.com/google/uuid"
)

// DocumentKind is one of the fixed evidence categories a candidate can hand
// in. The names are part of the API vocabulary and must not be renamed.
type DocumentKind string

// Document kinds. The first five are mandatory before acceptance.
const (
	DocumentKindPhoto             DocumentKind = "photo"
	DocumentKindIDCard            DocumentKind = "idCard"
	DocumentKindCertificate       DocumentKind = "certificate"
	DocumentKindCV                DocumentKind = "cv"
	DocumentKindApplicationLetter DocumentKind = "applicationLetter"
	DocumentKindPoliceRecord      DocumentKind = "policeRecord"
	DocumentKindHealthCertificate DocumentKind = "healthCertificate"
)

// MandatoryDocumentKinds are required before a candidate can be accepted.
var MandatoryDocumentKinds = []DocumentKind{
	DocumentKindPhoto,
	DocumentKindIDCard,
	DocumentKindCertificate,
	DocumentKindCV,
	DocumentKindApplicationLetter,
}

// ParseDocumentKind converts a raw string to a DocumentKind, returning an
// error for unknown values.
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(s)
	switch k {
	case DocumentKindPhoto, DocumentKindIDCard, DocumentKindCertificate,
		DocumentKindCV, DocumentKindApplicationLetter,
		DocumentKindPoliceRecord, DocumentKindHealthCertificate:
		return k, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// Mandatory reports whether the kind is required for acceptance.
func (k DocumentKind) Mandatory() bool {
	for _, m := range MandatoryDocumentKinds {
		if k == m {
			return true
		}
	}
	return false
}

// CandidateDocument maps one document kind to its stored reference for one
// candidate. Re-upload replaces the reference, never the kind set.
type CandidateDocument struct {
	ID          uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	CandidateID uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_candidate_doc_kind" json:"-"`
	Kind        DocumentKind `gorm:"type:text;not null;uniqueIndex:idx_candidate_doc_kind" json:"kind"`
	// Reference is an opaque handle to the stored evidence: a file record
	// reference or a cloud storage object name.
	Reference string `gorm:"type:text;not null" json:"reference"`
	FileID    *int   `json:"file_id"`
	File      File   `gorm:"foreignKey:FileID;references:ID" json:"-"`
}
