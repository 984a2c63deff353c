package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CandidateStatus is the closed set of recruitment states.
type CandidateStatus string

// Candidate status values. A candidate is created as "new", moves to
// "validating" when a recruiter begins review, and ends in "accepted" or
// "rejected". The terminal states have no outgoing transitions; a rejected
// applicant must re-apply with a new Candidate record.
const (
	CandidateStatusNew        CandidateStatus = "new"
	CandidateStatusValidating CandidateStatus = "validating"
	CandidateStatusRejected   CandidateStatus = "rejected"
	CandidateStatusAccepted   CandidateStatus = "accepted"
)

// ParseCandidateStatus converts a raw string to a CandidateStatus, returning
// an error for unknown values.
func ParseCandidateStatus(s string) (CandidateStatus, error) {
	st := CandidateStatus(s)
	switch st {
	case CandidateStatusNew, CandidateStatusValidating, CandidateStatusRejected, CandidateStatusAccepted:
		return st, nil
	}
	return "", fmt.Errorf("unknown candidate status %q", s)
}

// IsTerminal reports whether no further transition is permitted.
func (s CandidateStatus) IsTerminal() bool {
	return s == CandidateStatusRejected || s == CandidateStatusAccepted
}

// Candidate is an applicant tracked through the recruitment status machine.
type Candidate struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	CreatedAt    time.Time       `json:"-"`
	UpdatedAt    time.Time       `json:"-"`
	FullName     string          `gorm:"not null" json:"full_name"`
	Position     string          `gorm:"type:text" json:"position"`
	Education    string          `gorm:"type:text" json:"education"`
	Experience   string          `gorm:"type:text" json:"experience"`
	AppliedAt    time.Time       `gorm:"type:timestamp" json:"applied_at"`
	Status       CandidateStatus `gorm:"type:text;default:'new'" json:"status"`
	RejectReason string          `gorm:"type:text" json:"reject_reason"`
	ContactInfo  `gorm:"embedded"`

	Documents []CandidateDocument `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"documents"`
}

// Document returns the stored document of the given kind, if any.
func (c Candidate) Document(kind DocumentKind) (CandidateDocument, bool) {
	for _, d := range c.Documents {
		if d.Kind == kind {
			return d, true
		}
	}
	return CandidateDocument{}, false
}

// MissingMandatoryDocuments lists the mandatory kinds that have no stored
// reference yet, in the fixed kind order.
func (c Candidate) MissingMandatoryDocuments() []DocumentKind {
	var missing []DocumentKind
	for _, kind := range MandatoryDocumentKinds {
		doc, ok := c.Document(kind)
		if !ok || doc.Reference == "" {
			missing = append(missing, kind)
		}
	}
	return missing
}
