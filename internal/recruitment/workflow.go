// Package recruitment implements the candidate status machine.
//
// Valid status graph:
//
//	new ──► validating ──► accepted
//	              │
//	              └──────► rejected
//
// accepted and rejected are terminal states.
//
// All operations are pure: they take a candidate value, return the updated
// value and never touch storage. Persisting the result is the caller's job.
package recruitment

import (
	"fmt"
	"strings"

	"PeopleFlow-backend/internal/model"
)

// IllegalTransitionError reports a status change that is not permitted from
// the candidate's current state.
type IllegalTransitionError struct {
	From model.CandidateStatus
	To   model.CandidateStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %q to %q", e.From, e.To)
}

// PreconditionFailedError reports an acceptance attempt while mandatory
// documents are still missing.
type PreconditionFailedError struct {
	Missing []model.DocumentKind
}

func (e *PreconditionFailedError) Error() string {
	kinds := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		kinds[i] = string(k)
	}
	return fmt.Sprintf("missing mandatory documents: %s", strings.Join(kinds, ", "))
}

// IllegalStateError reports an operation on a candidate whose status forbids
// it, e.g. attaching a document after the decision was made.
type IllegalStateError struct {
	Status model.CandidateStatus
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("candidate is already %s", e.Status)
}

// BeginValidation moves a new candidate into review. The transition is
// unconditional; document state does not matter here.
func BeginValidation(c model.Candidate) (model.Candidate, error) {
	if c.Status != model.CandidateStatusNew {
		return c, &IllegalTransitionError{From: c.Status, To: model.CandidateStatusValidating}
	}
	c.Status = model.CandidateStatusValidating
	return c, nil
}

// Accept marks a candidate under validation as accepted. Every mandatory
// document kind must carry a non-empty reference; otherwise the call fails
// with a PreconditionFailedError naming exactly the missing kinds.
func Accept(c model.Candidate) (model.Candidate, error) {
	if c.Status != model.CandidateStatusValidating {
		return c, &IllegalTransitionError{From: c.Status, To: model.CandidateStatusAccepted}
	}
	if missing := c.MissingMandatoryDocuments(); len(missing) > 0 {
		return c, &PreconditionFailedError{Missing: missing}
	}
	c.Status = model.CandidateStatusAccepted
	return c, nil
}

// Reject marks a candidate under validation as rejected. The reason is stored
// verbatim and may be empty.
func Reject(c model.Candidate, reason string) (model.Candidate, error) {
	if c.Status != model.CandidateStatusValidating {
		return c, &IllegalTransitionError{From: c.Status, To: model.CandidateStatusRejected}
	}
	c.Status = model.CandidateStatusRejected
	c.RejectReason = reason
	return c, nil
}

// AttachDocument inserts or replaces one document reference. Permitted in any
// non-terminal state; once a candidate is accepted or rejected the registry
// is frozen.
func AttachDocument(c model.Candidate, kind model.DocumentKind, reference string) (model.Candidate, error) {
	if _, err := model.ParseDocumentKind(string(kind)); err != nil {
		return c, err
	}
	if c.Status.IsTerminal() {
		return c, &IllegalStateError{Status: c.Status}
	}
	if reference == "" {
		return c, fmt.Errorf("document reference must not be empty")
	}

	docs := make([]model.CandidateDocument, len(c.Documents))
	copy(docs, c.Documents)
	replaced := false
	for i := range docs {
		if docs[i].Kind == kind {
			docs[i].Reference = reference
			replaced = true
			break
		}
	}
	if !replaced {
		docs = append(docs, model.CandidateDocument{
			CandidateID: c.ID,
			Kind:        kind,
			Reference:   reference,
		})
	}
	c.Documents = docs
	return c, nil
}
