package recruitment

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"PeopleFlow-backend/internal/model"
)

func newCandidate(status model.CandidateStatus) model.Candidate {
	return model.Candidate{
		ID:       uuid.New(),
		FullName: "Alice Nguyen",
		Position: "Backend Engineer",
		Status:   status,
	}
}

func withAllMandatoryDocs(c model.Candidate) model.Candidate {
	for _, kind := range model.MandatoryDocumentKinds {
		var err error
		c, err = AttachDocument(c, kind, "file:"+string(kind))
		if err != nil {
			panic(err)
		}
	}
	return c
}

func TestBeginValidation(t *testing.T) {
	c := newCandidate(model.CandidateStatusNew)

	got, err := BeginValidation(c)
	assert.NoError(t, err)
	assert.Equal(t, model.CandidateStatusValidating, got.Status)

	// document state must not matter
	c2 := withAllMandatoryDocs(newCandidate(model.CandidateStatusNew))
	got2, err := BeginValidation(c2)
	assert.NoError(t, err)
	assert.Equal(t, model.CandidateStatusValidating, got2.Status)
}

func TestBeginValidation_NotNew(t *testing.T) {
	for _, status := range []model.CandidateStatus{
		model.CandidateStatusValidating,
		model.CandidateStatusAccepted,
		model.CandidateStatusRejected,
	} {
		_, err := BeginValidation(newCandidate(status))
		var itErr *IllegalTransitionError
		assert.ErrorAs(t, err, &itErr)
		assert.Equal(t, status, itErr.From)
		assert.Equal(t, model.CandidateStatusValidating, itErr.To)
	}
}

func TestAccept_AllDocumentsPresent(t *testing.T) {
	c := withAllMandatoryDocs(newCandidate(model.CandidateStatusValidating))

	got, err := Accept(c)
	assert.NoError(t, err)
	assert.Equal(t, model.CandidateStatusAccepted, got.Status)
}

func TestAccept_MissingDocuments(t *testing.T) {
	c := newCandidate(model.CandidateStatusNew)
	var err error
	c, err = AttachDocument(c, model.DocumentKindPhoto, "file:photo")
	assert.NoError(t, err)
	c, err = AttachDocument(c, model.DocumentKindCV, "file:cv")
	assert.NoError(t, err)

	c, err = BeginValidation(c)
	assert.NoError(t, err)

	_, err = Accept(c)
	var pfErr *PreconditionFailedError
	assert.ErrorAs(t, err, &pfErr)
	assert.ElementsMatch(t, []model.DocumentKind{
		model.DocumentKindIDCard,
		model.DocumentKindCertificate,
		model.DocumentKindApplicationLetter,
	}, pfErr.Missing)
	assert.Contains(t, err.Error(), "idCard")
}

func TestAccept_OptionalDocumentsNotRequired(t *testing.T) {
	// no policeRecord or healthCertificate attached
	c := withAllMandatoryDocs(newCandidate(model.CandidateStatusValidating))

	got, err := Accept(c)
	assert.NoError(t, err)
	assert.Equal(t, model.CandidateStatusAccepted, got.Status)
}

func TestAccept_FromNew(t *testing.T) {
	c := withAllMandatoryDocs(newCandidate(model.CandidateStatusNew))

	_, err := Accept(c)
	var itErr *IllegalTransitionError
	assert.ErrorAs(t, err, &itErr)
}

func TestReject(t *testing.T) {
	got, err := Reject(newCandidate(model.CandidateStatusValidating), "position filled")
	assert.NoError(t, err)
	assert.Equal(t, model.CandidateStatusRejected, got.Status)
	assert.Equal(t, "position filled", got.RejectReason)
}

func TestReject_EmptyReason(t *testing.T) {
	got, err := Reject(newCandidate(model.CandidateStatusValidating), "")
	assert.NoError(t, err)
	assert.Equal(t, model.CandidateStatusRejected, got.Status)
	assert.Equal(t, "", got.RejectReason)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	for _, status := range []model.CandidateStatus{
		model.CandidateStatusAccepted,
		model.CandidateStatusRejected,
	} {
		c := withAllMandatoryDocs(newCandidate(model.CandidateStatusNew))
		c.Status = status

		_, err := BeginValidation(c)
		var itErr *IllegalTransitionError
		assert.ErrorAs(t, err, &itErr)

		_, err = Accept(c)
		assert.ErrorAs(t, err, &itErr)

		_, err = Reject(c, "late")
		assert.ErrorAs(t, err, &itErr)

		_, err = AttachDocument(c, model.DocumentKindPoliceRecord, "file:pr")
		var isErr *IllegalStateError
		assert.ErrorAs(t, err, &isErr)
		assert.Equal(t, status, isErr.Status)
	}
}

func TestAttachDocument_Replace(t *testing.T) {
	c := newCandidate(model.CandidateStatusNew)
	var err error
	c, err = AttachDocument(c, model.DocumentKindCV, "file:1")
	assert.NoError(t, err)
	c, err = AttachDocument(c, model.DocumentKindCV, "file:2")
	assert.NoError(t, err)

	assert.Len(t, c.Documents, 1)
	doc, ok := c.Document(model.DocumentKindCV)
	assert.True(t, ok)
	assert.Equal(t, "file:2", doc.Reference)
}

func TestAttachDocument_UnknownKind(t *testing.T) {
	_, err := AttachDocument(newCandidate(model.CandidateStatusNew), "passport", "file:1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document kind")
}

func TestAttachDocument_EmptyReference(t *testing.T) {
	_, err := AttachDocument(newCandidate(model.CandidateStatusNew), model.DocumentKindCV, "")
	assert.Error(t, err)
}

func TestAttachDocument_DoesNotMutateInput(t *testing.T) {
	orig := withAllMandatoryDocs(newCandidate(model.CandidateStatusNew))
	got, err := AttachDocument(orig, model.DocumentKindCV, "file:new")
	assert.NoError(t, err)

	origDoc, _ := orig.Document(model.DocumentKindCV)
	gotDoc, _ := got.Document(model.DocumentKindCV)
	assert.Equal(t, "file:cv", origDoc.Reference)
	assert.Equal(t, "file:new", gotDoc.Reference)
}

func TestErrorsAreDistinguishable(t *testing.T) {
	_, errTransition := Accept(newCandidate(model.CandidateStatusNew))
	_, errPrecondition := Accept(newCandidate(model.CandidateStatusValidating))

	var itErr *IllegalTransitionError
	var pfErr *PreconditionFailedError
	assert.True(t, errors.As(errTransition, &itErr))
	assert.False(t, errors.As(errTransition, &pfErr))
	assert.True(t, errors.As(errPrecondition, &pfErr))
	assert.False(t, errors.As(errPrecondition, &itErr))
}

func TestLockTable_SerializesPerCandidate(t *testing.T) {
	table := NewLockTable()
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := table.Lock(id)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestLockTable_IndependentCandidates(t *testing.T) {
	table := NewLockTable()
	a, b := uuid.New(), uuid.New()

	unlockA := table.Lock(a)
	// locking another candidate must not block
	done := make(chan struct{})
	go func() {
		unlockB := table.Lock(b)
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
