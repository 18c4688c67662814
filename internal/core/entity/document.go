package entity

import (
	"stockledger/internal/core/apperror"
)

// Status is the lifecycle state of a movement document.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusWaiting  Status = "waiting"
	StatusReady    Status = "ready"
	StatusDone     Status = "done"
	StatusCanceled Status = "canceled"
)

// statusRank orders the forward path draft -> waiting -> ready -> done.
var statusRank = map[Status]int{
	StatusDraft:   0,
	StatusWaiting: 1,
	StatusReady:   2,
	StatusDone:    3,
}

// ParseStatus validates a raw status value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusDraft, StatusWaiting, StatusReady, StatusDone, StatusCanceled:
		return st, nil
	}
	return "", apperror.NewValidation("unknown status").
		WithDetail("field", "status").
		WithDetail("value", s)
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// IsPending reports whether the document still waits for validation.
func (s Status) IsPending() bool {
	return s == StatusDraft || s == StatusWaiting || s == StatusReady
}

// Document holds the lifecycle fields common to all movement documents.
type Document struct {
	BaseEntity

	// Number is PREFIX-YYYYMMDD-NNNN, unique per kind and day
	Number string `db:"number" json:"number"`

	Status Status `db:"status" json:"status"`

	// UserID is the acting user that created the document
	UserID *string `db:"user_id" json:"user_id,omitempty"`
}

// NewDocument creates a draft document.
func NewDocument(userID string) Document {
	d := Document{
		BaseEntity: NewBaseEntity(),
		Status:     StatusDraft,
	}
	if userID != "" {
		d.UserID = &userID
	}
	return d
}

// IsEditable reports whether fields other than status may change.
func (d *Document) IsEditable() bool {
	return !d.Status.IsTerminal()
}

// CheckTransition validates a status change of the document named entity.
//
// done -> done is AlreadyApplied so that a racing duplicate validation gets
// a distinct error. Every other move out of a terminal state, a move to the
// same status, or a move backwards is InvalidState.
func (d *Document) CheckTransition(entity string, target Status) error {
	from := d.Status
	if from == StatusDone && target == StatusDone {
		return apperror.NewAlreadyApplied(entity, d.ID.String())
	}
	if from.IsTerminal() || from == target {
		return apperror.NewInvalidState(entity, d.ID.String(), string(from), "transition to "+string(target))
	}
	if target == StatusCanceled || target == StatusDone {
		return nil
	}
	if statusRank[target] < statusRank[from] {
		return apperror.NewInvalidState(entity, d.ID.String(), string(from), "transition to "+string(target))
	}
	return nil
}
