package invoice

import (
	"context"
	"errors"
	"time"
)

// Draft is an invoice being built or edited, kept between requests.
type Draft struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	Invoice   Invoice   `json:"invoice"`
	Original  *Invoice  `json:"original,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Editor returns the rule editor for the draft.
func (d Draft) Editor() Editor {
	return NewEditor(d.Mode, d.Original)
}

// DraftStore persists drafts per owner.
type DraftStore interface {
	Load(ctx context.Context, owner, id string) (Draft, error)
	Save(ctx context.Context, owner string, d Draft) error
	Delete(ctx context.Context, owner, id string) error
}

// ErrDraftNotFound indicates a missing or expired draft.
var ErrDraftNotFound = errors.New("invoice: draft not found")
