package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPackID is the well-known pack every card lands in when saved
// without explicit pack memberships. Recreated on demand if deleted.
const (
	DefaultPackID   = "all"
	DefaultPackName = "All Cards"
)

// Pack is a named grouping of cards. Purely organizational: packs carry
// no scheduling state of their own.
type Pack struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPack(name string, now time.Time) *Pack {
	return &Pack{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
	}
}
