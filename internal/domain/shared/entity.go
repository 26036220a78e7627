package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and timestamps every persisted record carries.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch sets UpdatedAt to now.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}
