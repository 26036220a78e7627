package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/seoblog/backend/internal/domain/shared"
)

// BaseModel holds the columns every table shares.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel adds the optimistic locking version of aggregate roots.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func aggregateFromDomain(a shared.BaseAggregateRoot) AggregateModel {
	return AggregateModel{
		BaseModel: BaseModel{ID: a.ID, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt},
		Version:   a.Version,
	}
}

func (m AggregateModel) toDomain() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
}

// JSON payloads live in text columns so the same schema works on postgres
// and sqlite.
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(column, raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}

func millis(d time.Duration) int64 { return d.Milliseconds() }

func fromMillis(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }
