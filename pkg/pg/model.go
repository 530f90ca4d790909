package pg

import (
	"time"
)

// Model is embedded by every entity.
type Model struct {
	ID        int64 `gorm:"primaryKey;autoIncrement;column:id"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
