package postgres

import (
	"database/sql"
	"time"
)

type userRow struct {
	ID             string
	Email          string
	Username       sql.NullString
	HashedPassword string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
