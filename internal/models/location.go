package models

import "time"

// Location is a physical teaching site. Capacity is nil when the site has no
// fixed room limit.
type Location struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	Capacity  *int      `db:"capacity" json:"capacity,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LocationFilter defines filter criteria for listing locations.
type LocationFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortOrder string
}
