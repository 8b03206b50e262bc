package database

import "time"

// Placeholder display values used when a venue is seeded without the
// corresponding field, matching what the chat cards render for missing data.
const (
	PlaceholderTitle         = "無標題"
	PlaceholderPhone         = "無電話"
	PlaceholderAddress       = "無地址"
	PlaceholderBusinessHours = "無營業時間"
	PlaceholderMapLink       = "https://maps.google.com"
)

// Venue represents a recommendable venue within a (category, region) partition.
// Title is the identity key within its partition; Star holds the running average
// of the Count ratings folded into it.
type Venue struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Category string `db:"category"`
	Region   string `db:"region"`
	Title    string `db:"title"`

	Phone         string `db:"phone"`
	Address       string `db:"address"`
	BusinessHours string `db:"business_hours"`
	MapLink       string `db:"map_link"`
	ImageLink     string `db:"image_link"`

	Star  float64 `db:"star"`
	Count int     `db:"count"`
}
