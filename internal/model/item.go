package model

import "time"

// Item is a physical object listed by its owner for lending.
type Item struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	OwnerName string `json:"owner_name,omitempty"`
}

// Image is one picture in an item's gallery. Content is loaded separately.
type Image struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	MIME      string    `json:"mime"`
	IsCover   bool      `json:"is_cover"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAvailable reports whether none of the given loans is active.
func IsAvailable(loans []Loan) bool {
	for _, l := range loans {
		if l.State.Active() {
			return false
		}
	}
	return true
}

// MainImage returns the cover image, else the oldest image, else nil.
// Images with lower IDs are considered older.
func MainImage(images []Image) *Image {
	var first *Image
	for i := range images {
		img := &images[i]
		if img.IsCover {
			return img
		}
		if first == nil || img.ID < first.ID {
			first = img
		}
	}
	return first
}

// CoverCount returns how many images are flagged as cover.
func CoverCount(images []Image) int {
	n := 0
	for _, img := range images {
		if img.IsCover {
			n++
		}
	}
	return n
}
