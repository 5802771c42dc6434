package domain

import "time"

// Device is a saved MAC+label template owned by a principal. It only
// originates tasks, it has no lifecycle of its own.
type Device struct {
	ID         string    `json:"id"`
	MACAddress string    `json:"mac_address"`
	Label      string    `json:"label"`
	OwnerID    string    `json:"owner_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
