package models

import "time"

// Group is a named set of databases that are snapshotted together.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Databases []string  `json:"databases"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DatabaseInfo describes one database visible on the connected server.
// Category groups databases for display ("User", "Data Warehouse", "Global").
type DatabaseInfo struct {
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	CreateDate time.Time `json:"createDate"`
}
