package entities

import "github.com/google/uuid"

// newID returns a fresh collision-resistant record ID.
func newID() string {
	return uuid.New().String()
}

// NewRecordID returns a fresh collision-resistant record ID for writers.
func NewRecordID() string {
	return newID()
}
