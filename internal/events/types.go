// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	PriceUpdated         EventType = "PRICE_UPDATED"
	PriceRefreshFailed   EventType = "PRICE_REFRESH_FAILED"
	BulkRefreshCompleted EventType = "BULK_REFRESH_COMPLETED"
	TransactionRecorded  EventType = "TRANSACTION_RECORDED"
	TransactionUpdated   EventType = "TRANSACTION_UPDATED"
	TransactionDeleted   EventType = "TRANSACTION_DELETED"
	BackupCompleted      EventType = "BACKUP_COMPLETED"
	ErrorOccurred        EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
