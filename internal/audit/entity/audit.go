// Package entity holds the audit trail domain types.
package entity

import "time"

// Entry is one recorded OTP lifecycle event.
type Entry struct {
	ID        int64
	EventType string
	Subject   string
	Contact   string
	Message   string
	Channel   string
	UserID    int64
	CreatedAt time.Time
}

// NewEntry is the data needed to append an entry to the trail.
type NewEntry struct {
	ID        int64
	EventType string
	Subject   string
	Contact   string
	Message   string
	Channel   string
	UserID    int64
	CreatedAt time.Time
}

// ListFilter narrows and pages a trail query. Zero values mean "no
// filter" for that dimension.
type ListFilter struct {
	Contact   string
	Channel   string
	EventType string
	Subject   string
	UserID    int64
	From      time.Time
	To        time.Time
	Limit     int32
	Offset    int32
	OrderAsc  bool
}

// Stats is an aggregate snapshot of the trail. ByEventType breaks down
// by severity, BySubject by result code.
type Stats struct {
	Total       int64
	Last24Hours int64
	ByEventType map[string]int64
	BySubject   map[string]int64
	ByChannel   map[string]int64
}
