package inbound

import (
	"time"

	"github.com/otpgate/otpgate/internal/audit/entity"
)

type EntryResponse struct {
	ID        int64  `json:"id,string"`
	EventType string `json:"event_type"`
	Subject   string `json:"subject"`
	Contact   string `json:"contact"`
	Message   string `json:"message"`
	Channel   string `json:"channel,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toEntryResponse(e entity.Entry, _ int) EntryResponse {
	return EntryResponse{
		ID:        e.ID,
		EventType: e.EventType,
		Subject:   e.Subject,
		Contact:   e.Contact,
		Message:   e.Message,
		Channel:   e.Channel,
		UserID:    e.UserID,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type Pagination struct {
	Total    int64 `json:"total"`
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

type ListResponse struct {
	Entries    []EntryResponse `json:"entries"`
	Pagination Pagination      `json:"pagination"`
}

type StatsResponse struct {
	Total       int64            `json:"total"`
	Last24Hours int64            `json:"last_24_hours"`
	ByEventType map[string]int64 `json:"by_event_type"`
	BySubject   map[string]int64 `json:"by_subject"`
	ByChannel   map[string]int64 `json:"by_channel"`
}

type PurgeRequest struct {
	OlderThanDays int32   `json:"older_than_days"`
	IDs           []int64 `json:"ids"`
}

type PurgeResponse struct {
	Removed int64 `json:"removed"`
}

func (PurgeResponse) Message() string {
	return "Audit entries purged"
}

type ExportRequest struct {
	Contact   string `json:"contact"`
	Channel   string `json:"channel"`
	EventType string `json:"event_type"`
	Subject   string `json:"subject"`
	UserID    int64  `json:"user_id"`
	DateFrom  string `json:"date_from"`
	DateTo    string `json:"date_to"`
}

type ExportResponse struct {
	ObjectKey   string `json:"object_key"`
	DownloadURL string `json:"download_url"`
	Rows        int64  `json:"rows"`
}

func (ExportResponse) Message() string {
	return "Audit export is ready"
}
