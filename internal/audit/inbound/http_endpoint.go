package inbound

import (
	"strconv"
	"time"

	"github.com/otpgate/otpgate/internal/audit/usecase"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/router"
	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

// HTTPEndpoint exposes operator HTTP handlers for the audit trail.
type HTTPEndpoint struct {
	uc uc
}

// List returns a filtered, paged view of the audit trail.
// @Summary List audit entries
// @Description Returns OTP lifecycle events, newest first. All filters are optional.
// @Tags Audit
// @Produce json
// @Param contact query string false "Substring match on contact"
// @Param channel query string false "Delivery channel"
// @Param event_type query string false "Severity (info, warning, error)"
// @Param subject query string false "Result code, e.g. email_sent"
// @Param user_id query int false "User ID"
// @Param date_from query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param date_to query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param page query int false "Page number, 1-based"
// @Param page_size query int false "Page size, capped at 200"
// @Success 200 {object} router.successResponse{data=ListResponse} "Audit page"
// @Failure 400 {object} router.errorResponse "Invalid query parameter"
// @Failure 401 {object} router.errorResponse "Unauthenticated"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/audit/logs [get]
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	in := usecase.ListInput{
		Contact:   r.GetQuery("contact"),
		Channel:   r.GetQuery("channel"),
		EventType: r.GetQuery("event_type"),
		Subject:   r.GetQuery("subject"),
		OrderAsc:  r.GetQuery("order") == "asc",
	}

	var err error
	if in.UserID, err = queryInt64(r, "user_id"); err != nil {
		return nil, err
	}
	if in.Page, err = queryInt32(r, "page"); err != nil {
		return nil, err
	}
	if in.PageSize, err = queryInt32(r, "page_size"); err != nil {
		return nil, err
	}
	if in.From, err = queryDate(r, "date_from"); err != nil {
		return nil, err
	}
	if in.To, err = queryDate(r, "date_to"); err != nil {
		return nil, err
	}
	if !in.To.IsZero() {
		in.To = in.To.Add(24*time.Hour - time.Nanosecond)
	}

	resp, err := h.uc.List(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return ListResponse{
		Entries: lo.Map(resp.Entries, toEntryResponse),
		Pagination: Pagination{
			Total:    resp.Total,
			Page:     resp.Page,
			PageSize: resp.PageSize,
		},
	}, nil
}

// Stats returns aggregate counters for the audit trail.
// @Summary Audit statistics
// @Description Returns totals and per-event-type / per-channel breakdowns.
// @Tags Audit
// @Produce json
// @Success 200 {object} router.successResponse{data=StatsResponse} "Aggregates"
// @Failure 401 {object} router.errorResponse "Unauthenticated"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/audit/stats [get]
func (h *HTTPEndpoint) Stats(r *router.Request) (any, error) {
	resp, err := h.uc.Stats(r.Context())
	if err != nil {
		return nil, err
	}

	return StatsResponse{
		Total:       resp.Stats.Total,
		Last24Hours: resp.Stats.Last24Hours,
		ByEventType: resp.Stats.ByEventType,
		BySubject:   resp.Stats.BySubject,
		ByChannel:   resp.Stats.ByChannel,
	}, nil
}

// Purge removes audit entries by ID or by age.
// @Summary Purge audit entries
// @Description Deletes the listed IDs, or entries older than the retention cutoff when no IDs are given.
// @Tags Audit
// @Accept json
// @Produce json
// @Param request body PurgeRequest true "Purge payload"
// @Success 200 {object} router.successResponse{data=PurgeResponse} "Removal count"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthenticated"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/audit/logs [delete]
func (h *HTTPEndpoint) Purge(r *router.Request) (any, error) {
	var req PurgeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Purge(r.Context(), usecase.PurgeInput{
		OlderThanDays: req.OlderThanDays,
		IDs:           req.IDs,
	})
	if err != nil {
		return nil, err
	}

	return PurgeResponse{Removed: resp.Removed}, nil
}

// Export writes the matching entries to object storage as CSV.
// @Summary Export audit entries
// @Description Exports the matching slice of the trail as a CSV object and returns a presigned download link.
// @Tags Audit
// @Accept json
// @Produce json
// @Param request body ExportRequest true "Export payload"
// @Success 200 {object} router.successResponse{data=ExportResponse} "Download link"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthenticated"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/audit/export [post]
func (h *HTTPEndpoint) Export(r *router.Request) (any, error) {
	var req ExportRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	in := usecase.ExportInput{
		Contact:   req.Contact,
		Channel:   req.Channel,
		EventType: req.EventType,
		Subject:   req.Subject,
		UserID:    req.UserID,
	}

	var err error
	if in.From, err = parseDate(req.DateFrom); err != nil {
		return nil, err
	}
	if in.To, err = parseDate(req.DateTo); err != nil {
		return nil, err
	}

	resp, err := h.uc.Export(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return ExportResponse{
		ObjectKey:   resp.ObjectKey,
		DownloadURL: resp.DownloadURL,
		Rows:        resp.Rows,
	}, nil
}

func queryInt64(r *router.Request, key string) (int64, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("invalid " + key)
	}
	return v, nil
}

func queryInt32(r *router.Request, key string) (int32, error) {
	if r.GetQuery(key) == "" {
		return 0, nil
	}
	v, err := r.GetQueryInt32(key)
	if err != nil {
		return 0, goerror.NewInvalidFormat("invalid " + key)
	}
	return v, nil
}

func queryDate(r *router.Request, key string) (time.Time, error) {
	if r.GetQuery(key) == "" {
		return time.Time{}, nil
	}
	v, err := r.GetQueryDate(key, dateLayout)
	if err != nil {
		return time.Time{}, goerror.NewInvalidFormat("invalid " + key)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	v, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, goerror.NewInvalidFormat("invalid date, expected " + dateLayout)
	}
	return v, nil
}
