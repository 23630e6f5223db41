package inbound

import (
	"github.com/otpgate/otpgate/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Operator endpoints (need authenticated)
	r.GET("/api/v1/audit/logs", end.List)
	r.GET("/api/v1/audit/stats", end.Stats)
	r.DELETE("/api/v1/audit/logs", end.Purge)
	r.POST("/api/v1/audit/export", end.Export)
}
