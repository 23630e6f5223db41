package inbound

import (
	"context"

	"github.com/otpgate/otpgate/internal/account/usecase"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

type uc interface {
	VerifyAuth(ctx context.Context, in usecase.VerifyAuthInput) (*usecase.VerifyAuthOutput, error)
	Refresh(ctx context.Context, in usecase.RefreshInput) (*usecase.RefreshOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/auth/verify", end.VerifyAuth)
	r.POST("/api/v1/auth/refresh", end.Refresh)
}
