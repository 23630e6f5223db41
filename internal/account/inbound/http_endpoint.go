package inbound

import (
	"github.com/otpgate/otpgate/internal/account/usecase"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for passcode-based sign-in.
type HTTPEndpoint struct {
	uc uc
}

// VerifyAuth confirms a passcode and signs the caller in.
// @Summary Verify OTP and sign in
// @Description Validates the passcode for the contact, creates an account on first use, and returns access/refresh tokens.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyAuthRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=VerifyAuthResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "No OTP for this contact"
// @Failure 422 {object} router.errorResponse "Incorrect or expired code"
// @Failure 429 {object} router.errorResponse "Attempts exhausted"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/verify [post]
func (h *HTTPEndpoint) VerifyAuth(r *router.Request) (any, error) {
	var req VerifyAuthRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyAuth(r.Context(), usecase.VerifyAuthInput{
		Contact: req.Contact,
		Code:    req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyAuthResponse{
		AccountID:    resp.AccountID,
		Username:     resp.Username,
		Created:      resp.Created,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair.
// @Summary Refresh access token
// @Description Exchanges a refresh token for a new access/refresh token pair.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh payload"
// @Success 200 {object} router.successResponse{data=RefreshResponse} "Token refresh result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid refresh token"
// @Failure 403 {object} router.errorResponse "Token reuse detected"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/refresh [post]
func (h *HTTPEndpoint) Refresh(r *router.Request) (any, error) {
	var req RefreshRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Refresh(r.Context(), usecase.RefreshInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return nil, err
	}

	return RefreshResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}
