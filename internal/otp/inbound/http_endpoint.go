package inbound

import (
	"github.com/otpgate/otpgate/internal/otp/usecase"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the OTP send and verify workflows.
type HTTPEndpoint struct {
	uc uc
}

// Send issues a one-time passcode and delivers it to the contact.
// @Summary Send OTP
// @Description Generates a one-time passcode for the contact and delivers it over the requested channel. Re-sending replaces any previous code.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body SendRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendResponse} "Delivery result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error or disabled channel"
// @Failure 429 {object} router.errorResponse "Resend limit reached"
// @Failure 500 {object} router.errorResponse "Delivery or persistence failure"
// @Router /api/v1/otp/send [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Send(r.Context(), usecase.SendInput{
		Contact: req.Contact,
		Channel: req.Channel,
	})
	if err != nil {
		return nil, err
	}

	return SendResponse{
		Code:      resp.Code,
		ExpiresAt: resp.ExpiresAt.Unix(),
	}, nil
}

// Verify checks a submitted passcode against the stored one.
// @Summary Verify OTP
// @Description Validates the submitted passcode for the contact. Each wrong guess burns one attempt.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "No OTP for this contact"
// @Failure 409 {object} router.errorResponse "OTP already used"
// @Failure 422 {object} router.errorResponse "Incorrect or expired code"
// @Failure 429 {object} router.errorResponse "Attempts exhausted"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Contact: req.Contact,
		Code:    req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{Code: resp.Code}, nil
}
