package inbound

type SendRequest struct {
	Contact string `json:"contact"`
	Channel string `json:"channel"`
}

type SendResponse struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}

func (r SendResponse) Message() string {
	return "OTP has been sent"
}

func (r SendResponse) Reason() string {
	return r.Code
}

type VerifyRequest struct {
	Contact string `json:"contact"`
	Code    string `json:"code"`
}

type VerifyResponse struct {
	Code string `json:"code"`
}

func (r VerifyResponse) Message() string {
	return "OTP verified successfully"
}

func (r VerifyResponse) Reason() string {
	return r.Code
}
