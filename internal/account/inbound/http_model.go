package inbound

type VerifyAuthRequest struct {
	Contact string `json:"contact"`
	Code    string `json:"code"`
}

type VerifyAuthResponse struct {
	AccountID    int64  `json:"account_id,string"`
	Username     string `json:"username"`
	Created      bool   `json:"created,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (VerifyAuthResponse) Message() string {
	return "Signed in successfully"
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
