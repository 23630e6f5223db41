package smsgate

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/atomic"
)

// Providers in this family stall on dead connections; every call gets a
// hard 15 second ceiling regardless of the caller's context.
const requestTimeout = 15 * time.Second

// NineteenConfig configures the 019-style gateway client.
type NineteenConfig struct {
	// BaseURL is the API endpoint, e.g. https://019sms.co.il/api.
	BaseURL string
	// Username identifies the provider account.
	Username string
	// Password is used only to mint API tokens.
	Password string
	// Sender is the source name shown to recipients.
	Sender string
	// Token is an optional pre-issued API token. When empty, the client
	// mints one lazily on first use.
	Token string
}

// NineteenSMS is a Gateway implementation for the 019 SMS XML API.
type NineteenSMS struct {
	cfg    NineteenConfig
	client *http.Client
	token  *atomic.String
}

// NewNineteenSMS creates a 019 gateway client.
func NewNineteenSMS(cfg NineteenConfig) *NineteenSMS {
	return &NineteenSMS{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
		token:  atomic.NewString(cfg.Token),
	}
}

type userNode struct {
	Username string `xml:"username"`
	Password string `xml:"password,omitempty"`
}

type phoneNode struct {
	ID     string `xml:"id,attr"`
	Number string `xml:",chardata"`
}

type smsPayload struct {
	XMLName      xml.Name `xml:"sms"`
	User         userNode `xml:"user"`
	Source       string   `xml:"source"`
	Destinations struct {
		Phones []phoneNode `xml:"phone"`
	} `xml:"destinations"`
	Message string `xml:"message"`
}

type balancePayload struct {
	XMLName xml.Name `xml:"balance"`
	User    userNode `xml:"user"`
}

type tokenPayload struct {
	XMLName  xml.Name `xml:"getApiToken"`
	User     userNode `xml:"user"`
	Username string   `xml:"username"`
	Action   string   `xml:"action"`
}

// apiResponse covers every call; unknown fields are simply left zero.
// The untagged XMLName accepts any response root element.
type apiResponse struct {
	XMLName  xml.Name
	Result   string `xml:"result"`
	Message  string `xml:"message"`
	Balance  string `xml:"balance"`
	APIToken string `xml:"apiToken"`
}

// Send implements Gateway.
func (n *NineteenSMS) Send(ctx context.Context, msg Message) error {
	payload := smsPayload{
		User:    userNode{Username: n.cfg.Username},
		Source:  n.cfg.Sender,
		Message: msg.Body,
	}
	payload.Destinations.Phones = []phoneNode{{ID: "1", Number: msg.To}}

	resp, err := n.callAuthorized(ctx, payload)
	if err != nil {
		return err
	}

	if resp.Result != "OK" {
		return fmt.Errorf("%w: %s", ErrGatewayRejected, resp.Message)
	}

	return nil
}

// Balance implements Gateway.
func (n *NineteenSMS) Balance(ctx context.Context) (int, error) {
	payload := balancePayload{User: userNode{Username: n.cfg.Username}}

	resp, err := n.callAuthorized(ctx, payload)
	if err != nil {
		return 0, err
	}

	if resp.Result != "OK" {
		return 0, fmt.Errorf("%w: %s", ErrGatewayRejected, resp.Message)
	}

	bal, err := strconv.Atoi(resp.Balance)
	if err != nil {
		return 0, fmt.Errorf("smsgate: malformed balance %q: %w", resp.Balance, err)
	}

	return bal, nil
}

// callAuthorized performs an authorized call. When the provider rejects
// the cached token it is dropped, a fresh one is minted, and the call is
// resent exactly once.
func (n *NineteenSMS) callAuthorized(ctx context.Context, payload any) (*apiResponse, error) {
	resp, status, err := n.call(ctx, payload, true)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		n.token.Store("")
		if resp, _, err = n.call(ctx, payload, true); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// ensureToken returns the cached API token, minting a new one when the
// cache is empty. Token minting retries with fibonacci backoff since it
// only happens at startup or after a provider-side revocation.
func (n *NineteenSMS) ensureToken(ctx context.Context) (string, error) {
	if tok := n.token.Load(); tok != "" {
		return tok, nil
	}

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))

	var tok string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		payload := tokenPayload{
			User:     userNode{Username: n.cfg.Username, Password: n.cfg.Password},
			Username: n.cfg.Username,
			Action:   "new",
		}

		resp, _, err := n.call(ctx, payload, false)
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.Result != "OK" || resp.APIToken == "" {
			return fmt.Errorf("%w: %s", ErrGatewayRejected, resp.Message)
		}

		tok = resp.APIToken
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("smsgate: mint token: %w", err)
	}

	n.token.Store(tok)
	return tok, nil
}

func (n *NineteenSMS) call(ctx context.Context, payload any, authorized bool) (*apiResponse, int, error) {
	body, err := xml.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("smsgate: encode request: %w", err)
	}
	body = append([]byte(xml.Header), body...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("smsgate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")

	if authorized {
		tok, err := n.ensureToken(ctx)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Authorization", tok)
	}

	httpResp, err := n.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("smsgate: http: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("smsgate: read response: %w", err)
	}

	// Auth rejections often carry no XML body; report the status and let
	// the caller decide whether to refresh the token.
	if httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden {
		return &apiResponse{}, httpResp.StatusCode, nil
	}

	var resp apiResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("smsgate: decode response: %w", err)
	}

	return &resp, httpResp.StatusCode, nil
}
