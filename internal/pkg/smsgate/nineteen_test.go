package smsgate

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNineteenSMS_Send_OK(t *testing.T) {
	// Arrange
	var gotAuth string
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		io.WriteString(w, `<response><result>OK</result></response>`)
	}))
	defer srv.Close()

	gw := NewNineteenSMS(NineteenConfig{
		BaseURL:  srv.URL,
		Username: "acme",
		Sender:   "Acme",
		Token:    "tok-123",
	})

	// Act
	err := gw.Send(context.Background(), Message{To: "+15550001111", Body: "Your code is 123456"})

	// Assert
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotAuth != "tok-123" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "tok-123")
	}
	var payload smsPayload
	if err := xml.Unmarshal([]byte(gotBody), &payload); err != nil {
		t.Fatalf("request body is not valid XML: %v", err)
	}
	if payload.User.Username != "acme" || payload.Source != "Acme" {
		t.Fatalf("payload user/source = %q/%q", payload.User.Username, payload.Source)
	}
	if len(payload.Destinations.Phones) != 1 || payload.Destinations.Phones[0].Number != "+15550001111" {
		t.Fatalf("payload destinations = %+v", payload.Destinations.Phones)
	}
}

func TestNineteenSMS_Send_Rejected(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<response><result>ERROR</result><message>blocked number</message></response>`)
	}))
	defer srv.Close()

	gw := NewNineteenSMS(NineteenConfig{BaseURL: srv.URL, Username: "acme", Token: "tok"})

	// Act
	err := gw.Send(context.Background(), Message{To: "+15550001111", Body: "hi"})

	// Assert
	if !errors.Is(err, ErrGatewayRejected) {
		t.Fatalf("Send() error = %v, want ErrGatewayRejected", err)
	}
	if !strings.Contains(err.Error(), "blocked number") {
		t.Fatalf("Send() error %q does not carry provider message", err)
	}
}

func TestNineteenSMS_Send_MintsTokenWhenEmpty(t *testing.T) {
	// Arrange
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body := string(raw)
		switch {
		case strings.Contains(body, "<getApiToken>"):
			calls = append(calls, "token")
			io.WriteString(w, `<response><result>OK</result><apiToken>minted</apiToken></response>`)
		default:
			calls = append(calls, "sms:"+r.Header.Get("Authorization"))
			io.WriteString(w, `<response><result>OK</result></response>`)
		}
	}))
	defer srv.Close()

	gw := NewNineteenSMS(NineteenConfig{BaseURL: srv.URL, Username: "acme", Password: "s3cret"})

	// Act
	if err := gw.Send(context.Background(), Message{To: "+15550001111", Body: "a"}); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}
	if err := gw.Send(context.Background(), Message{To: "+15550001111", Body: "b"}); err != nil {
		t.Fatalf("second Send() error = %v", err)
	}

	// Assert: token minted once, then reused from cache.
	want := []string{"token", "sms:minted", "sms:minted"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestNineteenSMS_Send_RefreshesRevokedToken(t *testing.T) {
	// Arrange: the provider revoked the cached token; the first send gets
	// a 401, then a fresh token is minted and the send is retried once.
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body := string(raw)
		switch {
		case strings.Contains(body, "<getApiToken>"):
			calls = append(calls, "token")
			io.WriteString(w, `<response><result>OK</result><apiToken>fresh</apiToken></response>`)
		case r.Header.Get("Authorization") == "stale":
			calls = append(calls, "sms:stale")
			w.WriteHeader(http.StatusUnauthorized)
		default:
			calls = append(calls, "sms:"+r.Header.Get("Authorization"))
			io.WriteString(w, `<response><result>OK</result></response>`)
		}
	}))
	defer srv.Close()

	gw := NewNineteenSMS(NineteenConfig{BaseURL: srv.URL, Username: "acme", Password: "s3cret", Token: "stale"})

	// Act
	err := gw.Send(context.Background(), Message{To: "+15550001111", Body: "hi"})

	// Assert
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	want := []string{"sms:stale", "token", "sms:fresh"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestNineteenSMS_Balance(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<response><result>OK</result><balance>42</balance></response>`)
	}))
	defer srv.Close()

	gw := NewNineteenSMS(NineteenConfig{BaseURL: srv.URL, Username: "acme", Token: "tok"})

	// Act
	bal, err := gw.Balance(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if bal != 42 {
		t.Fatalf("Balance() = %d, want 42", bal)
	}
}
