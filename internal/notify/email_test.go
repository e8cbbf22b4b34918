package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testLead() Lead {
	return Lead{
		Reference:          "ref-123",
		Name:               "John Doe",
		Email:              "john@example.com",
		Phone:              "7871234567",
		BusinessType:       "restaurant",
		HasWebsite:         "no",
		Goals:              "I want to create a website for my restaurant <now>",
		SubmittedAt:        time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		SubmittedAtDisplay: "01/01/2025, 08:00:00",
		Identity:           "203.0.113.7",
	}
}

func TestEmailNotifierSendsLead(t *testing.T) {
	var got emailRequest
	var gotAuth, gotIdempotency string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotIdempotency = r.Header.Get("Idempotency-Key")
		if errDecode := json.NewDecoder(r.Body).Decode(&got); errDecode != nil {
			t.Errorf("decode request: %v", errDecode)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	notifier, err := NewEmailNotifier(EmailConfig{
		APIURL:   server.URL,
		APIKey:   "key",
		From:     "Site <noreply@example.com>",
		To:       []string{"owner@example.com"},
		SiteName: "Folio",
	}, server.Client())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if errSend := notifier.Send(context.Background(), testLead()); errSend != nil {
		t.Fatalf("send: %v", errSend)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotIdempotency != "ref-123" {
		t.Fatalf("expected idempotency key, got %q", gotIdempotency)
	}
	if got.ReplyTo != "john@example.com" {
		t.Fatalf("expected reply_to to be the lead email, got %q", got.ReplyTo)
	}
	if !strings.Contains(got.Subject, "John Doe") {
		t.Fatalf("expected subject to name the lead, got %q", got.Subject)
	}
	if !strings.Contains(got.HTML, "&lt;now&gt;") {
		t.Fatalf("expected html body to escape user input, got %q", got.HTML)
	}
	if !strings.Contains(got.Text, "203.0.113.7") {
		t.Fatalf("expected text body to include caller identity")
	}
}

func TestEmailNotifierReportsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer server.Close()

	notifier, err := NewEmailNotifier(EmailConfig{
		APIURL: server.URL,
		APIKey: "key",
		From:   "noreply@example.com",
		To:     []string{"owner@example.com"},
	}, server.Client())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	errSend := notifier.Send(context.Background(), testLead())
	if errSend == nil {
		t.Fatalf("expected error for 422")
	}
	if !strings.Contains(errSend.Error(), "422") || !strings.Contains(errSend.Error(), "invalid from") {
		t.Fatalf("expected status and detail in error, got %v", errSend)
	}
}

func TestEmailNotifierHonorsCanceledContext(t *testing.T) {
	notifier, err := NewEmailNotifier(EmailConfig{
		APIURL:        "http://127.0.0.1:1",
		APIKey:        "key",
		From:          "noreply@example.com",
		To:            []string{"owner@example.com"},
		RatePerSecond: 0.001,
	}, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	// consume the only burst token
	notifier.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if errSend := notifier.Send(ctx, testLead()); errSend == nil {
		t.Fatalf("expected canceled context to abort the send")
	}
}

func TestNewEmailNotifierRequiresConfig(t *testing.T) {
	_, err := NewEmailNotifier(EmailConfig{APIKey: "key"}, nil)
	if !errors.Is(err, ErrMissingEmailConfig) {
		t.Fatalf("expected ErrMissingEmailConfig, got %v", err)
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	if err := NewLogNotifier().Send(context.Background(), testLead()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
