package contact

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/folio-studio/contactgate/internal/i18n"
	"github.com/folio-studio/contactgate/internal/notify"
	"github.com/folio-studio/contactgate/internal/ratelimit"
	"github.com/folio-studio/contactgate/internal/stats"
	"github.com/folio-studio/contactgate/internal/validation"
)

var epoch = time.Date(2025, 1, 1, 16, 0, 0, 0, time.UTC)

type spyNotifier struct {
	mu    sync.Mutex
	leads []notify.Lead
	err   error
}

func (s *spyNotifier) Send(_ context.Context, lead notify.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	return s.err
}

func (s *spyNotifier) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

type countingLimiter struct {
	inner ratelimit.Limiter
	calls int
}

func (c *countingLimiter) Check(identifier string) ratelimit.Result {
	c.calls++
	return c.inner.Check(identifier)
}

func validPayload() validation.Submission {
	return validation.Submission{
		ClientSubmission: validation.ClientSubmission{
			Name:         "John Doe",
			Email:        "john@example.com",
			Phone:        "7871234567",
			BusinessType: "restaurant",
			HasWebsite:   "no",
			Goals:        "I want to create a website for my restaurant",
		},
	}
}

type fixture struct {
	gate     *Gatekeeper
	limiter  *ratelimit.MemoryLimiter
	notifier *spyNotifier
	recorder *stats.MemoryRecorder
	now      *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := epoch
	nowFn := func() time.Time { return now }
	limiter := ratelimit.NewMemoryLimiter(time.Minute, 5, ratelimit.WithClock(nowFn), ratelimit.WithCleanupProbability(0))
	notifier := &spyNotifier{}
	recorder := stats.NewMemoryRecorder()
	loc, errLoad := time.LoadLocation("America/Puerto_Rico")
	if errLoad != nil {
		loc = time.FixedZone("AST", -4*60*60)
	}
	gate := NewGatekeeper(limiter, notifier, WithRecorder(recorder), WithClock(nowFn), WithLocation(loc))
	gate.newID = func() string { return "ref-1" }
	return &fixture{gate: gate, limiter: limiter, notifier: notifier, recorder: recorder, now: &now}
}

func TestGatekeeperHappyPath(t *testing.T) {
	f := newFixture(t)

	outcome := f.gate.Handle(context.Background(), validPayload(), "203.0.113.7", i18n.Spanish)
	if outcome.Kind != KindSuccess || outcome.Honeypot {
		t.Fatalf("expected real success, got %+v", outcome)
	}
	if f.notifier.calls() != 1 {
		t.Fatalf("expected one dispatch, got %d", f.notifier.calls())
	}
	lead := f.notifier.leads[0]
	if lead.Name != "John Doe" || lead.Email != "john@example.com" || lead.Goals == "" {
		t.Fatalf("unexpected lead: %+v", lead)
	}
	if lead.Identity != "203.0.113.7" {
		t.Fatalf("expected identity to be attached, got %q", lead.Identity)
	}
	if lead.Reference != "ref-1" || outcome.Reference != "ref-1" {
		t.Fatalf("expected reference ref-1, got lead=%q outcome=%q", lead.Reference, outcome.Reference)
	}
	if lead.SubmittedAtDisplay != "1/1/2025, 12:00:00 AST" {
		t.Fatalf("unexpected display time %q", lead.SubmittedAtDisplay)
	}
	if f.recorder.Snapshot()["success"] != 1 {
		t.Fatalf("expected success to be recorded, got %v", f.recorder.Snapshot())
	}
}

func TestGatekeeperOmitsUnknownIdentity(t *testing.T) {
	f := newFixture(t)

	f.gate.Handle(context.Background(), validPayload(), "unknown", i18n.Spanish)
	if f.notifier.calls() != 1 {
		t.Fatalf("expected dispatch, got %d", f.notifier.calls())
	}
	if got := f.notifier.leads[0].Identity; got != "" {
		t.Fatalf("expected unknown identity to be omitted, got %q", got)
	}
}

func TestGatekeeperHoneypotFakesSuccess(t *testing.T) {
	for _, value := range []string{"http://bot.example", "   ", "x"} {
		f := newFixture(t)
		payload := validPayload()
		payload.WebsiteURL = value

		outcome := f.gate.Handle(context.Background(), payload, "203.0.113.7", i18n.Spanish)
		if outcome.Kind != KindSuccess {
			t.Fatalf("%q: expected success outcome, got %+v", value, outcome)
		}
		if !outcome.Honeypot {
			t.Fatalf("%q: expected honeypot flag", value)
		}
		if f.notifier.calls() != 0 {
			t.Fatalf("%q: expected no dispatch for honeypot, got %d", value, f.notifier.calls())
		}
		if f.recorder.Snapshot()["honeypot"] != 1 {
			t.Fatalf("%q: expected honeypot to be recorded, got %v", value, f.recorder.Snapshot())
		}
	}
}

func TestGatekeeperHandleDecodedMergesTypeErrors(t *testing.T) {
	f := newFixture(t)
	payload := validPayload()
	payload.HasWebsite = ""
	payload.Goals = "short"
	typeErrs := validation.FieldErrors{"hasWebsite": {"invalid type: expected text"}}

	outcome := f.gate.HandleDecoded(context.Background(), payload, typeErrs, "192.0.2.30", i18n.English)
	if outcome.Kind != KindInvalid {
		t.Fatalf("expected invalid, got %+v", outcome)
	}
	if got := outcome.Errors["hasWebsite"]; len(got) != 1 || got[0] != "invalid type: expected text" {
		t.Fatalf("expected type error to replace schema error, got %v", got)
	}
	if len(outcome.Errors["goals"]) == 0 {
		t.Fatalf("expected goals to be reported too, got %v", outcome.Errors)
	}
	if f.notifier.calls() != 0 {
		t.Fatalf("expected no dispatch")
	}
}

func TestGatekeeperHandleDecodedTypeErrorOnly(t *testing.T) {
	f := newFixture(t)
	typeErrs := validation.FieldErrors{"phone": {"invalid type: expected text"}}

	outcome := f.gate.HandleDecoded(context.Background(), validPayload(), typeErrs, "192.0.2.31", i18n.English)
	if outcome.Kind != KindInvalid || len(outcome.Errors) != 1 {
		t.Fatalf("expected invalid with only the type error, got %+v", outcome)
	}
}

func TestGatekeeperRateLimitsSixthSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if outcome := f.gate.Handle(ctx, validPayload(), "198.51.100.1", i18n.Spanish); outcome.Kind != KindSuccess {
			t.Fatalf("expected submission %d to succeed, got %+v", i+1, outcome)
		}
	}
	*f.now = epoch.Add(10*time.Second + 300*time.Millisecond)

	outcome := f.gate.Handle(ctx, validPayload(), "198.51.100.1", i18n.Spanish)
	if outcome.Kind != KindRateLimited {
		t.Fatalf("expected rate limited, got %+v", outcome)
	}
	if got := outcome.RetryAfterSeconds(*f.now); got != 50 {
		t.Fatalf("expected retry after 50s, got %d", got)
	}
	if f.notifier.calls() != 5 {
		t.Fatalf("expected 5 dispatches, got %d", f.notifier.calls())
	}
}

func TestGatekeeperChecksAdmissionBeforeValidation(t *testing.T) {
	f := newFixture(t)
	counting := &countingLimiter{inner: f.limiter}
	f.gate.limiter = counting

	payload := validPayload()
	payload.BusinessType = ""
	outcome := f.gate.Handle(context.Background(), payload, "192.0.2.4", i18n.English)
	if outcome.Kind != KindInvalid {
		t.Fatalf("expected invalid, got %+v", outcome)
	}
	if len(outcome.Errors["businessType"]) == 0 {
		t.Fatalf("expected businessType error, got %v", outcome.Errors)
	}
	if counting.calls != 1 {
		t.Fatalf("expected one admission check, got %d", counting.calls)
	}
	if f.notifier.calls() != 0 {
		t.Fatalf("expected no dispatch for invalid input")
	}
	if result := f.limiter.Check("192.0.2.4"); result.Remaining != 3 {
		t.Fatalf("expected invalid submission to consume a slot, remaining=%d", result.Remaining)
	}
}

func TestGatekeeperRateLimitSkipsValidation(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.limiter.Check("192.0.2.9")
	}

	outcome := f.gate.Handle(context.Background(), validation.Submission{}, "192.0.2.9", i18n.English)
	if outcome.Kind != KindRateLimited {
		t.Fatalf("expected rate limited before validation, got %+v", outcome)
	}
	if outcome.Errors != nil {
		t.Fatalf("expected no validation errors, got %v", outcome.Errors)
	}
}

func TestGatekeeperDispatchFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("provider exploded")

	outcome := f.gate.Handle(context.Background(), validPayload(), "203.0.113.7", i18n.Spanish)
	if outcome.Kind != KindDispatchFailed {
		t.Fatalf("expected dispatch failed, got %+v", outcome)
	}
	if f.notifier.calls() != 1 {
		t.Fatalf("expected a single attempt without retry, got %d", f.notifier.calls())
	}
	if f.recorder.Snapshot()["dispatch_failed"] != 1 {
		t.Fatalf("expected dispatch failure to be recorded")
	}
}

func TestGatekeeperHandleMalformedConsumesSlot(t *testing.T) {
	f := newFixture(t)

	outcome := f.gate.HandleMalformed(context.Background(), "192.0.2.5")
	if outcome.Kind != KindInvalid || !outcome.Malformed {
		t.Fatalf("expected malformed invalid outcome, got %+v", outcome)
	}
	if result := f.limiter.Check("192.0.2.5"); result.Remaining != 3 {
		t.Fatalf("expected malformed request to consume a slot, remaining=%d", result.Remaining)
	}
}

func TestFormatDisplayTime(t *testing.T) {
	loc := time.FixedZone("AST", -4*60*60)
	if got := FormatDisplayTime(epoch, loc, i18n.English); got != "1/1/2025, 12:00:00 PM AST" {
		t.Fatalf("unexpected english format %q", got)
	}
	if got := FormatDisplayTime(epoch, nil, i18n.Spanish); got != "1/1/2025, 16:00:00 UTC" {
		t.Fatalf("unexpected spanish format %q", got)
	}
}
