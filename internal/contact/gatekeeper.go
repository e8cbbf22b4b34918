// Package contact runs the lead form submission pipeline: admission,
// validation, honeypot filtering and dispatch.
package contact

import (
	"context"
	"time"

	"github.com/folio-studio/contactgate/internal/i18n"
	"github.com/folio-studio/contactgate/internal/notify"
	"github.com/folio-studio/contactgate/internal/ratelimit"
	internalsettings "github.com/folio-studio/contactgate/internal/settings"
	"github.com/folio-studio/contactgate/internal/stats"
	"github.com/folio-studio/contactgate/internal/validation"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Kind enumerates terminal states of a submission.
type Kind int

const (
	// KindSuccess is a dispatched lead, or a honeypot hit reported as one.
	KindSuccess Kind = iota
	// KindRateLimited means the caller exhausted its admissions for the window.
	KindRateLimited
	// KindInvalid means the payload failed the schema or could not be decoded.
	KindInvalid
	// KindDispatchFailed means the notifier returned an error.
	KindDispatchFailed
)

// String returns the stats label for k.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalid:
		return "invalid"
	case KindDispatchFailed:
		return "dispatch_failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of handling one submission.
type Outcome struct {
	Kind Kind
	// Reset is set for KindRateLimited.
	Reset time.Time
	// Errors is set for KindInvalid.
	Errors validation.FieldErrors
	// Malformed marks a KindInvalid whose body could not be decoded.
	Malformed bool
	// Honeypot marks a KindSuccess that was silently dropped. Callers must not
	// expose it.
	Honeypot bool
	// Reference identifies the dispatched lead in logs and the email provider.
	Reference string
}

// RetryAfterSeconds returns ceil((Reset-now)/1s) for rate-limited outcomes.
func (o Outcome) RetryAfterSeconds(now time.Time) int {
	return ratelimit.Result{Reset: o.Reset}.RetryAfterSeconds(now)
}

// Gatekeeper sequences the limiter, validator, honeypot check and notifier.
type Gatekeeper struct {
	limiter  ratelimit.Limiter
	notifier notify.Notifier
	recorder stats.Recorder
	location *time.Location
	nowFn    func() time.Time
	newID    func() string
}

// Option customizes a Gatekeeper.
type Option func(*Gatekeeper)

// WithRecorder sets the outcome stats recorder.
func WithRecorder(rec stats.Recorder) Option {
	return func(g *Gatekeeper) { g.recorder = rec }
}

// WithLocation sets the time zone used for display timestamps.
func WithLocation(loc *time.Location) Option {
	return func(g *Gatekeeper) {
		if loc != nil {
			g.location = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(nowFn func() time.Time) Option {
	return func(g *Gatekeeper) {
		if nowFn != nil {
			g.nowFn = nowFn
		}
	}
}

// NewGatekeeper constructs a Gatekeeper.
func NewGatekeeper(limiter ratelimit.Limiter, notifier notify.Notifier, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		limiter:  limiter,
		notifier: notifier,
		location: time.UTC,
		nowFn:    time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Now returns the gatekeeper's current time.
func (g *Gatekeeper) Now() time.Time { return g.nowFn() }

// Handle runs one submission to a terminal outcome. Admission is checked before
// any validation, so a rejected caller never reaches the validator.
func (g *Gatekeeper) Handle(ctx context.Context, payload validation.Submission, identity string, lang i18n.Lang) Outcome {
	return g.HandleDecoded(ctx, payload, nil, identity, lang)
}

// HandleDecoded is Handle for a payload whose decoding reported per-field type
// errors. Those errors are reported together with the schema violations.
func (g *Gatekeeper) HandleDecoded(ctx context.Context, payload validation.Submission, typeErrs validation.FieldErrors, identity string, lang i18n.Lang) Outcome {
	outcome, admitted := g.admit(identity)
	if admitted {
		outcome = g.process(ctx, payload, typeErrs, identity, lang)
	}
	g.record(ctx, outcome)
	return outcome
}

// HandleMalformed handles a request whose body could not be decoded. It still
// consumes an admission slot, then reports an Invalid outcome without field details.
func (g *Gatekeeper) HandleMalformed(ctx context.Context, identity string) Outcome {
	outcome, admitted := g.admit(identity)
	if admitted {
		outcome = Outcome{Kind: KindInvalid, Errors: validation.FieldErrors{}, Malformed: true}
	}
	g.record(ctx, outcome)
	return outcome
}

func (g *Gatekeeper) admit(identity string) (Outcome, bool) {
	admission := g.limiter.Check(identity)
	if admission.Allowed {
		return Outcome{}, true
	}
	log.WithFields(log.Fields{"identity": identity, "reset": admission.Reset}).Info("contact: rate limited")
	return Outcome{Kind: KindRateLimited, Reset: admission.Reset}, false
}

func (g *Gatekeeper) process(ctx context.Context, payload validation.Submission, typeErrs validation.FieldErrors, identity string, lang i18n.Lang) Outcome {
	clean, fieldErrs := validation.Validate(payload, lang)
	if fieldErrs = validation.MergeErrors(fieldErrs, typeErrs); len(fieldErrs) > 0 {
		return Outcome{Kind: KindInvalid, Errors: fieldErrs}
	}

	if payload.WebsiteURL != "" {
		log.WithField("identity", identity).Info("contact: honeypot triggered, dropping submission")
		return Outcome{Kind: KindSuccess, Honeypot: true}
	}

	now := g.nowFn()
	lead := notify.Lead{
		Reference:          g.newID(),
		Name:               clean.Name,
		Email:              clean.Email,
		Phone:              clean.Phone,
		BusinessType:       clean.BusinessType,
		HasWebsite:         clean.HasWebsite,
		Goals:              clean.Goals,
		Lang:               string(lang),
		SubmittedAt:        now.UTC(),
		SubmittedAtDisplay: FormatDisplayTime(now, g.location, lang),
	}
	if identity != "" && identity != internalsettings.UnknownIdentity {
		lead.Identity = identity
	}

	if errSend := g.notifier.Send(ctx, lead); errSend != nil {
		log.WithError(errSend).WithFields(log.Fields{
			"reference": lead.Reference,
			"identity":  identity,
		}).Error("contact: dispatch failed")
		return Outcome{Kind: KindDispatchFailed, Reference: lead.Reference}
	}

	log.WithField("reference", lead.Reference).Info("contact: lead dispatched")
	return Outcome{Kind: KindSuccess, Reference: lead.Reference}
}

func (g *Gatekeeper) record(ctx context.Context, outcome Outcome) {
	if g.recorder == nil {
		return
	}
	label := outcome.Kind.String()
	if outcome.Honeypot {
		label = "honeypot"
	}
	if errRecord := g.recorder.Record(ctx, stats.Event{Outcome: label, At: g.nowFn()}); errRecord != nil {
		log.WithError(errRecord).Warn("contact: record stats failed")
	}
}

// FormatDisplayTime renders t in loc using the site's date convention for lang.
func FormatDisplayTime(t time.Time, loc *time.Location, lang i18n.Lang) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	if lang == i18n.English {
		return local.Format("1/2/2006, 3:04:05 PM MST")
	}
	return local.Format("2/1/2006, 15:04:05 MST")
}
