package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/folio-studio/contactgate/internal/contact"
	"github.com/folio-studio/contactgate/internal/i18n"
	"github.com/folio-studio/contactgate/internal/validation"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// maxBodyBytes bounds the request body; the largest valid payload is well under it.
const maxBodyBytes = 64 << 10

// ContactHandler serves the lead form endpoints.
type ContactHandler struct {
	gate *contact.Gatekeeper
}

// NewContactHandler constructs a ContactHandler.
func NewContactHandler(gate *contact.Gatekeeper) *ContactHandler {
	return &ContactHandler{gate: gate}
}

// Submit admits, validates and dispatches one form submission.
func (h *ContactHandler) Submit(c *gin.Context) {
	lang := RequestLang(c)
	identity := ClientIdentity(c.Request)
	ctx := c.Request.Context()

	payload, typeErrs, errDecode := validation.Decode(limitBody(c), lang)
	if errDecode != nil {
		log.WithError(errDecode).WithField("identity", identity).Debug("contact: malformed body")
		h.respond(c, h.gate.HandleMalformed(ctx, identity), lang)
		return
	}
	h.respond(c, h.gate.HandleDecoded(ctx, payload, typeErrs, identity, lang), lang)
}

// Validate checks a client-safe payload without admission or dispatch.
func (h *ContactHandler) Validate(c *gin.Context) {
	lang := RequestLang(c)

	payload, typeErrs, errDecode := validation.DecodeClient(limitBody(c), lang)
	if errDecode != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": i18n.Text(lang, i18n.MsgMalformedBody), "details": validation.FieldErrors{}})
		return
	}
	if fieldErrs := validation.MergeErrors(validation.ValidateClient(payload, lang), typeErrs); len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": i18n.Text(lang, i18n.MsgValidationFailed), "details": fieldErrs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// Schema returns the client-safe field constraints for the form.
func (h *ContactHandler) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": validation.Rules()})
}

func (h *ContactHandler) respond(c *gin.Context, outcome contact.Outcome, lang i18n.Lang) {
	switch outcome.Kind {
	case contact.KindSuccess:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case contact.KindRateLimited:
		retryAfter := outcome.RetryAfterSeconds(h.gate.Now())
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      fmt.Sprintf(i18n.Text(lang, i18n.MsgRateLimited), retryAfter),
			"retryAfter": retryAfter,
		})
	case contact.KindInvalid:
		details := outcome.Errors
		if details == nil {
			details = validation.FieldErrors{}
		}
		msg := i18n.Text(lang, i18n.MsgValidationFailed)
		if outcome.Malformed {
			msg = i18n.Text(lang, i18n.MsgMalformedBody)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg, "details": details})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.Text(lang, i18n.MsgServerError)})
	}
}

// limitBody bounds the request body. Decoding happens outside gin's binder so
// binding validation never runs before admission.
func limitBody(c *gin.Context) io.Reader {
	return http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
}
