// Package validation defines the lead form schema shared by the form-facing
// endpoints and the submission endpoint.
//
// Constraints live only in the `binding` tags below, the tag name gin's binder
// reads. Rules derives the client contract from the same tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/folio-studio/contactgate/internal/i18n"
	"github.com/go-playground/validator/v10"
)

// HoneypotField is the JSON name of the decoy input hidden from humans.
const HoneypotField = "website_url"

// ClientSubmission is the client-safe schema: every field a person fills in.
type ClientSubmission struct {
	Name         string `json:"name" binding:"min=2,max=100"`
	Email        string `json:"email" binding:"email,max=254"`
	Phone        string `json:"phone" binding:"min=10,max=20"`
	BusinessType string `json:"businessType" binding:"required,max=50"`
	HasWebsite   string `json:"hasWebsite" binding:"oneof=yes no"`
	Goals        string `json:"goals" binding:"min=10,max=2000"`
}

// Submission is the full payload accepted by the submission endpoint.
// The honeypot is carried but not constrained here; the gatekeeper inspects it.
type Submission struct {
	ClientSubmission
	WebsiteURL string `json:"website_url"`
}

// FieldErrors maps a JSON field name to its human-readable violations.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Fields returns the names of every violated field.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for field := range f {
		out = append(out, field)
	}
	return out
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// Validate checks a full submission. On success it returns the submission with
// the honeypot cleared; otherwise it returns every violated field.
func Validate(s Submission, lang i18n.Lang) (Submission, FieldErrors) {
	if errs := ValidateClient(s.ClientSubmission, lang); len(errs) > 0 {
		return Submission{}, errs
	}
	clean := s
	clean.WebsiteURL = ""
	return clean, nil
}

// ValidateClient checks the client-safe schema.
func ValidateClient(s ClientSubmission, lang i18n.Lang) FieldErrors {
	errValidate := engine().Struct(s)
	if errValidate == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(errValidate, &fieldErrs) {
		return FieldErrors{"_": {i18n.Text(lang, i18n.MsgInvalid)}}
	}
	out := make(FieldErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), describe(fe, lang))
	}
	return out
}

func describe(fe validator.FieldError, lang i18n.Lang) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf(i18n.Text(lang, i18n.MsgTooShort), fe.Param())
	case "max":
		return fmt.Sprintf(i18n.Text(lang, i18n.MsgTooLong), fe.Param())
	case "email":
		return i18n.Text(lang, i18n.MsgInvalidFormat)
	case "required":
		return i18n.Text(lang, i18n.MsgRequired)
	case "oneof":
		return fmt.Sprintf(i18n.Text(lang, i18n.MsgInvalidEnum), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return i18n.Text(lang, i18n.MsgInvalid)
	}
}
