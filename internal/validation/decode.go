package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/folio-studio/contactgate/internal/i18n"
)

// ErrMalformedBody indicates the body is not a single JSON object.
var ErrMalformedBody = errors.New("validation: malformed body")

// Decode reads a JSON object into a Submission. Syntax errors and non-object
// bodies return ErrMalformedBody. A field holding a non-string value is left
// empty and reported in the returned FieldErrors, so callers can still report
// the other fields. A non-string honeypot keeps its raw JSON text.
func Decode(r io.Reader, lang i18n.Lang) (Submission, FieldErrors, error) {
	var s Submission
	raw, typeErrs, errDecode := decodeFields(r, clientTargets(&s.ClientSubmission), lang)
	if errDecode != nil {
		return Submission{}, nil, errDecode
	}
	if value, ok := raw[HoneypotField]; ok {
		if errHoneypot := json.Unmarshal(value, &s.WebsiteURL); errHoneypot != nil {
			s.WebsiteURL = string(value)
		}
	}
	return s, typeErrs, nil
}

// DecodeClient is Decode for the client-safe schema. The honeypot is ignored.
func DecodeClient(r io.Reader, lang i18n.Lang) (ClientSubmission, FieldErrors, error) {
	var s ClientSubmission
	_, typeErrs, errDecode := decodeFields(r, clientTargets(&s), lang)
	if errDecode != nil {
		return ClientSubmission{}, nil, errDecode
	}
	return s, typeErrs, nil
}

func clientTargets(s *ClientSubmission) map[string]*string {
	return map[string]*string{
		"name":         &s.Name,
		"email":        &s.Email,
		"phone":        &s.Phone,
		"businessType": &s.BusinessType,
		"hasWebsite":   &s.HasWebsite,
		"goals":        &s.Goals,
	}
}

func decodeFields(r io.Reader, targets map[string]*string, lang i18n.Lang) (map[string]json.RawMessage, FieldErrors, error) {
	dec := json.NewDecoder(r)
	var raw map[string]json.RawMessage
	if errDecode := dec.Decode(&raw); errDecode != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedBody, errDecode)
	}
	if _, errExtra := dec.Token(); errExtra != io.EOF {
		return nil, nil, fmt.Errorf("%w: trailing data", ErrMalformedBody)
	}

	var typeErrs FieldErrors
	for field, dst := range targets {
		value, ok := raw[field]
		if !ok {
			continue
		}
		if errField := json.Unmarshal(value, dst); errField != nil {
			if typeErrs == nil {
				typeErrs = FieldErrors{}
			}
			typeErrs.Add(field, i18n.Text(lang, i18n.MsgInvalidType))
		}
	}
	return raw, typeErrs, nil
}

// MergeErrors combines schema errors with decode errors. A field present in
// override replaces the schema messages for it, since its empty value would
// otherwise be reported as missing or too short.
func MergeErrors(base, override FieldErrors) FieldErrors {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(FieldErrors, len(base)+len(override))
	for field, msgs := range base {
		out[field] = msgs
	}
	for field, msgs := range override {
		out[field] = msgs
	}
	return out
}
