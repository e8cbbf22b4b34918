// Package i18n holds the caller-facing message catalog for the two site languages.
package i18n

import "strings"

// Lang identifies a site language.
type Lang string

const (
	// Spanish is the site default.
	Spanish Lang = "es"
	// English is the secondary site language.
	English Lang = "en"
)

// Message keys shared by the validator and the HTTP layer.
const (
	MsgTooShort      = "too_short"
	MsgTooLong       = "too_long"
	MsgInvalidFormat = "invalid_format"
	MsgRequired      = "required"
	MsgInvalidEnum   = "invalid_enum"
	MsgInvalidType   = "invalid_type"
	MsgInvalid       = "invalid"

	MsgValidationFailed = "validation_failed"
	MsgMalformedBody    = "malformed_body"
	MsgRateLimited      = "rate_limited"
	MsgServerError      = "server_error"
)

var catalog = map[Lang]map[string]string{
	English: {
		MsgTooShort:         "too short: must be at least %s characters",
		MsgTooLong:          "too long: must be at most %s characters",
		MsgInvalidFormat:    "invalid format",
		MsgRequired:         "required",
		MsgInvalidEnum:      "invalid enum: must be one of %s",
		MsgInvalidType:      "invalid type: expected text",
		MsgInvalid:          "invalid value",
		MsgValidationFailed: "Some fields are invalid. Please fix them and try again.",
		MsgMalformedBody:    "The request body could not be read. Please try again.",
		MsgRateLimited:      "Too many requests. Please try again in %d seconds.",
		MsgServerError:      "Something went wrong sending your message. Please try again or email us directly.",
	},
	Spanish: {
		MsgTooShort:         "muy corto: debe tener al menos %s caracteres",
		MsgTooLong:          "muy largo: debe tener como máximo %s caracteres",
		MsgInvalidFormat:    "formato inválido",
		MsgRequired:         "requerido",
		MsgInvalidEnum:      "valor inválido: debe ser uno de %s",
		MsgInvalidType:      "tipo inválido: se esperaba texto",
		MsgInvalid:          "valor inválido",
		MsgValidationFailed: "Algunos campos no son válidos. Corrígelos e inténtalo de nuevo.",
		MsgMalformedBody:    "No pudimos leer la solicitud. Inténtalo de nuevo.",
		MsgRateLimited:      "Demasiadas solicitudes. Inténtalo de nuevo en %d segundos.",
		MsgServerError:      "Algo salió mal al enviar tu mensaje. Inténtalo de nuevo o escríbenos directamente por email.",
	},
}

// Parse maps a query value or Accept-Language header to a site language.
// Anything that does not start with "en" falls back to Spanish.
func Parse(raw string) Lang {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, string(English)) {
		return English
	}
	return Spanish
}

// Text returns the message template for key in lang. Unknown languages use Spanish.
func Text(lang Lang, key string) string {
	messages, ok := catalog[lang]
	if !ok {
		messages = catalog[Spanish]
	}
	if msg, okMsg := messages[key]; okMsg {
		return msg
	}
	return key
}
