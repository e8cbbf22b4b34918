package validation

import (
	"reflect"
	"strconv"
	"strings"
)

// FieldRule is the client-facing description of one form field.
type FieldRule struct {
	Field     string   `json:"field"`
	Required  bool     `json:"required"`
	MinLength int      `json:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Format    string   `json:"format,omitempty"`
	Enum      []string `json:"enum,omitempty"`
}

// Rules describes the client-safe schema, read from the same tags Validate enforces.
func Rules() []FieldRule {
	t := reflect.TypeOf(ClientSubmission{})
	out := make([]FieldRule, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		rule := FieldRule{Field: jsonFieldName(field)}
		for _, part := range strings.Split(field.Tag.Get("binding"), ",") {
			name, param, _ := strings.Cut(part, "=")
			switch name {
			case "required":
				rule.Required = true
			case "min":
				rule.MinLength, _ = strconv.Atoi(param)
				rule.Required = rule.Required || rule.MinLength > 0
			case "max":
				rule.MaxLength, _ = strconv.Atoi(param)
			case "email":
				rule.Format = "email"
				rule.Required = true
			case "oneof":
				rule.Enum = strings.Fields(param)
				rule.Required = true
			}
		}
		out = append(out, rule)
	}
	return out
}
