package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"lens-catalog/internal/domain"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInteger
	kindBoolean
)

type productField struct {
	name string
	kind fieldKind
}

// productFields is every key a product body may carry, in report order
var productFields = []productField{
	{"model", kindString},
	{"brand", kindString},
	{"type", kindString},
	{"focalLength", kindString},
	{"maxAperture", kindString},
	{"mount", kindString},
	{"weight", kindInteger},
	{"hasStabilization", kindBoolean},
	{"active", kindBoolean},
}

// DecodeCreate parses a create body. Every product field is required and
// unknown keys are rejected.
func DecodeCreate(body io.Reader) (domain.CreateProductInput, error) {
	var in domain.CreateProductInput

	raw, err := decodeObject(body)
	if err != nil {
		return in, err
	}

	values, messages := decodeFields(raw, true)
	for name, v := range values {
		switch name {
		case "model":
			in.Model = v.(string)
		case "brand":
			in.Brand = v.(string)
		case "type":
			in.Type = domain.LensType(v.(string))
		case "focalLength":
			in.FocalLength = v.(string)
		case "maxAperture":
			in.MaxAperture = v.(string)
		case "mount":
			in.Mount = v.(string)
		case "weight":
			in.Weight = v.(int)
		case "hasStabilization":
			in.HasStabilization = v.(bool)
		case "active":
			in.Active = v.(bool)
		}
	}

	if err := mergeRuleErrors(&in, messages); err != nil {
		return in, err
	}
	if errs := collect(raw, messages); len(errs) > 0 {
		return domain.CreateProductInput{}, errs
	}
	return in, nil
}

// DecodeUpdate parses a partial update body. Fields are optional but follow
// the create rules when present; unknown keys are rejected.
func DecodeUpdate(body io.Reader) (domain.UpdateProductInput, error) {
	var in domain.UpdateProductInput

	raw, err := decodeObject(body)
	if err != nil {
		return in, err
	}

	values, messages := decodeFields(raw, false)
	for name, v := range values {
		switch name {
		case "model":
			s := v.(string)
			in.Model = &s
		case "brand":
			s := v.(string)
			in.Brand = &s
		case "type":
			t := domain.LensType(v.(string))
			in.Type = &t
		case "focalLength":
			s := v.(string)
			in.FocalLength = &s
		case "maxAperture":
			s := v.(string)
			in.MaxAperture = &s
		case "mount":
			s := v.(string)
			in.Mount = &s
		case "weight":
			n := v.(int)
			in.Weight = &n
		case "hasStabilization":
			b := v.(bool)
			in.HasStabilization = &b
		case "active":
			b := v.(bool)
			in.Active = &b
		}
	}

	if err := mergeRuleErrors(&in, messages); err != nil {
		return in, err
	}
	if errs := collect(raw, messages); len(errs) > 0 {
		return domain.UpdateProductInput{}, errs
	}
	return in, nil
}

// decodeObject reads body as a single JSON object keeping values undecoded
func decodeObject(body io.Reader) (map[string]json.RawMessage, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, Errors{{Field: "body", Message: "Request body must be a JSON object"}}
	}
	return raw, nil
}

// decodeFields checks presence and JSON kind of each known field. It returns
// the decoded values and a message for each field that failed.
func decodeFields(raw map[string]json.RawMessage, required bool) (map[string]interface{}, map[string]string) {
	values := make(map[string]interface{}, len(productFields))
	messages := make(map[string]string)

	for _, f := range productFields {
		data, ok := raw[f.name]
		if !ok {
			if required {
				messages[f.name] = "The field " + f.name + " is required"
			}
			continue
		}

		v, msg := decodeKind(f, data)
		if msg != "" {
			messages[f.name] = msg
			continue
		}
		values[f.name] = v
	}

	return values, messages
}

func decodeKind(f productField, data json.RawMessage) (interface{}, string) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, wrongKind(f)
	}

	switch f.kind {
	case kindString:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, wrongKind(f)
		}
		return s, ""
	case kindInteger:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, wrongKind(f)
		}
		if n != math.Trunc(n) {
			return nil, f.name + " must be an integer"
		}
		if n > math.MaxInt32 {
			return nil, "The field " + f.name + " must be at most " + strconv.Itoa(math.MaxInt32) + "."
		}
		if n < 1 {
			return nil, "The field " + f.name + " must be at least 1."
		}
		return int(n), ""
	case kindBoolean:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, wrongKind(f)
		}
		return b, ""
	}
	return nil, wrongKind(f)
}

func wrongKind(f productField) string {
	switch f.kind {
	case kindInteger:
		return f.name + " must be a number"
	case kindBoolean:
		return f.name + " must be a boolean"
	default:
		return f.name + " must be a string"
	}
}

// mergeRuleErrors adds tag rule failures for fields that decoded cleanly
func mergeRuleErrors(v interface{}, messages map[string]string) error {
	rules, err := structErrors(v)
	if err != nil {
		return fmt.Errorf("failed to validate product: %w", err)
	}
	for field, msg := range rules {
		if _, failed := messages[field]; !failed {
			messages[field] = msg
		}
	}
	return nil
}

// collect orders field messages by productFields, then appends unknown keys
func collect(raw map[string]json.RawMessage, messages map[string]string) Errors {
	var errs Errors
	known := make(map[string]bool, len(productFields))

	for _, f := range productFields {
		known[f.name] = true
		if msg, ok := messages[f.name]; ok {
			errs = append(errs, FieldError{Field: f.name, Message: msg})
		}
	}

	var unknown []string
	for key := range raw {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, FieldError{Field: key, Message: "Unrecognized field " + key})
	}

	return errs
}
