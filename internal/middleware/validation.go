package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Location is where a validated field is read from.
type Location string

const (
	LocationParams Location = "params"
	LocationBody   Location = "body"
)

// ValidationError describes one failed check.
type ValidationError struct {
	Type     string   `json:"type"`
	Value    any      `json:"value,omitempty"`
	Msg      string   `json:"msg"`
	Path     string   `json:"path"`
	Location Location `json:"location"`
}

// ValidationResponse is the 400 body returned when any check fails.
type ValidationResponse struct {
	Errors []ValidationError `json:"errors"`
}

type check struct {
	tag string
	msg string
	// raw checks inspect the decoded JSON value instead of its text.
	raw bool
}

// Chain is an ordered list of checks on a single request field.
type Chain struct {
	location Location
	field    string
	checks   []check
}

// Param starts a chain on a route parameter.
func Param(field string) *Chain {
	return &Chain{location: LocationParams, field: field}
}

// Body starts a chain on a top-level field of the JSON body.
func Body(field string) *Chain {
	return &Chain{location: LocationBody, field: field}
}

func (c *Chain) add(tag, msg string) *Chain {
	c.checks = append(c.checks, check{tag: tag, msg: msg})
	return c
}

// IsString fails when a present field is not a JSON string.
func (c *Chain) IsString(msg string) *Chain {
	c.checks = append(c.checks, check{tag: "string_value", msg: msg, raw: true})
	return c
}

// MaxLength fails when the field is longer than n characters.
func (c *Chain) MaxLength(n int, msg string) *Chain { return c.add(fmt.Sprintf("max=%d", n), msg) }

// NotEmpty fails when the field is missing or an empty string.
func (c *Chain) NotEmpty(msg string) *Chain { return c.add("required", msg) }

// IsNumeric fails unless the field is a decimal number or numeric string.
func (c *Chain) IsNumeric(msg string) *Chain { return c.add("numeric", msg) }

// IsInt fails unless the field is a signed integer.
func (c *Chain) IsInt(msg string) *Chain { return c.add("integer", msg) }

// Positive fails unless the field is a number greater than zero.
func (c *Chain) Positive(msg string) *Chain { return c.add("positive", msg) }

var integerRegex = regexp.MustCompile(`^[-+]?[0-9]+$`)

// Validator evaluates chains with go-playground/validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the custom "integer", "positive" and
// "string_value" tags registered.
func NewValidator() *Validator {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("integer", func(fl validator.FieldLevel) bool {
		return integerRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		f, err := strconv.ParseFloat(fl.Field().String(), 64)
		return err == nil && f > 0
	})
	_ = v.RegisterValidation("string_value", func(fl validator.FieldLevel) bool {
		_, ok := fl.Field().Interface().(string)
		return ok
	})
	return &Validator{validate: v}
}

// Rules returns a handler that runs every check of every chain and either
// responds 400 with all failures or passes control to the next handler.
func (v *Validator) Rules(chains ...*Chain) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body map[string]any
		if readsBody(chains) {
			body = parseBody(c.Body())
		}

		var errs []ValidationError
		for _, chain := range chains {
			raw, text := chain.value(c, body)
			for _, chk := range chain.checks {
				var target any = text
				if chk.raw {
					if raw == nil {
						continue
					}
					target = raw
				}
				if err := v.validate.Var(target, chk.tag); err != nil {
					errs = append(errs, ValidationError{
						Type:     "field",
						Value:    raw,
						Msg:      chk.msg,
						Path:     chain.field,
						Location: chain.location,
					})
				}
			}
		}

		if len(errs) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ValidationResponse{Errors: errs})
		}
		return c.Next()
	}
}

func readsBody(chains []*Chain) bool {
	for _, chain := range chains {
		if chain.location == LocationBody {
			return true
		}
	}
	return false
}

// value returns the raw field value and its string form for checking.
func (c *Chain) value(ctx *fiber.Ctx, body map[string]any) (any, string) {
	if c.location == LocationParams {
		p := ctx.Params(c.field)
		return p, p
	}
	raw, ok := body[c.field]
	if !ok || raw == nil {
		return nil, ""
	}
	switch val := raw.(type) {
	case string:
		return val, val
	case json.Number:
		// Exponent forms such as 1e3 are plain numbers once decoded.
		if f, err := strconv.ParseFloat(val.String(), 64); err == nil {
			return val, strconv.FormatFloat(f, 'f', -1, 64)
		}
		return val, val.String()
	case bool:
		return val, strconv.FormatBool(val)
	default:
		// Objects and arrays never satisfy a check except NotEmpty.
		return val, fmt.Sprintf("%v", val)
	}
}

// parseBody decodes a JSON object keeping numbers exact.
// Anything that is not a JSON object yields an empty map.
func parseBody(data []byte) map[string]any {
	body := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return body
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return map[string]any{}
	}
	return body
}
