// Package validation checks request bodies against JSON schemas before they reach
// the repositories.
package validation

import (
	"fmt"
	"sort"
	"strings"

	apperrors "tradehub/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names.
const (
	Register           = "register"
	Login              = "login"
	BuyerUpdate        = "buyer_update"
	SellerUpdate       = "seller_update"
	ProductCreate      = "product_create"
	ProductUpdate      = "product_update"
	OrderCreate        = "order_create"
	OrderStatus        = "order_status"
	QuoteRequest       = "quote_request"
	QuoteRespond       = "quote_respond"
	MessageSend        = "message_send"
	SubscriptionUpsert = "subscription_upsert"
)

var definitions = map[string]string{
	Register: `{
		"type": "object",
		"additionalProperties": false,
		"required": ["email", "password", "role", "company_name"],
		"properties": {
			"email": {"type": "string", "format": "email", "maxLength": 254},
			"password": {"type": "string", "minLength": 8, "maxLength": 72},
			"role": {"type": "string", "enum": ["buyer", "seller"]},
			"company_name": {"type": "string", "minLength": 1, "maxLength": 200},
			"phone": {"type": "string", "pattern": "^\\+[1-9][0-9]{6,14}$"}
		}
	}`,
	Login: `{
		"type": "object",
		"additionalProperties": false,
		"required": ["email", "password"],
		"properties": {
			"email": {"type": "string", "minLength": 3},
			"password": {"type": "string", "minLength": 1}
		}
	}`,
	BuyerUpdate: `{
		"type": "object",
		"additionalProperties": false,
		"minProperties": 1,
		"properties": {
			"company_name": {"type": "string", "minLength": 1, "maxLength": 200},
			"location": {"type": "string", "maxLength": 200},
			"product_interests": {
				"type": "array",
				"maxItems": 100,
				"items": {"type": "string", "minLength": 1, "maxLength": 100}
			}
		}
	}`,
	SellerUpdate: `{
		"type": "object",
		"additionalProperties": false,
		"minProperties": 1,
		"properties": {
			"company_name": {"type": "string", "minLength": 1, "maxLength": 200},
			"description": {"type": "string", "maxLength": 4000},
			"location": {"type": "string", "maxLength": 200},
			"years_experience": {"type": "integer", "minimum": 0, "maximum": 200}
		}
	}`,
	ProductCreate: `{
		"type": "object",
		"additionalProperties": false,
		"required": ["name", "unit_price"],
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 200},
			"category": {"type": "string", "maxLength": 100},
			"description": {"type": "string", "maxLength": 4000},
			"unit_price": {"type": "number", "minimum": 0},
			"currency": {"type": "string", "pattern": "^[A-Z]{3}$"},
			"min_order_qty": {"type": "integer", "minimum": 1}
		}
	}`,
	ProductUpdate: `{
		"type": "object",
		"additionalProperties": false,
		"minProperties": 1,
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 200},
			"category": {"type": "string", "maxLength": 100},
			"description": {"type": "string", "maxLength": 4000},
			"unit_price": {"type": "number", "minimum": 0},
			"currency": {"type": "string", "pattern": "^[A-Z]{3}$"},
			"min_order_qty": {"type": "integer", "minimum": 1}
		}
	}`,
	OrderCreate: `{
		"type": "object",
		"additionalProperties": false,
		"required": ["product_id", "quantity"],
		"properties": {
			"product_id": {"type": "string", "minLength": 1},
			"quantity": {"type": "integer", "minimum": 1},
			"notes": {"type": "string", "maxLength": 2000}
		}
	}`,
	OrderStatus: `{
		"type": "object",
		"additionalProperties": false,
		"required": ["status"],
		"properties": {
			"status": {"type": "string", "enum": ["accepted", "rejected", "shipped", "delivered", "cancelled"]}
		}
	}`,
	QuoteRequest: `{
		"type": "object",
		"additionalProperties": false,
		"required": ["product_id", "quantity"],
		"properties": {
			"product_id": {"type": "string", "minLength": 1},
			"quantity": {"type": "integer", "minimum": 1},
			"message": {"type": "string", "maxLength": 2000}
		}
	}`,
	QuoteRespond: `{
		"type": "object",
		"additionalProperties": false,
		"required": ["unit_price"],
		"properties": {
			"unit_price": {"type": "number", "minimum": 0},
			"valid_days": {"type": "integer", "minimum": 1, "maximum": 365},
			"message": {"type": "string", "maxLength": 2000}
		}
	}`,
	MessageSend: `{
		"type": "object",
		"additionalProperties": false,
		"required": ["body"],
		"properties": {
			"body": {"type": "string", "minLength": 1, "maxLength": 4000}
		}
	}`,
	SubscriptionUpsert: `{
		"type": "object",
		"additionalProperties": false,
		"required": ["tier"],
		"properties": {
			"tier": {"type": "string", "enum": ["free", "basic", "premium", "enterprise"]},
			"expires_at": {"type": ["string", "null"], "format": "date-time"}
		}
	}`,
}

// Validator holds compiled schemas keyed by name.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// New compiles every request schema. It fails only on a malformed definition.
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(definitions))}
	for name, def := range definitions {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// MustNew is New for process startup and tests.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks a raw JSON body against the named schema. The returned error is a
// VALIDATION_FAILED StandardError whose details list every violated field.
func (v *Validator) Validate(name string, body []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return apperrors.NewInternalError(fmt.Errorf("unknown schema %q", name))
	}
	if len(body) == 0 {
		return apperrors.NewValidationFailedError("request body is required")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apperrors.NewValidationFailedError("malformed JSON: " + err.Error())
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
	}
	sort.Strings(msgs)
	return apperrors.NewValidationFailedError(strings.Join(msgs, "; "))
}
