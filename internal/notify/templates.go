package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"tradehub/internal/models"
)

var templates = map[string]models.NotificationTemplate{
	models.NotifyOrderPlaced: {
		Type:     models.NotifyOrderPlaced,
		Subject:  "New order for {{.product_name}}",
		Body:     "Hello {{.company_name}},\n\nYou received an order for {{.quantity}} x {{.product_name}} (total {{.total_amount}} {{.currency}}).\nOrder reference: {{.order_id}}\n",
		SMSBody:  "New order {{.order_id}}: {{.quantity}} x {{.product_name}}",
		Priority: "high",
	},
	models.NotifyOrderStatus: {
		Type:     models.NotifyOrderStatus,
		Subject:  "Order {{.order_id}} is now {{.status}}",
		Body:     "Hello {{.company_name}},\n\nOrder {{.order_id}} moved to status {{.status}}.\n",
		SMSBody:  "Order {{.order_id}} is now {{.status}}",
		Priority: "normal",
	},
	models.NotifyQuoteRequest: {
		Type:     models.NotifyQuoteRequest,
		Subject:  "Quote requested for {{.product_name}}",
		Body:     "Hello {{.company_name}},\n\nA buyer asked for a quote on {{.quantity}} x {{.product_name}}.\n{{if .message}}Message: {{.message}}\n{{end}}",
		Priority: "normal",
	},
	models.NotifyQuoteResponse: {
		Type:     models.NotifyQuoteResponse,
		Subject:  "Your quote for {{.product_name}} is ready",
		Body:     "Hello {{.company_name}},\n\nThe seller quoted {{.unit_price}} per unit, valid until {{.valid_until}}.\n",
		SMSBody:  "Quote ready for {{.product_name}}: {{.unit_price}}/unit",
		Priority: "normal",
	},
	models.NotifyNewMessage: {
		Type:     models.NotifyNewMessage,
		Subject:  "New message from {{.sender_company}}",
		Body:     "Hello {{.company_name}},\n\n{{.sender_company}} sent you a message:\n\n{{.preview}}\n",
		Priority: "low",
	},
}

// Template returns the template registered for a notification type.
func Template(notificationType string) (models.NotificationTemplate, bool) {
	t, ok := templates[notificationType]
	return t, ok
}

type rendered struct {
	Subject string
	Body    string
	SMS     string
}

func render(t models.NotificationTemplate, data map[string]interface{}) (*rendered, error) {
	var out rendered
	var err error
	if out.Subject, err = execute(t.Type+".subject", t.Subject, data); err != nil {
		return nil, err
	}
	if out.Body, err = execute(t.Type+".body", t.Body, data); err != nil {
		return nil, err
	}
	if t.SMSBody != "" {
		if out.SMS, err = execute(t.Type+".sms", t.SMSBody, data); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func execute(name, text string, data map[string]interface{}) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
