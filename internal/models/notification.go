package models

// Notification types.
const (
	NotifyOrderPlaced   = "order_placed"
	NotifyOrderStatus   = "order_status_changed"
	NotifyQuoteRequest  = "quote_requested"
	NotifyQuoteResponse = "quote_responded"
	NotifyNewMessage    = "new_message"
)

type Notification struct {
	ID            string                 `json:"id"`
	RecipientID   string                 `json:"recipientId"`
	RecipientType string                 `json:"recipientType"` // "buyer" or "seller"
	Type          string                 `json:"type"`
	Channel       string                 `json:"channel"` // "email", "sms"
	Status        string                 `json:"status"`  // "sent", "failed", "disabled"
	Payload       map[string]interface{} `json:"payload"`
	SentAt        string                 `json:"sentAt"`
}

type NotificationTemplate struct {
	Type     string
	Subject  string
	Body     string
	SMSBody  string
	Priority string
}
