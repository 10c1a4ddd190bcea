package webhook

// Event types and message types handled by the controller.
const (
	EventTypeMessage   = "message"
	MessageTypeText    = "text"
	SignatureHeaderKey = "X-Line-Signature"
)

// CallbackRequest is the body of one webhook delivery.
type CallbackRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single platform event inside a delivery.
type Event struct {
	Type            string           `json:"type"`
	Mode            string           `json:"mode"`
	Timestamp       int64            `json:"timestamp"`
	WebhookEventID  string           `json:"webhookEventId"`
	ReplyToken      string           `json:"replyToken"`
	Source          EventSource      `json:"source"`
	Message         *EventMessage    `json:"message,omitempty"`
	DeliveryContext *DeliveryContext `json:"deliveryContext,omitempty"`
}

// EventSource identifies who sent the event.
type EventSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// EventMessage is the message carried by a message event.
type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// DeliveryContext tells whether the platform is re-sending an event.
type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// IsTextMessage reports whether the event is a text message the relay should answer.
func (e *Event) IsTextMessage() bool {
	return e.Type == EventTypeMessage && e.Message != nil && e.Message.Type == MessageTypeText
}
