package model

// Notification is the body accepted by the notification service.
type Notification struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}
