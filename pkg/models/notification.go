package models

// Notification feed types surfaced on the back-office home screen.
const (
	NotificationBillingUpload  = "billing_upload"
	NotificationTicketMessage  = "ticket_message"
	NotificationTicketCreated  = "ticket_created"
	NotificationShipmentBooked = "shipment_booked"
)

type Notification struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Title        string `json:"title,omitempty"`
	Message      string `json:"message,omitempty"`
	BillingType  string `json:"billingType,omitempty"`
	TicketNumber string `json:"ticketNumber,omitempty"`
	FileURL      string `json:"fileUrl,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}
