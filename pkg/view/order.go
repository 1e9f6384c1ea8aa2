package view

import "time"

type RegistrationRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	TicketType string `json:"ticketType"`
	Price      string `json:"price"`
	Status     string `json:"status"`
}

type OrderDetail struct {
	ID             string    `json:"id"`
	PurchaserEmail string    `json:"purchaserEmail"`
	PurchaserName  string    `json:"purchaserName"`
	PaymentMethod  string    `json:"paymentMethod"`
	PaymentStatus  string    `json:"paymentStatus"`
	Total          string    `json:"total"`
	Discount       string    `json:"discount,omitempty"`
	InvoiceNumber  string    `json:"invoiceNumber,omitempty"`
	InvoiceDueDate string    `json:"invoiceDueDate,omitempty"`
	Organisation   string    `json:"organisation,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`

	Registrations []RegistrationRow `json:"registrations"`
}

type OrderListItem struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"` // short id shown to people
	PaymentMethod string    `json:"paymentMethod"`
	PaymentStatus string    `json:"paymentStatus"`
	Total         string    `json:"total"`
	TicketCount   int       `json:"ticketCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
