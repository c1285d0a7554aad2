package model

import "time"

// Order records a ticket purchase for an event.  Orders are created by the
// order workflow and only ever changed by administrative correction.
//
// Fields:
//  ID            – primary key identifier.
//  EventID       – event the ticket is for.
//  QRCode        – link to the rendered QR image encoding the event URL.
//  PaymentMethod – free-form payment method label.
//  PeopleCount   – party size.
//  Email         – purchaser email, receives the ticket.
//  CreatedAt     – creation timestamp.
type Order struct {
    ID            uint64    `json:"order_id"`       // orders.id
    EventID       uint64    `json:"event_id"`       // orders.event_id
    QRCode        string    `json:"qrcode"`         // orders.qrcode
    PaymentMethod string    `json:"payment_method"` // orders.payment_method
    PeopleCount   int       `json:"people_count"`   // orders.people_count
    Email         string    `json:"email"`          // orders.email
    CreatedAt     time.Time `json:"created_at"`     // orders.created_at
}

// OrderPatch is an administrative correction of an order.
type OrderPatch struct {
    QRCode        *string `json:"qrcode"`
    PaymentMethod *string `json:"payment_method"`
    PeopleCount   *int    `json:"people_count"`
    Email         *string `json:"email"`
}

// Apply copies the supplied fields onto o.
func (p OrderPatch) Apply(o *Order) {
    if p.QRCode != nil {
        o.QRCode = *p.QRCode
    }
    if p.PaymentMethod != nil {
        o.PaymentMethod = *p.PaymentMethod
    }
    if p.PeopleCount != nil {
        o.PeopleCount = *p.PeopleCount
    }
    if p.Email != nil {
        o.Email = *p.Email
    }
}
