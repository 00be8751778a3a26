package domain

import (
	"fmt"
	"time"
)

// OrderStatus enumerates the lifecycle states of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// PaymentMethod enumerates the accepted payment channels.
type PaymentMethod string

const (
	PayCreditCard PaymentMethod = "credit_card"
	PayDebitCard  PaymentMethod = "debit_card"
	PayUPI        PaymentMethod = "upi"
	PayNetBanking PaymentMethod = "net_banking"
	PayCOD        PaymentMethod = "cod"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCreditCard, PayDebitCard, PayUPI, PayNetBanking, PayCOD:
		return true
	}
	return false
}

// OrderItem is one line of an order.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is one purchase by a customer. A customer's spend reflects their
// orders, so deleting an order deducts its amount from the customer again.
type Order struct {
	ID            string        `json:"id" db:"id"`
	CustomerID    string        `json:"customerId" db:"customer_id"`
	OrderNumber   string        `json:"orderNumber" db:"order_number"`
	Amount        float64       `json:"totalAmount" db:"amount"`
	Currency      string        `json:"currency" db:"currency"`
	Status        OrderStatus   `json:"status" db:"status"`
	Items         []OrderItem   `json:"items" db:"items"`
	PaymentMethod PaymentMethod `json:"paymentMethod" db:"payment_method"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields required to persist an order.
func (o Order) Validate() error {
	if o.CustomerID == "" {
		return fmt.Errorf("order customer id is required")
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("order items are required")
	}
	if o.Amount <= 0 {
		return fmt.Errorf("order amount must be positive")
	}
	if o.Status != "" && !o.Status.Valid() {
		return fmt.Errorf("unknown order status %q", o.Status)
	}
	if o.PaymentMethod != "" && !o.PaymentMethod.Valid() {
		return fmt.Errorf("unknown payment method %q", o.PaymentMethod)
	}
	return nil
}
