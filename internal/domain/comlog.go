package domain

import (
	"errors"
	"time"
)

// Shared lookup errors returned by repositories and mapped to HTTP status
// codes at the handler boundary.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// LogStatus enumerates the delivery states of a communication log record.
//
// A record is created with LogDelivered before the vendor outcome is known;
// the status is provisional until a receipt overwrites it.
type LogStatus string

const (
	LogPending   LogStatus = "pending"
	LogSent      LogStatus = "sent"
	LogFailed    LogStatus = "failed"
	LogDelivered LogStatus = "delivered"
)

// CommunicationLog records one delivery attempt to one customer for one
// campaign. CustomerID is nil for the synthetic placeholder entry created
// when a campaign dispatches to an empty audience.
type CommunicationLog struct {
	ID               string         `json:"id" db:"id"`
	CampaignID       string         `json:"campaign_id" db:"campaign_id"`
	CustomerID       *string        `json:"customer_id" db:"customer_id"`
	Message          string         `json:"message" db:"message"`
	Status           LogStatus      `json:"status" db:"status"`
	DeliveryAttempts int            `json:"delivery_attempts" db:"delivery_attempts"`
	LastAttemptAt    *time.Time     `json:"last_attempt_at" db:"last_attempt_at"`
	ErrorMessage     *string        `json:"error_message" db:"error_message"`
	Metadata         map[string]any `json:"metadata" db:"metadata"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// DeliveryReceipt is one asynchronous vendor outcome for a log record.
// Receipt carries the vendor's raw payload and is merged into the log's
// metadata under "deliveryReceipt".
type DeliveryReceipt struct {
	LogID        string         `json:"logId"`
	Status       LogStatus      `json:"status"`
	ErrorMessage *string        `json:"errorMessage,omitempty"`
	Receipt      map[string]any `json:"receipt,omitempty"`
}
