package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the identity record fabricated at login/register. It lives for the
// duration of a client session and is owned by the session manager.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Course is a catalog entry. Prices are exact decimals so that cart totals
// always reconcile with the sum of item prices.
type Course struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"short_description"`
	Description      string          `json:"description,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Duration         string          `json:"duration,omitempty"`
	Level            string          `json:"level,omitempty"`
	ImageURL         string          `json:"image_url"`
	Category         string          `json:"category,omitempty"`
	Instructor       string          `json:"instructor,omitempty"`
}

// CartItem is a snapshot of a course taken at add-time. The cart holds at
// most one item per course ID.
type CartItem struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Price            decimal.Decimal `json:"price"`
	ImageURL         string          `json:"image_url"`
	ShortDescription string          `json:"short_description"`
}

// Snapshot copies the cart-facing fields of a course.
func (c *Course) Snapshot() CartItem {
	return CartItem{
		ID:               c.ID,
		Title:            c.Title,
		Price:            c.Price,
		ImageURL:         c.ImageURL,
		ShortDescription: c.ShortDescription,
	}
}

// Order represents a customer order
type Order struct {
	ID               int64           `db:"id" json:"id"`
	UserID           int64           `db:"user_id" json:"user_id"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status           string          `db:"status" json:"status"`
	PaymentReference string          `db:"payment_reference" json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem represents a course line in an order
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	CourseID  int64           `db:"course_id" json:"course_id"`
	Title     string          `db:"title" json:"title"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Order statuses
const (
	OrderStatusCreated        = "CREATED"
	OrderStatusPaymentPending = "PAYMENT_PENDING"
	OrderStatusPaid           = "PAID"
	OrderStatusCompleted      = "COMPLETED"
	OrderStatusCancelled      = "CANCELLED"
)

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
