// Package order defines the order domain model and the repository contract
// implemented by the storage packages.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// TimeLayout renders timestamps with fixed millisecond precision in UTC, so
// their string form sorts the same way as the instants they represent.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Status is the fulfillment stage of an order. It is a label only: any status
// may follow any other.
type Status string

// Known statuses.
const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Item is a single order line.
type Item struct {
	ProductID   string  `json:"productId" example:"PROD-123"`
	ProductName string  `json:"productName" example:"Sample Product"`
	Quantity    int     `json:"quantity" example:"2"`
	Price       float64 `json:"price" validate:"gte=0" example:"29.99"`
}

// Address is a shipping destination.
type Address struct {
	Street  string `json:"street" example:"123 Main St"`
	City    string `json:"city" example:"San Francisco"`
	State   string `json:"state" example:"CA"`
	ZipCode string `json:"zipCode" example:"94102"`
	Country string `json:"country" example:"USA"`
}

// Order represents a customer purchase order.
type Order struct {
	ID              string    `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	UserID          int       `json:"userId" example:"1"`
	Items           []Item    `json:"items"`
	TotalAmount     float64   `json:"totalAmount" example:"59.98"`
	Status          Status    `json:"status" example:"pending"`
	ShippingAddress *Address  `json:"shippingAddress"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MarshalJSON writes the timestamps in TimeLayout.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
	}{
		plain:     plain(o),
		CreatedAt: o.CreatedAt.UTC().Format(TimeLayout),
		UpdatedAt: o.UpdatedAt.UTC().Format(TimeLayout),
	})
}

// Clone returns a deep copy of o so callers never share slices or
// pointers with the store.
func (o Order) Clone() Order {
	if o.Items != nil {
		o.Items = append([]Item(nil), o.Items...)
	}
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		o.ShippingAddress = &addr
	}
	return o
}

// NewOrder holds the caller supplied fields of an order about to be created.
// Required fields are validated by the caller before the repository is invoked.
type NewOrder struct {
	UserID          int      `json:"userId" validate:"required" example:"1"`
	Items           []Item   `json:"items" validate:"required,min=1,dive"`
	TotalAmount     float64  `json:"totalAmount" validate:"required" example:"59.98"`
	Status          Status   `json:"status,omitempty" validate:"omitempty,status" example:"pending"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
}

// Patch lists the fields an update may overwrite. A nil field is left
// untouched. Identity and creation time cannot be patched.
type Patch struct {
	Items           *[]Item  `json:"items,omitempty" validate:"omitempty,dive"`
	TotalAmount     *float64 `json:"totalAmount,omitempty" example:"59.98"`
	Status          *Status  `json:"status,omitempty" validate:"omitempty,status" example:"confirmed"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
}

// Apply shallow-merges p over o and returns the result. A supplied shipping
// address replaces the existing one wholesale.
func (p Patch) Apply(o Order) Order {
	if p.Items != nil {
		o.Items = append([]Item(nil), (*p.Items)...)
	}
	if p.TotalAmount != nil {
		o.TotalAmount = *p.TotalAmount
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.ShippingAddress != nil {
		addr := *p.ShippingAddress
		o.ShippingAddress = &addr
	}
	return o
}

// Repository defines behavior for storing orders.
type Repository interface {
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
	Create(ctx context.Context, n NewOrder) (Order, error)
	Update(ctx context.Context, id string, p Patch) (Order, error)
	UpdateStatus(ctx context.Context, id string, s Status) (Order, error)
	Delete(ctx context.Context, id string) error
}

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("order not found")
