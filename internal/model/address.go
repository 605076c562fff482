package model

// AddressType is the closed set of supported address kinds.
type AddressType string

const (
	AddressTypeBilling  AddressType = "billing"
	AddressTypeShipping AddressType = "shipping"
)

// Address represents a billing or shipping address record.
// The ID is assigned by the repository on first save and never changes.
type Address struct {
	ID         string      `json:"id" bson:"_id,omitempty"`
	UserID     string      `json:"userId" bson:"user_id"`
	Type       AddressType `json:"type" bson:"type"`
	Line1      string      `json:"line1" bson:"line1"`
	Line2      string      `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string      `json:"city" bson:"city"`
	State      string      `json:"state" bson:"state"`
	Country    string      `json:"country" bson:"country"`
	PostalCode string      `json:"postalCode" bson:"postal_code"`
}

// AddressRequest is the create/update payload.
type AddressRequest struct {
	UserID     string `json:"userId" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=billing shipping"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	Country    string `json:"country" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required,min=3,max=10"`
}

// ToAddress converts the request payload into an Address without an ID.
func (r *AddressRequest) ToAddress() Address {
	return Address{
		UserID:     r.UserID,
		Type:       AddressType(r.Type),
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		Country:    r.Country,
		PostalCode: r.PostalCode,
	}
}
