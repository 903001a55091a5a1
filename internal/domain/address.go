package domain

import "strings"

// Address is used in caller units for both shipment origin and destination.
// Carrier adapters translate it into whatever shape the remote API expects.
type Address struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

func (a Address) Empty() bool {
	return strings.TrimSpace(a.Name) == "" &&
		strings.TrimSpace(a.Street1) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.PostalCode) == ""
}

// PackageSpec describes one physical package in pounds and inches.
type PackageSpec struct {
	WeightLbs     float64  `json:"weight_lbs"`
	LengthIn      float64  `json:"length_in"`
	WidthIn       float64  `json:"width_in"`
	HeightIn      float64  `json:"height_in"`
	DeclaredValue *float64 `json:"declared_value,omitempty"`
	Description   string   `json:"description,omitempty"`
}

type ShipmentOptions struct {
	SignatureRequired bool     `json:"signature_required,omitempty"`
	Insurance         bool     `json:"insurance,omitempty"`
	InsuredValue      *float64 `json:"insured_value,omitempty"`
	Hazmat            bool     `json:"hazmat,omitempty"`
	SaturdayDelivery  bool     `json:"saturday_delivery,omitempty"`
}

// ShipmentRequest is the transient input to rate shopping and booking.
type ShipmentRequest struct {
	From        Address         `json:"from"`
	To          Address         `json:"to"`
	Packages    []PackageSpec   `json:"packages"`
	ServiceType string          `json:"service_type,omitempty"`
	Options     ShipmentOptions `json:"options,omitempty"`
}

func (r *ShipmentRequest) TotalWeightLbs() float64 {
	var total float64
	for _, p := range r.Packages {
		total += p.WeightLbs
	}
	return total
}

func (r *ShipmentRequest) TotalDeclaredValue() float64 {
	var total float64
	for _, p := range r.Packages {
		if p.DeclaredValue != nil {
			total += *p.DeclaredValue
		}
	}
	return total
}
