package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a caller touches a resource it does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrPermissionDenied is returned when the caller lacks a required permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrConflict covers idempotency replays and lost optimistic-lock races.
	ErrConflict = errors.New("conflict")
)

// ValidationError rejects a malformed request before any external call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// CarrierUnavailableError means the requested carrier is not registered.
type CarrierUnavailableError struct {
	Carrier string
}

func (e *CarrierUnavailableError) Error() string {
	return fmt.Sprintf("carrier %q not available", e.Carrier)
}

// CarrierCallError wraps a network/remote failure from one carrier call. In
// a rate fan-out these are collected per (carrier, service), never fatal for
// sibling calls.
type CarrierCallError struct {
	Carrier string
	Service string
	Err     error
}

func (e *CarrierCallError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s/%s: %v", e.Carrier, e.Service, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Carrier, e.Err)
}

func (e *CarrierCallError) Unwrap() error { return e.Err }

// RateMismatchError rejects booking against a quote that was issued for a
// different carrier or service.
type RateMismatchError struct {
	Carrier      string
	ServiceType  string
	QuoteCarrier string
	QuoteService string
}

func (e *RateMismatchError) Error() string {
	return fmt.Sprintf("rate quote is for %s/%s, not %s/%s",
		e.QuoteCarrier, e.QuoteService, e.Carrier, e.ServiceType)
}

// BookingFailedError means the adapter reported a failure creating the
// shipment; nothing was persisted.
type BookingFailedError struct {
	Carrier string
	Err     error
}

func (e *BookingFailedError) Error() string {
	return fmt.Sprintf("booking with %s failed: %v", e.Carrier, e.Err)
}

func (e *BookingFailedError) Unwrap() error { return e.Err }

// CancelFailedError means the carrier did not confirm cancellation; local
// status is left unchanged.
type CancelFailedError struct {
	Carrier        string
	TrackingNumber string
}

func (e *CancelFailedError) Error() string {
	return fmt.Sprintf("carrier %s did not confirm cancellation of %s", e.Carrier, e.TrackingNumber)
}

// NotCancellableError rejects cancellation of a terminal shipment before any
// external call is made.
type NotCancellableError struct {
	TrackingNumber string
	Status         ShipmentStatus
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("shipment %s is %s and cannot be cancelled", e.TrackingNumber, e.Status)
}
