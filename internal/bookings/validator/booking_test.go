package validator

import (
	"strings"
	"testing"
	"time"

	"hostkeep/pkg/logger"
	"hostkeep/pkg/model"
)

func testValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	}))
}

func validBooking() *model.Booking {
	return &model.Booking{
		PropertyID: "64a0b1c2d3e4f5a6b7c8d9e0",
		StartDate:  time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		Source:     model.SourceDirect,
	}
}

func TestValidateBooking(t *testing.T) {
	v := testValidator()

	if err := v.Validate(validBooking()); err != nil {
		t.Errorf("valid booking rejected: %v", err)
	}
}

func TestValidateBooking_EndBeforeStart(t *testing.T) {
	v := testValidator()

	b := validBooking()
	b.StartDate = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	b.EndDate = time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)

	err := v.Validate(b)
	if err == nil {
		t.Fatal("expected an error when end precedes start")
	}
	if !strings.Contains(err.Error(), "end_date must be after start_date") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateBooking_ZeroLengthStay(t *testing.T) {
	v := testValidator()

	b := validBooking()
	b.EndDate = b.StartDate

	if err := v.Validate(b); err == nil {
		t.Error("expected an error when end equals start")
	}
}

func TestValidateBooking_MissingFields(t *testing.T) {
	v := testValidator()

	cases := []struct {
		name   string
		mutate func(*model.Booking)
	}{
		{"missing property", func(b *model.Booking) { b.PropertyID = "" }},
		{"missing start", func(b *model.Booking) { b.StartDate = time.Time{} }},
		{"missing end", func(b *model.Booking) { b.EndDate = time.Time{} }},
		{"missing source", func(b *model.Booking) { b.Source = "" }},
		{"malformed property id", func(b *model.Booking) { b.PropertyID = "not-an-object-id" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBooking()
			tc.mutate(b)
			if err := v.Validate(b); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
