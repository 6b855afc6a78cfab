package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingStep is the furthest step of the booking wizard a draft has reached.
type BookingStep int

const (
	StepStart BookingStep = iota
	StepStations
	StepTrip
	StepPassengers
	StepBooked
	StepConfirmed
)

const MaxPassengers = 10

var ErrWizardStep = errors.New("booking step out of order")

// BookingDraft is the in-progress state of the booking wizard for one user.
type BookingDraft struct {
	UserID      uuid.UUID   `json:"user_id"`
	Step        BookingStep `json:"step"`
	Origin      string      `json:"origin,omitempty"`
	Destination string      `json:"destination,omitempty"`
	TravelDate  string      `json:"travel_date,omitempty"` // YYYY-MM-DD
	TripID      uuid.UUID   `json:"trip_id"`
	Passengers  int         `json:"passengers"`
	TicketID    uuid.UUID   `json:"ticket_id"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

const DateLayout = "2006-01-02"

// SelectStations starts the wizard over with a new origin/destination pair.
func (d *BookingDraft) SelectStations(origin, destination, travelDate string, now time.Time) error {
	if d.Step >= StepBooked && d.Step < StepConfirmed {
		return ErrWizardStep
	}
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if err := required("origin", origin); err != nil {
		return err
	}
	if err := required("destination", destination); err != nil {
		return err
	}
	if strings.EqualFold(origin, destination) {
		return invalid("destination", "must differ from origin")
	}
	day, err := time.Parse(DateLayout, travelDate)
	if err != nil {
		return invalid("travel_date", "must be YYYY-MM-DD")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return invalid("travel_date", "is in the past")
	}

	*d = BookingDraft{
		UserID:      d.UserID,
		Step:        StepStations,
		Origin:      origin,
		Destination: destination,
		TravelDate:  travelDate,
		UpdatedAt:   now,
	}
	return nil
}

func (d *BookingDraft) SelectTrip(tripID uuid.UUID, now time.Time) error {
	if d.Step < StepStations || d.Step >= StepBooked {
		return ErrWizardStep
	}
	if tripID == uuid.Nil {
		return invalid("trip_id", "is required")
	}
	d.TripID = tripID
	d.Passengers = 0
	d.Step = StepTrip
	d.UpdatedAt = now
	return nil
}

func (d *BookingDraft) SetPassengers(n int, now time.Time) error {
	if d.Step < StepTrip || d.Step >= StepBooked {
		return ErrWizardStep
	}
	if n < 1 || n > MaxPassengers {
		return invalid("passengers", "must be between 1 and 10")
	}
	d.Passengers = n
	d.Step = StepPassengers
	d.UpdatedAt = now
	return nil
}

func (d *BookingDraft) MarkBooked(ticketID uuid.UUID, now time.Time) error {
	if d.Step != StepPassengers {
		return ErrWizardStep
	}
	d.TicketID = ticketID
	d.Step = StepBooked
	d.UpdatedAt = now
	return nil
}

func (d *BookingDraft) MarkConfirmed(now time.Time) error {
	if d.Step != StepBooked {
		return ErrWizardStep
	}
	d.Step = StepConfirmed
	d.UpdatedAt = now
	return nil
}
