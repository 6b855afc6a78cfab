package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

// GetDraft returns the user's booking wizard state, or a fresh draft at the
// start step when none is stored.
func (s *Service) GetDraft(ctx context.Context, userID uuid.UUID) (*domain.BookingDraft, error) {
	const op = "service.booking.GetDraft"

	d, err := s.loadDraft(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return d, nil
}

func (s *Service) SelectStations(
	ctx context.Context,
	userID uuid.UUID,
	origin, destination, travelDate string,
) (*domain.BookingDraft, error) {
	const op = "service.booking.SelectStations"

	d, err := s.updateDraft(ctx, userID, func(d *domain.BookingDraft) error {
		return d.SelectStations(origin, destination, travelDate, s.now().UTC())
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return d, nil
}

// SelectTrip picks a trip for the stations and date chosen in the previous
// step.
//
// Returns:
//   - error: domain.ErrWizardStep if no stations were selected yet.
//   - error: booking.ErrTripMismatch if the trip does not fit the draft.
//   - error: booking.ErrNoSeats if the trip is full.
func (s *Service) SelectTrip(ctx context.Context, userID, tripID uuid.UUID) (*domain.BookingDraft, error) {
	const op = "service.booking.SelectTrip"

	d, err := s.updateDraft(ctx, userID, func(d *domain.BookingDraft) error {
		if d.Step < domain.StepStations {
			return domain.ErrWizardStep
		}

		trip, _, err := s.journey(ctx, tripID, d.Origin, d.Destination, d.TravelDate)
		if err != nil {
			return err
		}

		if trip.SeatsAvailable < 1 {
			return ErrNoSeats
		}

		return d.SelectTrip(trip.ID, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return d, nil
}

func (s *Service) SetPassengers(ctx context.Context, userID uuid.UUID, n int) (*domain.BookingDraft, error) {
	const op = "service.booking.SetPassengers"

	d, err := s.updateDraft(ctx, userID, func(d *domain.BookingDraft) error {
		if err := d.SetPassengers(n, s.now()); err != nil {
			return err
		}

		trip, err := s.catalog.GetTrip(ctx, d.TripID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTripNotFound
			}

			return err
		}

		if trip.SeatsAvailable < n {
			return ErrNoSeats
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return d, nil
}

// BookDraft books the ticket described by a completed draft. The draft then
// waits for the ticket to be paid.
func (s *Service) BookDraft(ctx context.Context, userID uuid.UUID) (*domain.Ticket, *domain.BookingDraft, error) {
	const op = "service.booking.BookDraft"

	d, err := s.loadDraft(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s:%w", op, err)
	}

	if d.Step != domain.StepPassengers {
		return nil, nil, fmt.Errorf("%s:%w", op, domain.ErrWizardStep)
	}

	t, err := s.BookTicket(ctx, BookTicketInput{
		UserID:      userID,
		TripID:      d.TripID,
		Origin:      d.Origin,
		Destination: d.Destination,
		TravelDate:  d.TravelDate,
		Passengers:  d.Passengers,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := d.MarkBooked(t.ID, s.now()); err != nil {
		return nil, nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, d, nil
}

// ConfirmDraft finishes the wizard once the booked ticket has a completed
// payment and clears the draft.
//
// Returns:
//   - error: booking.ErrPaymentRequired if the ticket is unpaid.
//   - error: domain.ErrWizardStep if no ticket was booked from the draft.
func (s *Service) ConfirmDraft(ctx context.Context, userID uuid.UUID) (*domain.Ticket, error) {
	const op = "service.booking.ConfirmDraft"

	d, err := s.loadDraft(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if d.Step != domain.StepBooked {
		return nil, fmt.Errorf("%s:%w", op, domain.ErrWizardStep)
	}

	if _, err := s.payments.CompletedForTicket(ctx, d.TicketID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrPaymentRequired)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	t, err := s.ownedTicket(ctx, userID, d.TicketID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := d.MarkConfirmed(s.now()); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.drafts.Delete(ctx, userID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

func (s *Service) ResetDraft(ctx context.Context, userID uuid.UUID) error {
	const op = "service.booking.ResetDraft"

	if err := s.drafts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) loadDraft(ctx context.Context, userID uuid.UUID) (*domain.BookingDraft, error) {
	d, ok, err := s.drafts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !ok {
		return &domain.BookingDraft{UserID: userID, Step: domain.StepStart, UpdatedAt: s.now()}, nil
	}

	return d, nil
}

func (s *Service) updateDraft(
	ctx context.Context,
	userID uuid.UUID,
	step func(d *domain.BookingDraft) error,
) (*domain.BookingDraft, error) {
	d, err := s.loadDraft(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := step(d); err != nil {
		return nil, err
	}

	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	return d, nil
}
