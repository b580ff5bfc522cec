package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "hostkeep/internal/bookings/errors"
	"hostkeep/internal/bookings/repository"
	"hostkeep/internal/bookings/validator"
	propertieserrors "hostkeep/internal/properties/errors"
	"hostkeep/pkg/config"
	apperrors "hostkeep/pkg/errors"
	"hostkeep/pkg/model"
	"hostkeep/pkg/sanitizer"
)

// PropertyStore is the slice of the property repository this service needs
// for ownership checks.
type PropertyStore interface {
	FindByID(ctx context.Context, id string) (*model.Property, error)
}

type BookingService interface {
	Create(ctx context.Context, ownerID string, propertyID string, b *model.Booking) error
	GetByProperty(ctx context.Context, ownerID string, propertyID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Delete(ctx context.Context, ownerID string, id string) error
}

type bookingService struct {
	repo       repository.BookingRepository
	properties PropertyStore
	validator  *validator.BookingValidator
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	properties PropertyStore,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		properties: properties,
		validator:  validator,
		cfg:        cfg,
	}
}

// checkOwnership resolves the property and hides foreign properties behind
// not-found.
func (s *bookingService) checkOwnership(ctx context.Context, ownerID string, propertyID string) (*model.Property, error) {
	if propertyID == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	p, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", propertyID)
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid property ID format")
		}
		s.cfg.Log.Error("Failed to resolve property", "property_id", propertyID, "error", err)
		return nil, apperrors.Internal("Failed to resolve property", err)
	}
	if p.OwnerID != ownerID {
		return nil, apperrors.NotFoundWithID("Property", propertyID)
	}
	return p, nil
}

func (s *bookingService) Create(ctx context.Context, ownerID string, propertyID string, b *model.Booking) error {
	if _, err := s.checkOwnership(ctx, ownerID, propertyID); err != nil {
		return err
	}

	b.PropertyID = propertyID
	b.Source = sanitizer.TrimAndNormalize(b.Source)
	if b.Source == "" {
		b.Source = model.SourceDirect
	}
	// Booking dates carry date-only semantics.
	b.StartDate = b.StartDate.UTC().Truncate(24 * time.Hour)
	b.EndDate = b.EndDate.UTC().Truncate(24 * time.Hour)

	if err := s.validator.Validate(b); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"property_id", propertyID,
			"error", err,
		)
		return apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, b); err != nil {
		if errors.Is(err, bookingserrors.ErrDuplicateExternalUID) {
			return apperrors.Conflict("Booking with this external UID already exists")
		}
		s.cfg.Log.Error("Failed to create booking",
			"property_id", propertyID,
			"error", err,
		)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", b.ID,
		"property_id", propertyID,
		"source", b.Source,
	)
	return nil
}

func (s *bookingService) GetByProperty(ctx context.Context, ownerID string, propertyID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if _, err := s.checkOwnership(ctx, ownerID, propertyID); err != nil {
		return nil, 0, err
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByProperty(sharedCtx, propertyID)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "property_id", propertyID, "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByProperty(sharedCtx, propertyID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"property_id", propertyID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

func (s *bookingService) Delete(ctx context.Context, ownerID string, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to get booking", "id", id, "error", err)
		return apperrors.Internal("Failed to retrieve booking", err)
	}

	if _, err := s.checkOwnership(ctx, ownerID, b.PropertyID); err != nil {
		// Hide the booking itself, not just its property.
		return apperrors.NotFoundWithID("Booking", id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		return apperrors.Internal("Failed to delete booking", err)
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}
