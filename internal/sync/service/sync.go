package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "hostkeep/internal/bookings/errors"
	propertieserrors "hostkeep/internal/properties/errors"
	"hostkeep/internal/sync/ical"
	"hostkeep/pkg/config"
	mongotx "hostkeep/pkg/db/mongo"
	apperrors "hostkeep/pkg/errors"
	"hostkeep/pkg/kafka"
	"hostkeep/pkg/model"
)

const (
	cleaningTaskTitle = "Cleaning after checkout"

	bookingImportedEventType = "booking.imported"
)

// PropertyStore resolves the property whose feed is being synced.
type PropertyStore interface {
	FindByID(ctx context.Context, id string) (*model.Property, error)
}

// BookingStore is the slice of the booking repository the reconciler needs.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	FindByExternalUID(ctx context.Context, externalUID string) (*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

// TaskStore creates the cleaning task derived from each imported booking.
type TaskStore interface {
	Create(ctx context.Context, t *model.Task) error
}

// EventPublisher is satisfied by *kafka.Producer. A nil publisher disables
// event emission.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type SyncService interface {
	Sync(ctx context.Context, ownerID string, propertyID string) (*model.SyncResult, error)
}

type syncService struct {
	properties PropertyStore
	bookings   BookingStore
	tasks      TaskStore
	fetcher    ical.Fetcher
	publisher  EventPublisher
	cfg        *config.Config
}

func NewSyncService(
	properties PropertyStore,
	bookings BookingStore,
	tasks TaskStore,
	fetcher ical.Fetcher,
	publisher EventPublisher,
	cfg *config.Config,
) SyncService {
	return &syncService{
		properties: properties,
		bookings:   bookings,
		tasks:      tasks,
		fetcher:    fetcher,
		publisher:  publisher,
		cfg:        cfg,
	}
}

// Sync reconciles a property's calendar feed into bookings and cleaning
// tasks. Each unseen feed event becomes exactly one booking plus one task,
// inserted together; events already imported are skipped. The returned
// counts cover this pass only.
func (s *syncService) Sync(ctx context.Context, ownerID string, propertyID string) (*model.SyncResult, error) {
	p, err := s.resolveProperty(ctx, ownerID, propertyID)
	if err != nil {
		return nil, err
	}

	if p.CalendarURL == "" {
		return nil, apperrors.InvalidInput("No iCal URL configured for this property")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.CalendarFetchTimeout)
	defer cancel()

	events, err := s.fetcher.Fetch(fetchCtx, p.CalendarURL)
	if err != nil {
		s.cfg.Log.Warn("Calendar feed fetch failed",
			"property_id", propertyID,
			"url", p.CalendarURL,
			"error", err,
		)
		return nil, apperrors.Upstream("Failed to fetch calendar feed", err)
	}

	result := &model.SyncResult{}
	for _, event := range events {
		imported, err := s.importEvent(ctx, p, event)
		if err != nil {
			// Earlier imports from this pass stay committed.
			s.cfg.Log.Error("Calendar sync aborted mid-pass",
				"property_id", propertyID,
				"event_uid", event.UID,
				"new_bookings", result.NewBookings,
				"error", err,
			)
			return nil, err
		}
		if imported {
			result.NewBookings++
			result.NewTasks++
		}
	}

	s.cfg.Log.Info("Calendar sync completed",
		"property_id", propertyID,
		"events", len(events),
		"new_bookings", result.NewBookings,
		"new_tasks", result.NewTasks,
	)
	return result, nil
}

func (s *syncService) resolveProperty(ctx context.Context, ownerID string, propertyID string) (*model.Property, error) {
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

// importEvent inserts one feed event. Returns false without error when the
// event is malformed or already imported.
func (s *syncService) importEvent(ctx context.Context, p *model.Property, event model.CalendarEvent) (bool, error) {
	if !event.Importable() {
		return false, nil
	}

	_, err := s.bookings.FindByExternalUID(ctx, event.UID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, bookingserrors.ErrNotFound) {
		return false, apperrors.Internal("Failed to check for existing booking", err)
	}

	startDate := event.Start.UTC().Truncate(24 * time.Hour)
	endDate := event.End.UTC().Truncate(24 * time.Hour)
	dueDate := endDate.Add(24 * time.Hour)

	booking := &model.Booking{
		PropertyID:  p.ID,
		StartDate:   startDate,
		EndDate:     endDate,
		Source:      model.SourceICal,
		ExternalUID: event.UID,
	}

	err = s.bookings.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.bookings.Create(sessCtx, booking); err != nil {
			return err
		}

		task := &model.Task{
			PropertyID: p.ID,
			BookingID:  booking.ID,
			Title:      cleaningTaskTitle,
			Status:     model.StatusOpen,
			DueDate:    &dueDate,
		}
		return s.tasks.Create(sessCtx, task)
	})
	if err != nil {
		// A concurrent sync inserted the same UID between the pre-check and
		// the insert. Same outcome as the pre-check hit: already imported.
		if errors.Is(err, bookingserrors.ErrDuplicateExternalUID) {
			return false, nil
		}
		return false, apperrors.Internal("Failed to import calendar event", err)
	}

	s.publishBookingImported(ctx, booking)
	return true, nil
}

// publishBookingImported emits a best-effort event. Failures are logged, not
// propagated: the import already committed.
func (s *syncService) publishBookingImported(ctx context.Context, booking *model.Booking) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.PropertyID).
		WithEventType(bookingImportedEventType).
		WithSource("hostkeep").
		WithSchemaVersion("1").
		WithValue(booking).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking.imported event",
			"booking_id", booking.ID,
			"property_id", booking.PropertyID,
			"error", err,
		)
	}
}
