package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	propertieserrors "hostkeep/internal/properties/errors"
	"hostkeep/internal/properties/repository"
	"hostkeep/internal/properties/validator"
	"hostkeep/pkg/config"
	apperrors "hostkeep/pkg/errors"
	"hostkeep/pkg/model"
	"hostkeep/pkg/sanitizer"
)

type PropertyService interface {
	Create(ctx context.Context, ownerID string, p *model.Property) error
	GetByID(ctx context.Context, ownerID string, id string) (*model.Property, error)
	GetAll(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Property, int64, error)
	Update(ctx context.Context, ownerID string, id string, updates *model.PropertyUpdate) (*model.Property, error)
	Delete(ctx context.Context, ownerID string, id string) error
}

type propertyService struct {
	repo      repository.PropertyRepository
	validator *validator.PropertyValidator
	cfg       *config.Config
}

func NewPropertyService(
	repo repository.PropertyRepository,
	validator *validator.PropertyValidator,
	cfg *config.Config,
) PropertyService {
	return &propertyService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *propertyService) Create(ctx context.Context, ownerID string, p *model.Property) error {
	if ownerID == "" {
		return apperrors.Unauthorized("Missing authenticated user")
	}

	p.OwnerID = ownerID
	s.sanitize(p)

	if err := s.validator.Validate(p); err != nil {
		s.cfg.Log.Warn("Property validation failed",
			"name", p.Name,
			"owner_id", ownerID,
			"error", err,
		)
		return apperrors.Validation("Property validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.cfg.Log.Error("Failed to create property",
			"name", p.Name,
			"owner_id", ownerID,
			"error", err,
		)
		return apperrors.Internal("Failed to create property", err)
	}

	s.cfg.Log.Info("Property created successfully",
		"id", p.ID,
		"name", p.Name,
		"owner_id", ownerID,
	)
	return nil
}

// GetByID answers not-found for foreign properties so the API never reveals
// whether another tenant's id exists.
func (s *propertyService) GetByID(ctx context.Context, ownerID string, id string) (*model.Property, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", id)
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid property ID format")
		}
		s.cfg.Log.Error("Failed to get property by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve property", err)
	}

	if p.OwnerID != ownerID {
		return nil, apperrors.NotFoundWithID("Property", id)
	}

	return p, nil
}

func (s *propertyService) GetAll(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Property, int64, error) {
	if ownerID == "" {
		return nil, 0, apperrors.Unauthorized("Missing authenticated user")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var properties []*model.Property
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByOwner(sharedCtx, ownerID)
		if err != nil {
			s.cfg.Log.Error("Failed to count properties", "owner_id", ownerID, "error", err)
			errCount = apperrors.Internal("Failed to count properties", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		properties, err = s.repo.FindByOwner(sharedCtx, ownerID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list properties",
				"owner_id", ownerID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve properties", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return properties, count, nil
}

func (s *propertyService) Update(ctx context.Context, ownerID string, id string, updates *model.PropertyUpdate) (*model.Property, error) {
	existing, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	merged := s.mergePropertyUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Property validation failed",
			"id", id,
			"owner_id", ownerID,
			"error", err,
		)
		return nil, apperrors.Validation("Property validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", id)
		}
		s.cfg.Log.Error("Failed to update property", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update property", err)
	}

	s.cfg.Log.Info("Property updated successfully", "id", id, "name", merged.Name)
	return merged, nil
}

func (s *propertyService) Delete(ctx context.Context, ownerID string, id string) error {
	if _, err := s.GetByID(ctx, ownerID, id); err != nil {
		return err
	}

	if !s.cfg.CascadeDelete {
		if err := s.repo.Delete(ctx, id); err != nil {
			if errors.Is(err, propertieserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Property", id)
			}
			s.cfg.Log.Error("Failed to delete property", "id", id, "error", err)
			return apperrors.Internal("Failed to delete property", err)
		}
		s.cfg.Log.Info("Property deleted successfully", "id", id, "cascade", false)
		return nil
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.DeleteRelated(sessCtx, id); err != nil {
			return apperrors.Internal("Failed to delete property data", err)
		}
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, propertieserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Property", id)
			}
			return apperrors.Internal("Failed to delete property", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cascade delete property", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Property deleted successfully", "id", id, "cascade", true)
	return nil
}

func (s *propertyService) sanitize(p *model.Property) {
	p.Name = sanitizer.NormalizeName(p.Name)
	p.Address = sanitizer.NormalizeAddress(p.Address)
	p.ImageURL = sanitizer.TrimAndNormalize(p.ImageURL)
	p.CalendarURL = sanitizer.NormalizeCalendarURL(p.CalendarURL)
}

func (s *propertyService) mergePropertyUpdates(existing *model.Property, updates *model.PropertyUpdate) *model.Property {
	merged := *existing

	if updates.Name != nil {
		merged.Name = sanitizer.NormalizeName(*updates.Name)
	}
	if updates.Address != nil {
		merged.Address = sanitizer.NormalizeAddress(*updates.Address)
	}
	if updates.ImageURL != nil {
		merged.ImageURL = sanitizer.TrimAndNormalize(*updates.ImageURL)
	}
	if updates.CalendarURL != nil {
		// Empty string detaches the feed; anything else is normalized.
		merged.CalendarURL = sanitizer.NormalizeCalendarURL(*updates.CalendarURL)
	}

	merged.ID = existing.ID
	merged.OwnerID = existing.OwnerID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
