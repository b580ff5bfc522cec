package service

import (
	"context"
	"errors"
	"sync"

	propertieserrors "hostkeep/internal/properties/errors"
	taskserrors "hostkeep/internal/tasks/errors"
	"hostkeep/internal/tasks/repository"
	"hostkeep/internal/tasks/validator"
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

type TaskService interface {
	Create(ctx context.Context, ownerID string, propertyID string, t *model.Task) error
	GetByProperty(ctx context.Context, ownerID string, propertyID string, limit int, offset int64) ([]*model.Task, int64, error)
	Update(ctx context.Context, ownerID string, id string, updates *model.TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, ownerID string, id string) error
}

type taskService struct {
	repo       repository.TaskRepository
	properties PropertyStore
	validator  *validator.TaskValidator
	cfg        *config.Config
}

func NewTaskService(
	repo repository.TaskRepository,
	properties PropertyStore,
	validator *validator.TaskValidator,
	cfg *config.Config,
) TaskService {
	return &taskService{
		repo:       repo,
		properties: properties,
		validator:  validator,
		cfg:        cfg,
	}
}

func (s *taskService) checkOwnership(ctx context.Context, ownerID string, propertyID string) error {
	if propertyID == "" {
		return apperrors.InvalidInput("Property ID cannot be empty")
	}

	p, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Property", propertyID)
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid property ID format")
		}
		s.cfg.Log.Error("Failed to resolve property", "property_id", propertyID, "error", err)
		return apperrors.Internal("Failed to resolve property", err)
	}
	if p.OwnerID != ownerID {
		return apperrors.NotFoundWithID("Property", propertyID)
	}
	return nil
}

func (s *taskService) Create(ctx context.Context, ownerID string, propertyID string, t *model.Task) error {
	if err := s.checkOwnership(ctx, ownerID, propertyID); err != nil {
		return err
	}

	t.PropertyID = propertyID
	t.Title = sanitizer.NormalizeTitle(t.Title)
	t.Description = sanitizer.TrimAndNormalize(t.Description)
	if t.Status == "" {
		t.Status = model.StatusOpen
	}

	if err := s.validator.Validate(t); err != nil {
		s.cfg.Log.Warn("Task validation failed",
			"property_id", propertyID,
			"error", err,
		)
		return apperrors.Validation("Task validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.cfg.Log.Error("Failed to create task",
			"property_id", propertyID,
			"error", err,
		)
		return apperrors.Internal("Failed to create task", err)
	}

	s.cfg.Log.Info("Task created successfully",
		"id", t.ID,
		"property_id", propertyID,
		"status", t.Status,
	)
	return nil
}

func (s *taskService) GetByProperty(ctx context.Context, ownerID string, propertyID string, limit int, offset int64) ([]*model.Task, int64, error) {
	if err := s.checkOwnership(ctx, ownerID, propertyID); err != nil {
		return nil, 0, err
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var tasks []*model.Task
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByProperty(sharedCtx, propertyID)
		if err != nil {
			s.cfg.Log.Error("Failed to count tasks", "property_id", propertyID, "error", err)
			errCount = apperrors.Internal("Failed to count tasks", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		tasks, err = s.repo.FindByProperty(sharedCtx, propertyID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list tasks",
				"property_id", propertyID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve tasks", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return tasks, count, nil
}

func (s *taskService) getOwned(ctx context.Context, ownerID string, id string) (*model.Task, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Task ID cannot be empty")
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, taskserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Task", id)
		}
		if errors.Is(err, taskserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid task ID format")
		}
		s.cfg.Log.Error("Failed to get task", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve task", err)
	}

	if err := s.checkOwnership(ctx, ownerID, t.PropertyID); err != nil {
		return nil, apperrors.NotFoundWithID("Task", id)
	}
	return t, nil
}

func (s *taskService) Update(ctx context.Context, ownerID string, id string, updates *model.TaskUpdate) (*model.Task, error) {
	existing, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, apperrors.Validation("Task validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if updates.Title != nil {
		existing.Title = sanitizer.NormalizeTitle(*updates.Title)
	}
	if updates.Description != nil {
		existing.Description = sanitizer.TrimAndNormalize(*updates.Description)
	}
	if updates.Status != "" {
		existing.Status = updates.Status
	}
	if updates.DueDate != nil {
		existing.DueDate = updates.DueDate
	}

	if err := s.repo.Update(ctx, id, existing); err != nil {
		if errors.Is(err, taskserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Task", id)
		}
		s.cfg.Log.Error("Failed to update task", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update task", err)
	}

	s.cfg.Log.Info("Task updated successfully", "id", id, "status", existing.Status)
	return existing, nil
}

func (s *taskService) Delete(ctx context.Context, ownerID string, id string) error {
	if _, err := s.getOwned(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, taskserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Task", id)
		}
		s.cfg.Log.Error("Failed to delete task", "id", id, "error", err)
		return apperrors.Internal("Failed to delete task", err)
	}

	s.cfg.Log.Info("Task deleted successfully", "id", id)
	return nil
}
