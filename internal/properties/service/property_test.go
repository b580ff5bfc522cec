package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	propertieserrors "hostkeep/internal/properties/errors"
	"hostkeep/internal/properties/validator"
	"hostkeep/pkg/config"
	mongotx "hostkeep/pkg/db/mongo"
	apperrors "hostkeep/pkg/errors"
	"hostkeep/pkg/logger"
	"hostkeep/pkg/model"
)

const (
	ownerID      = "64b0c1d2e3f4a5b6c7d8e9f0"
	otherOwnerID = "64b0c1d2e3f4a5b6c7d8e9f1"
	propertyID   = "64a0b1c2d3e4f5a6b7c8d9e0"
)

type mockPropertyRepo struct {
	findByIDFunc     func(ctx context.Context, id string) (*model.Property, error)
	createFunc       func(ctx context.Context, p *model.Property) error
	findByOwnerFunc  func(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Property, error)
	countByOwnerFunc func(ctx context.Context, ownerID string) (int64, error)
	updateFunc       func(ctx context.Context, id string, p *model.Property) error
	deleteFunc       func(ctx context.Context, id string) error

	deleteCalls        []string
	deleteRelatedCalls []string
	txCalls            int
}

func (m *mockPropertyRepo) Create(ctx context.Context, p *model.Property) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	p.ID = propertyID
	return nil
}

func (m *mockPropertyRepo) FindByID(ctx context.Context, id string) (*model.Property, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", propertieserrors.ErrNotFound, id)
}

func (m *mockPropertyRepo) FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Property, error) {
	if m.findByOwnerFunc != nil {
		return m.findByOwnerFunc(ctx, ownerID, limit, offset)
	}
	return nil, nil
}

func (m *mockPropertyRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	if m.countByOwnerFunc != nil {
		return m.countByOwnerFunc(ctx, ownerID)
	}
	return 0, nil
}

func (m *mockPropertyRepo) Update(ctx context.Context, id string, p *model.Property) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, p)
	}
	return nil
}

func (m *mockPropertyRepo) Delete(ctx context.Context, id string) error {
	m.deleteCalls = append(m.deleteCalls, id)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockPropertyRepo) DeleteRelated(ctx context.Context, propertyID string) error {
	m.deleteRelatedCalls = append(m.deleteRelatedCalls, propertyID)
	return nil
}

func (m *mockPropertyRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.txCalls++
	return fn(nil)
}

func testConfig(cascade bool) *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		ReadTimeout:   5 * time.Second,
		CascadeDelete: cascade,
	}
}

func newTestService(repo *mockPropertyRepo, cascade bool) PropertyService {
	cfg := testConfig(cascade)
	return NewPropertyService(repo, validator.NewPropertyValidator(cfg.Log), cfg)
}

func ownedRepo() *mockPropertyRepo {
	return &mockPropertyRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			if id != propertyID {
				return nil, fmt.Errorf("%w: %s", propertieserrors.ErrNotFound, id)
			}
			return &model.Property{
				ID:      propertyID,
				OwnerID: ownerID,
				Name:    "Seaside Flat",
				Address: "12 Harbour Road",
			}, nil
		},
	}
}

func TestCreateProperty(t *testing.T) {
	repo := &mockPropertyRepo{}
	svc := newTestService(repo, false)

	p := &model.Property{
		Name:        "  Seaside   Flat  ",
		Address:     "12 Harbour Road",
		CalendarURL: "https://calendar.example.com/feed.ics",
	}
	if err := svc.Create(context.Background(), ownerID, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.OwnerID != ownerID {
		t.Errorf("owner not assigned: %q", p.OwnerID)
	}
	if p.Name != "Seaside Flat" {
		t.Errorf("name not normalized: %q", p.Name)
	}
}

func TestCreateProperty_ValidationFailure(t *testing.T) {
	svc := newTestService(&mockPropertyRepo{}, false)

	err := svc.Create(context.Background(), ownerID, &model.Property{Name: "X"})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateProperty_MissingOwner(t *testing.T) {
	svc := newTestService(&mockPropertyRepo{}, false)

	err := svc.Create(context.Background(), "", &model.Property{Name: "Flat", Address: "Somewhere"})
	if err == nil {
		t.Fatal("expected an error for missing owner")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeUnauthorized {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestGetByID_HidesForeignProperty(t *testing.T) {
	svc := newTestService(ownedRepo(), false)

	_, err := svc.GetByID(context.Background(), otherOwnerID, propertyID)
	if err == nil {
		t.Fatal("expected an error for foreign property")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("foreign property must look like not found, got %v", err)
	}
}

func TestGetByID_OwnProperty(t *testing.T) {
	svc := newTestService(ownedRepo(), false)

	p, err := svc.GetByID(context.Background(), ownerID, propertyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Seaside Flat" {
		t.Errorf("unexpected property: %+v", p)
	}
}

func TestGetAll(t *testing.T) {
	repo := ownedRepo()
	repo.countByOwnerFunc = func(ctx context.Context, owner string) (int64, error) {
		return 3, nil
	}
	repo.findByOwnerFunc = func(ctx context.Context, owner string, limit int, offset int64) ([]*model.Property, error) {
		return []*model.Property{{ID: propertyID, OwnerID: owner, Name: "Seaside Flat"}}, nil
	}
	svc := newTestService(repo, false)

	properties, count, err := svc.GetAll(context.Background(), ownerID, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	if len(properties) != 1 {
		t.Errorf("expected 1 property in page, got %d", len(properties))
	}
}

func TestUpdateProperty_DetachesFeed(t *testing.T) {
	repo := ownedRepo()
	var updated *model.Property
	repo.updateFunc = func(ctx context.Context, id string, p *model.Property) error {
		updated = p
		return nil
	}
	svc := newTestService(repo, false)

	empty := ""
	merged, err := svc.Update(context.Background(), ownerID, propertyID, &model.PropertyUpdate{CalendarURL: &empty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.CalendarURL != "" {
		t.Errorf("expected feed detached, got %q", merged.CalendarURL)
	}
	if updated == nil {
		t.Fatal("repository update not called")
	}
	if updated.OwnerID != ownerID || updated.ID != propertyID {
		t.Errorf("identity fields must survive the merge: %+v", updated)
	}
}

func TestDeleteProperty_NoCascade(t *testing.T) {
	repo := ownedRepo()
	svc := newTestService(repo, false)

	if err := svc.Delete(context.Background(), ownerID, propertyID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.txCalls != 0 {
		t.Errorf("no transaction expected without cascade, got %d", repo.txCalls)
	}
	if len(repo.deleteRelatedCalls) != 0 {
		t.Errorf("related rows must not be touched without cascade")
	}
	if len(repo.deleteCalls) != 1 {
		t.Errorf("expected one delete call, got %d", len(repo.deleteCalls))
	}
}

func TestDeleteProperty_Cascade(t *testing.T) {
	repo := ownedRepo()
	svc := newTestService(repo, true)

	if err := svc.Delete(context.Background(), ownerID, propertyID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.txCalls != 1 {
		t.Errorf("expected a transaction for cascade delete, got %d", repo.txCalls)
	}
	if len(repo.deleteRelatedCalls) != 1 || repo.deleteRelatedCalls[0] != propertyID {
		t.Errorf("expected related rows deleted for %s, got %v", propertyID, repo.deleteRelatedCalls)
	}
	if len(repo.deleteCalls) != 1 {
		t.Errorf("expected one delete call, got %d", len(repo.deleteCalls))
	}
}

func TestDeleteProperty_Foreign(t *testing.T) {
	repo := ownedRepo()
	svc := newTestService(repo, true)

	err := svc.Delete(context.Background(), otherOwnerID, propertyID)
	if err == nil {
		t.Fatal("expected an error for foreign property")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("expected not found, got %v", err)
	}
	if len(repo.deleteCalls) != 0 || repo.txCalls != 0 {
		t.Error("nothing may be deleted for a foreign property")
	}
}
