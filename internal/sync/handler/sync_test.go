package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "hostkeep/pkg/errors"
	"hostkeep/pkg/logger"
	"hostkeep/pkg/middleware"
	"hostkeep/pkg/model"
)

type mockSyncService struct {
	syncFunc func(ctx context.Context, ownerID string, propertyID string) (*model.SyncResult, error)
}

func (m *mockSyncService) Sync(ctx context.Context, ownerID string, propertyID string) (*model.SyncResult, error) {
	return m.syncFunc(ctx, ownerID, propertyID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func syncRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/properties/64a0b1c2d3e4f5a6b7c8d9e0/sync", nil)
	if userID != "" {
		ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
		req = req.WithContext(ctx)
	}
	return req
}

func TestSyncHandler(t *testing.T) {
	t.Run("returns counts on success", func(t *testing.T) {
		svc := &mockSyncService{
			syncFunc: func(ctx context.Context, ownerID string, propertyID string) (*model.SyncResult, error) {
				if ownerID != "user-1" {
					t.Errorf("unexpected owner: %q", ownerID)
				}
				if propertyID != "64a0b1c2d3e4f5a6b7c8d9e0" {
					t.Errorf("unexpected property id: %q", propertyID)
				}
				return &model.SyncResult{NewBookings: 3, NewTasks: 3}, nil
			},
		}
		h := NewSyncHandler(svc, testLogger())
		router := httprouter.New()
		h.RegisterRoutes(router)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, syncRequest("user-1"))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var result model.SyncResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.NewBookings != 3 || result.NewTasks != 3 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("rejects unauthenticated requests", func(t *testing.T) {
		svc := &mockSyncService{
			syncFunc: func(ctx context.Context, ownerID string, propertyID string) (*model.SyncResult, error) {
				t.Error("service must not be called without a user")
				return nil, nil
			},
		}
		h := NewSyncHandler(svc, testLogger())
		router := httprouter.New()
		h.RegisterRoutes(router)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, syncRequest(""))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("maps missing feed to 400", func(t *testing.T) {
		svc := &mockSyncService{
			syncFunc: func(ctx context.Context, ownerID string, propertyID string) (*model.SyncResult, error) {
				return nil, apperrors.InvalidInput("No iCal URL configured for this property")
			},
		}
		h := NewSyncHandler(svc, testLogger())
		router := httprouter.New()
		h.RegisterRoutes(router)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, syncRequest("user-1"))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}

		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body["error"] != "No iCal URL configured for this property" {
			t.Errorf("unexpected error message: %v", body["error"])
		}
	})

	t.Run("maps fetch failure to 502", func(t *testing.T) {
		svc := &mockSyncService{
			syncFunc: func(ctx context.Context, ownerID string, propertyID string) (*model.SyncResult, error) {
				return nil, apperrors.Upstream("Failed to fetch calendar feed", context.DeadlineExceeded)
			},
		}
		h := NewSyncHandler(svc, testLogger())
		router := httprouter.New()
		h.RegisterRoutes(router)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, syncRequest("user-1"))

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("maps unknown property to 404", func(t *testing.T) {
		svc := &mockSyncService{
			syncFunc: func(ctx context.Context, ownerID string, propertyID string) (*model.SyncResult, error) {
				return nil, apperrors.NotFoundWithID("Property", propertyID)
			},
		}
		h := NewSyncHandler(svc, testLogger())
		router := httprouter.New()
		h.RegisterRoutes(router)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, syncRequest("user-1"))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
