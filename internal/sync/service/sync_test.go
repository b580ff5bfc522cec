package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	bookingserrors "hostkeep/internal/bookings/errors"
	propertieserrors "hostkeep/internal/properties/errors"
	"hostkeep/pkg/config"
	mongotx "hostkeep/pkg/db/mongo"
	apperrors "hostkeep/pkg/errors"
	"hostkeep/pkg/logger"
	"hostkeep/pkg/model"
)

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		CalendarFetchTimeout: 5 * time.Second,
	}
}

type mockPropertyStore struct {
	properties map[string]*model.Property
}

func (m *mockPropertyStore) FindByID(ctx context.Context, id string) (*model.Property, error) {
	if p, ok := m.properties[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", propertieserrors.ErrNotFound, id)
}

type mockBookingStore struct {
	byUID      map[string]*model.Booking
	created    []*model.Booking
	createErr  error
	nextID     int
	findErr    error
	txOverride func(fn mongotx.TransactionFunc) error
}

func newMockBookingStore() *mockBookingStore {
	return &mockBookingStore{byUID: make(map[string]*model.Booking)}
}

func (m *mockBookingStore) Create(ctx context.Context, b *model.Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.byUID[b.ExternalUID]; exists {
		return fmt.Errorf("%w: %s", bookingserrors.ErrDuplicateExternalUID, b.ExternalUID)
	}
	m.nextID++
	b.ID = fmt.Sprintf("booking-%d", m.nextID)
	m.byUID[b.ExternalUID] = b
	m.created = append(m.created, b)
	return nil
}

func (m *mockBookingStore) FindByExternalUID(ctx context.Context, externalUID string) (*model.Booking, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if b, ok := m.byUID[externalUID]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: external_uid %s", bookingserrors.ErrNotFound, externalUID)
}

func (m *mockBookingStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.txOverride != nil {
		return m.txOverride(fn)
	}
	return fn(nil)
}

type mockTaskStore struct {
	created   []*model.Task
	failAfter int // fail once this many tasks exist; 0 means never fail
}

func (m *mockTaskStore) Create(ctx context.Context, t *model.Task) error {
	if m.failAfter > 0 && len(m.created) >= m.failAfter {
		return errors.New("task insert failed")
	}
	m.created = append(m.created, t)
	return nil
}

type mockFetcher struct {
	events []model.CalendarEvent
	err    error
	calls  int
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]model.CalendarEvent, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func date(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func feedEvent(uid string, start, end time.Time) model.CalendarEvent {
	return model.CalendarEvent{
		UID:     uid,
		Kind:    "VEVENT",
		Summary: "Reserved",
		Start:   start,
		End:     end,
	}
}

func newTestService(props *mockPropertyStore, bookings *mockBookingStore, tasks *mockTaskStore, fetcher *mockFetcher) SyncService {
	return NewSyncService(props, bookings, tasks, fetcher, nil, testConfig())
}

func ownedProperty() *mockPropertyStore {
	return &mockPropertyStore{properties: map[string]*model.Property{
		"prop-1": {
			ID:          "prop-1",
			OwnerID:     "user-1",
			Name:        "Seaside Flat",
			CalendarURL: "https://calendar.example.com/feed.ics",
		},
	}}
}

func TestSync_ImportsNewEvents(t *testing.T) {
	bookings := newMockBookingStore()
	tasks := &mockTaskStore{}
	fetcher := &mockFetcher{events: []model.CalendarEvent{
		feedEvent("uid-1", date(2024, 6, 7), date(2024, 6, 10)),
		feedEvent("uid-2", date(2024, 7, 1), date(2024, 7, 4)),
	}}

	svc := newTestService(ownedProperty(), bookings, tasks, fetcher)

	result, err := svc.Sync(context.Background(), "user-1", "prop-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.NewBookings != 2 || result.NewTasks != 2 {
		t.Fatalf("expected 2 bookings and 2 tasks, got %d/%d", result.NewBookings, result.NewTasks)
	}

	b := bookings.created[0]
	if b.Source != model.SourceICal {
		t.Errorf("expected source %q, got %q", model.SourceICal, b.Source)
	}
	if b.ExternalUID != "uid-1" {
		t.Errorf("expected external UID uid-1, got %q", b.ExternalUID)
	}
	if !b.StartDate.Equal(date(2024, 6, 7)) || !b.EndDate.Equal(date(2024, 6, 10)) {
		t.Errorf("unexpected booking dates: %v - %v", b.StartDate, b.EndDate)
	}

	task := tasks.created[0]
	if task.Title != "Cleaning after checkout" {
		t.Errorf("unexpected task title: %q", task.Title)
	}
	if task.Status != model.StatusOpen {
		t.Errorf("expected status %q, got %q", model.StatusOpen, task.Status)
	}
	if task.BookingID != b.ID {
		t.Errorf("task not linked to booking: %q != %q", task.BookingID, b.ID)
	}
	if task.DueDate == nil || !task.DueDate.Equal(date(2024, 6, 11)) {
		t.Errorf("expected due date 2024-06-11, got %v", task.DueDate)
	}
}

func TestSync_TruncatesDatesToUTCMidnight(t *testing.T) {
	bookings := newMockBookingStore()
	tasks := &mockTaskStore{}
	fetcher := &mockFetcher{events: []model.CalendarEvent{
		feedEvent("uid-1",
			time.Date(2024, 6, 7, 15, 30, 0, 0, time.UTC),
			time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC),
		),
	}}

	svc := newTestService(ownedProperty(), bookings, tasks, fetcher)

	if _, err := svc.Sync(context.Background(), "user-1", "prop-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := bookings.created[0]
	if !b.StartDate.Equal(date(2024, 6, 7)) {
		t.Errorf("start date not truncated: %v", b.StartDate)
	}
	if !b.EndDate.Equal(date(2024, 6, 10)) {
		t.Errorf("end date not truncated: %v", b.EndDate)
	}
	if tasks.created[0].DueDate == nil || !tasks.created[0].DueDate.Equal(date(2024, 6, 11)) {
		t.Errorf("due date not derived from truncated checkout: %v", tasks.created[0].DueDate)
	}
}

func TestSync_SecondPassImportsNothing(t *testing.T) {
	bookings := newMockBookingStore()
	tasks := &mockTaskStore{}
	fetcher := &mockFetcher{events: []model.CalendarEvent{
		feedEvent("uid-1", date(2024, 6, 7), date(2024, 6, 10)),
		feedEvent("uid-2", date(2024, 7, 1), date(2024, 7, 4)),
	}}

	svc := newTestService(ownedProperty(), bookings, tasks, fetcher)

	first, err := svc.Sync(context.Background(), "user-1", "prop-1")
	if err != nil {
		t.Fatalf("unexpected error on first pass: %v", err)
	}
	if first.NewBookings != 2 {
		t.Fatalf("expected 2 new bookings on first pass, got %d", first.NewBookings)
	}

	second, err := svc.Sync(context.Background(), "user-1", "prop-1")
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}
	if second.NewBookings != 0 || second.NewTasks != 0 {
		t.Errorf("expected idempotent second pass, got %d/%d", second.NewBookings, second.NewTasks)
	}
	if len(bookings.created) != 2 || len(tasks.created) != 2 {
		t.Errorf("store grew on second pass: %d bookings, %d tasks", len(bookings.created), len(tasks.created))
	}
}

func TestSync_SkipsMalformedAndForeignComponents(t *testing.T) {
	bookings := newMockBookingStore()
	tasks := &mockTaskStore{}
	fetcher := &mockFetcher{events: []model.CalendarEvent{
		{Kind: "VEVENT", Start: date(2024, 6, 1), End: date(2024, 6, 3)},                 // no UID
		{Kind: "VEVENT", UID: "uid-no-start", End: date(2024, 6, 3)},                     // no start
		{Kind: "VEVENT", UID: "uid-no-end", Start: date(2024, 6, 1)},                     // no end
		{Kind: "VTODO", UID: "uid-todo", Start: date(2024, 6, 1), End: date(2024, 6, 3)}, // not an event
		feedEvent("uid-ok", date(2024, 6, 7), date(2024, 6, 10)),
	}}

	svc := newTestService(ownedProperty(), bookings, tasks, fetcher)

	result, err := svc.Sync(context.Background(), "user-1", "prop-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NewBookings != 1 || result.NewTasks != 1 {
		t.Errorf("expected only the valid event imported, got %d/%d", result.NewBookings, result.NewTasks)
	}
}

func TestSync_DuplicateUIDWithinFeedImportedOnce(t *testing.T) {
	bookings := newMockBookingStore()
	tasks := &mockTaskStore{}
	fetcher := &mockFetcher{events: []model.CalendarEvent{
		feedEvent("uid-1", date(2024, 6, 7), date(2024, 6, 10)),
		feedEvent("uid-1", date(2024, 6, 7), date(2024, 6, 10)),
	}}

	svc := newTestService(ownedProperty(), bookings, tasks, fetcher)

	result, err := svc.Sync(context.Background(), "user-1", "prop-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NewBookings != 1 {
		t.Errorf("expected 1 booking for duplicate UID, got %d", result.NewBookings)
	}
}

func TestSync_NoCalendarURLConfigured(t *testing.T) {
	props := &mockPropertyStore{properties: map[string]*model.Property{
		"prop-1": {ID: "prop-1", OwnerID: "user-1", Name: "No Feed"},
	}}
	bookings := newMockBookingStore()
	tasks := &mockTaskStore{}
	fetcher := &mockFetcher{}

	svc := newTestService(props, bookings, tasks, fetcher)

	_, err := svc.Sync(context.Background(), "user-1", "prop-1")
	if err == nil {
		t.Fatal("expected an error for missing calendar URL")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher should not be called, got %d calls", fetcher.calls)
	}
	if len(bookings.created) != 0 || len(tasks.created) != 0 {
		t.Error("no rows should be written when the feed is unconfigured")
	}
}

func TestSync_FetchFailureWritesNothing(t *testing.T) {
	bookings := newMockBookingStore()
	tasks := &mockTaskStore{}
	fetcher := &mockFetcher{err: errors.New("connection refused")}

	svc := newTestService(ownedProperty(), bookings, tasks, fetcher)

	_, err := svc.Sync(context.Background(), "user-1", "prop-1")
	if err == nil {
		t.Fatal("expected an error for a failed fetch")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUpstream {
		t.Errorf("expected code %s, got %s", apperrors.CodeUpstream, appErr.Code)
	}
	if len(bookings.created) != 0 || len(tasks.created) != 0 {
		t.Error("no rows should be written when the fetch fails")
	}
}

func TestSync_UnknownPropertyIsNotFound(t *testing.T) {
	svc := newTestService(ownedProperty(), newMockBookingStore(), &mockTaskStore{}, &mockFetcher{})

	_, err := svc.Sync(context.Background(), "user-1", "prop-missing")
	if err == nil {
		t.Fatal("expected an error for unknown property")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSync_ForeignPropertyIsHidden(t *testing.T) {
	svc := newTestService(ownedProperty(), newMockBookingStore(), &mockTaskStore{}, &mockFetcher{})

	_, err := svc.Sync(context.Background(), "user-2", "prop-1")
	if err == nil {
		t.Fatal("expected an error for foreign property")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("foreign property must look like not found, got code %s", appErr.Code)
	}
}

func TestSync_MidPassFailureKeepsEarlierImports(t *testing.T) {
	bookings := newMockBookingStore()
	tasks := &mockTaskStore{failAfter: 1}
	fetcher := &mockFetcher{events: []model.CalendarEvent{
		feedEvent("uid-1", date(2024, 6, 7), date(2024, 6, 10)),
		feedEvent("uid-2", date(2024, 7, 1), date(2024, 7, 4)),
	}}

	svc := newTestService(ownedProperty(), bookings, tasks, fetcher)

	_, err := svc.Sync(context.Background(), "user-1", "prop-1")
	if err == nil {
		t.Fatal("expected an error when the second import fails")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeInternal {
		t.Errorf("expected internal error, got %v", err)
	}

	if len(tasks.created) != 1 {
		t.Errorf("expected the first task to remain, got %d", len(tasks.created))
	}
}

func TestSync_ConcurrentDuplicateInsertTreatedAsSkip(t *testing.T) {
	bookings := newMockBookingStore()
	// Simulate another sync racing past the pre-check and inserting the UID
	// first: the insert itself reports a duplicate.
	bookings.createErr = fmt.Errorf("%w: uid-1", bookingserrors.ErrDuplicateExternalUID)
	tasks := &mockTaskStore{}
	fetcher := &mockFetcher{events: []model.CalendarEvent{
		feedEvent("uid-1", date(2024, 6, 7), date(2024, 6, 10)),
	}}

	svc := newTestService(ownedProperty(), bookings, tasks, fetcher)

	result, err := svc.Sync(context.Background(), "user-1", "prop-1")
	if err != nil {
		t.Fatalf("duplicate insert must not fail the pass: %v", err)
	}
	if result.NewBookings != 0 || result.NewTasks != 0 {
		t.Errorf("duplicate insert must not be counted, got %d/%d", result.NewBookings, result.NewTasks)
	}
	if len(tasks.created) != 0 {
		t.Errorf("no task should exist for a skipped event, got %d", len(tasks.created))
	}
}
