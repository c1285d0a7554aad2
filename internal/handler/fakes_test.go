package handler

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/repository"
    "github.com/impulse-events/ticketing/internal/service"
    "github.com/impulse-events/ticketing/internal/suggest"
)

type stubEvents struct {
    events    map[uint64]*model.Event
    createErr error

    gotInput         service.EventInput
    gotStart, gotEnd *time.Time
    gotLimit         int
    gotPatch         model.EventPatch
}

func (s *stubEvents) Create(_ context.Context, in service.EventInput) (service.CreateEventResult, error) {
    s.gotInput = in
    if s.createErr != nil {
        return service.CreateEventResult{}, s.createErr
    }
    return service.CreateEventResult{Slug: "aB3dE9", EventID: 1}, nil
}

func (s *stubEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
    if e, ok := s.events[id]; ok {
        return e, nil
    }
    return nil, repository.ErrNotFound
}

func (s *stubEvents) GetBySlug(_ context.Context, slug string) (*model.Event, error) {
    for _, e := range s.events {
        if e.Slug == slug {
            return e, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (s *stubEvents) Resolve(ctx context.Context, slug string) (string, error) {
    e, err := s.GetBySlug(ctx, slug)
    if err != nil {
        return "", err
    }
    return e.LongURL, nil
}

func (s *stubEvents) ListBetween(_ context.Context, start, end *time.Time, limit int) ([]model.Event, error) {
    s.gotStart, s.gotEnd, s.gotLimit = start, end, limit
    return []model.Event{}, nil
}

func (s *stubEvents) ListAll(context.Context) ([]model.Event, error) {
    return nil, errors.New("connection reset")
}

func (s *stubEvents) Update(_ context.Context, id uint64, patch model.EventPatch) (*model.Event, error) {
    s.gotPatch = patch
    e, ok := s.events[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    if patch.Name != nil {
        e.Name = *patch.Name
    }
    return e, nil
}

type stubBroadcasts struct{}

func (stubBroadcasts) SendEventReminder(_ context.Context, id uint64) (service.ReminderResult, error) {
    if id != 1 {
        return service.ReminderResult{}, repository.ErrNotFound
    }
    return service.ReminderResult{Success: true, Recipients: []string{"a@x.io"}, Failed: []string{}}, nil
}

func (stubBroadcasts) SendEventCreatedBroadcast(_ context.Context, id uint64) (service.BroadcastResult, error) {
    return service.BroadcastResult{Success: true, RecipientCount: 3, FailedCount: 1}, nil
}

type stubOrders struct {
    err error
}

func (s stubOrders) Create(_ context.Context, in service.OrderInput) (service.CreateOrderResult, error) {
    if s.err != nil {
        return service.CreateOrderResult{}, s.err
    }
    return service.CreateOrderResult{OrderID: 7, QRCode: "qr", PaymentMethod: in.PaymentMethod, PeopleCount: in.PeopleCount}, nil
}

func (s stubOrders) Update(_ context.Context, id uint64, patch model.OrderPatch) (*model.Order, error) {
    if s.err != nil {
        return nil, s.err
    }
    o := &model.Order{ID: id}
    patch.Apply(o)
    return o, nil
}

type stubUsers struct {
    gotFilter model.UserFilter
    gotPatch  model.UserPatch
}

func (s *stubUsers) List(_ context.Context, f model.UserFilter) ([]model.User, error) {
    s.gotFilter = f
    if f.Status == "bogus" {
        return nil, &service.ValidationError{Field: "status", Reason: "must be active or deleted"}
    }
    return []model.User{{ID: 1, Email: "a@x.io"}}, nil
}

func (s *stubUsers) Update(_ context.Context, id uint64, patch model.UserPatch) (*model.User, error) {
    s.gotPatch = patch
    u := &model.User{ID: id}
    patch.Apply(u)
    return u, nil
}

func (s *stubUsers) UpdateProfile(ctx context.Context, id uint64, patch model.UserPatch) (*model.User, error) {
    patch.Role, patch.Status = nil, nil
    return s.Update(ctx, id, patch)
}

func (s *stubUsers) SoftDelete(_ context.Context, id uint64) (*model.User, error) {
    if id == 404 {
        return nil, repository.ErrNotFound
    }
    return &model.User{ID: id, Status: model.UserStatusDeleted}, nil
}

type stubSuggester struct {
    res suggest.Result
    err error
}

func (s stubSuggester) Suggest(context.Context, string) (suggest.Result, error) {
    return s.res, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, target, nil)
    } else {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}
