package service

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/notify"
    "github.com/impulse-events/ticketing/internal/repository"
)

type memEvents struct {
    mu         sync.Mutex
    byID       map[uint64]model.Event
    nextID     uint64
    collisions int // number of upcoming Create calls to reject as duplicates
    creates    int
}

func newMemEvents() *memEvents {
    return &memEvents{byID: map[uint64]model.Event{}, nextID: 1}
}

func (m *memEvents) Create(_ context.Context, e *model.Event) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.creates++
    if m.collisions > 0 {
        m.collisions--
        return repository.ErrDuplicateKey
    }
    for _, other := range m.byID {
        if other.Slug == e.Slug {
            return repository.ErrDuplicateKey
        }
    }
    e.ID = m.nextID
    m.nextID++
    m.byID[e.ID] = *e
    return nil
}

func (m *memEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    e, ok := m.byID[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    return &e, nil
}

func (m *memEvents) GetBySlug(_ context.Context, slug string) (*model.Event, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, e := range m.byID {
        if e.Slug == slug {
            return &e, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (m *memEvents) sorted() []model.Event {
    out := make([]model.Event, 0, len(m.byID))
    for _, e := range m.byID {
        out = append(out, e)
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].EventTime.Equal(out[j].EventTime) {
            return out[i].ID < out[j].ID
        }
        return out[i].EventTime.Before(out[j].EventTime)
    })
    return out
}

func (m *memEvents) ListBetween(_ context.Context, start, end time.Time, limit int) ([]model.Event, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Event{}
    for _, e := range m.sorted() {
        if e.EventTime.Before(start) || e.EventTime.After(end) {
            continue
        }
        if len(out) == limit {
            break
        }
        out = append(out, e)
    }
    return out, nil
}

func (m *memEvents) ListAll(_ context.Context) ([]model.Event, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.sorted(), nil
}

func (m *memEvents) Update(_ context.Context, id uint64, mutate func(*model.Event) error) (*model.Event, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    e, ok := m.byID[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    if err := mutate(&e); err != nil {
        return nil, err
    }
    m.byID[id] = e
    return &e, nil
}

type memOrders struct {
    mu     sync.Mutex
    byID   map[uint64]model.Order
    nextID uint64
}

func newMemOrders() *memOrders {
    return &memOrders{byID: map[uint64]model.Order{}, nextID: 1}
}

func (m *memOrders) Create(_ context.Context, o *model.Order) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    o.ID = m.nextID
    m.nextID++
    m.byID[o.ID] = *o
    return nil
}

func (m *memOrders) GetByID(_ context.Context, id uint64) (*model.Order, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    o, ok := m.byID[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    return &o, nil
}

func (m *memOrders) Update(_ context.Context, id uint64, mutate func(*model.Order) error) (*model.Order, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    o, ok := m.byID[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    if err := mutate(&o); err != nil {
        return nil, err
    }
    m.byID[id] = o
    return &o, nil
}

func (m *memOrders) EmailsForEvent(_ context.Context, eventID uint64) ([]string, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    seen := map[string]bool{}
    out := []string{}
    for id := uint64(1); id < m.nextID; id++ {
        o, ok := m.byID[id]
        if !ok || o.EventID != eventID || seen[o.Email] {
            continue
        }
        seen[o.Email] = true
        out = append(out, o.Email)
    }
    return out, nil
}

func (m *memOrders) count() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    return len(m.byID)
}

type memUsers struct {
    mu     sync.Mutex
    byID   map[uint64]model.User
    nextID uint64
    // raceEmail simulates another request inserting the same email between
    // lookup and insert.
    raceEmail string
}

func newMemUsers() *memUsers {
    return &memUsers{byID: map[uint64]model.User{}, nextID: 1}
}

func (m *memUsers) insert(u *model.User) {
    u.ID = m.nextID
    m.nextID++
    m.byID[u.ID] = *u
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if m.raceEmail != "" && m.raceEmail == u.Email {
        m.raceEmail = ""
        winner := model.User{Email: u.Email, Role: model.RoleUser, Status: model.UserStatusActive}
        m.insert(&winner)
        return repository.ErrDuplicateKey
    }
    for _, other := range m.byID {
        if other.Email == strings.ToLower(u.Email) {
            return repository.ErrDuplicateKey
        }
    }
    m.insert(u)
    return nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    u, ok := m.byID[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, u := range m.byID {
        if u.Email == strings.ToLower(email) {
            return &u, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (m *memUsers) List(_ context.Context, f model.UserFilter) ([]model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.User{}
    for id := uint64(1); id < m.nextID; id++ {
        u, ok := m.byID[id]
        if !ok || (f.Status != "" && u.Status != f.Status) {
            continue
        }
        out = append(out, u)
    }
    return out, nil
}

func (m *memUsers) Update(_ context.Context, id uint64, mutate func(*model.User) error) (*model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    u, ok := m.byID[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    if err := mutate(&u); err != nil {
        return nil, err
    }
    m.byID[id] = u
    return &u, nil
}

type notification struct {
    recipients []string
    msg        notify.Message
}

// fakeNotifier records calls synchronously.  Deliver fails for addresses
// listed in failFor.
type fakeNotifier struct {
    mu        sync.Mutex
    admins    []string
    notified  []notification
    delivered []notification
    failFor   map[string]bool
}

func (f *fakeNotifier) Admins() []string { return f.admins }

func (f *fakeNotifier) Notify(recipients []string, msg notify.Message) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.notified = append(f.notified, notification{recipients: recipients, msg: msg})
}

func (f *fakeNotifier) Deliver(_ context.Context, recipients []string, msg notify.Message) notify.Report {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.delivered = append(f.delivered, notification{recipients: recipients, msg: msg})
    rep := notify.Report{Sent: []string{}, Failed: []string{}}
    for _, r := range recipients {
        if f.failFor[r] {
            rep.Failed = append(rep.Failed, r)
            continue
        }
        rep.Sent = append(rep.Sent, r)
    }
    return rep
}

func (f *fakeNotifier) kinds() []string {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []string
    for _, n := range f.notified {
        out = append(out, n.msg.Kind)
    }
    return out
}
