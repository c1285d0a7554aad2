package service

import (
    "context"
    "encoding/json"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/impulse-events/ticketing/internal/clock"
    "github.com/impulse-events/ticketing/internal/logging"
    "github.com/impulse-events/ticketing/internal/model"
    "github.com/impulse-events/ticketing/internal/notify"
    "github.com/impulse-events/ticketing/internal/repository"
    "github.com/impulse-events/ticketing/internal/slug"
)

var now = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type eventFixture struct {
    svc      *EventService
    events   *memEvents
    orders   *memOrders
    notifier *fakeNotifier
}

func newEventFixture() eventFixture {
    f := eventFixture{
        events:   newMemEvents(),
        orders:   newMemOrders(),
        notifier: &fakeNotifier{admins: []string{"org@impulse.events"}},
    }
    f.svc = NewEventService(f.events, f.orders, f.notifier, clock.NewFixed(now), logging.Discard())
    return f
}

func strPtr(s string) *string { return &s }

func jazzInput() EventInput {
    end := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
    return EventInput{
        LongURL:      "https://impulse.events/e/jazz-night",
        Name:         "Jazz Night",
        Place:        "Blue Hall",
        City:         "Moscow",
        EventTime:    time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC),
        EventEndTime: &end,
        Price:        1500,
        Description:  "Live jazz",
        EventType:    strPtr("concert"),
        SeatsTotal:   150,
        AccountID:    7,
    }
}

// sequence returns a slug generator yielding the given slugs in order.
func sequence(slugs ...string) func() string {
    i := 0
    return func() string {
        s := slugs[i%len(slugs)]
        i++
        return s
    }
}

func TestCreateEventRoundTrip(t *testing.T) {
    f := newEventFixture()
    ctx := context.Background()
    in := jazzInput()

    res, err := f.svc.Create(ctx, in)
    require.NoError(t, err)
    assert.True(t, slug.Valid(res.Slug), res.Slug)

    e, err := f.svc.GetBySlug(ctx, res.Slug)
    require.NoError(t, err)
    assert.Equal(t, res.EventID, e.ID)
    assert.Equal(t, in.Name, e.Name)
    assert.Equal(t, in.LongURL, e.LongURL)
    assert.Equal(t, in.Place, e.Place)
    assert.Equal(t, in.City, e.City)
    assert.True(t, in.EventTime.Equal(e.EventTime))
    assert.True(t, in.EventEndTime.Equal(*e.EventEndTime))
    assert.Equal(t, in.Price, e.Price)
    assert.Equal(t, in.Description, e.Description)
    assert.Equal(t, in.EventType, e.EventType)
    assert.Equal(t, in.SeatsTotal, e.SeatsTotal)
    assert.Equal(t, in.AccountID, e.AccountID)
    assert.Equal(t, model.EventStatusScheduled, e.Status)
}

func TestCreateEventJazzNight(t *testing.T) {
    f := newEventFixture()
    f.svc.newSlug = sequence("aB3dE9")
    ctx := context.Background()

    res, err := f.svc.Create(ctx, jazzInput())
    require.NoError(t, err)
    assert.Equal(t, "aB3dE9", res.Slug)

    e, err := f.svc.GetBySlug(ctx, "aB3dE9")
    require.NoError(t, err)
    assert.Equal(t, "Jazz Night", e.Name)

    _, err = f.svc.GetBySlug(ctx, "ab3de9")
    assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateEventNotifiesOrganizers(t *testing.T) {
    f := newEventFixture()
    _, err := f.svc.Create(context.Background(), jazzInput())
    require.NoError(t, err)

    require.Len(t, f.notifier.notified, 1)
    n := f.notifier.notified[0]
    assert.Equal(t, []string{"org@impulse.events"}, n.recipients)
    assert.Equal(t, notify.KindEventCreated, n.msg.Kind)
    assert.Contains(t, n.msg.Lines, "Город: Moscow")
}

func TestCreateEventSlugCollisions(t *testing.T) {
    ctx := context.Background()

    t.Run("succeeds on the fifth attempt", func(t *testing.T) {
        f := newEventFixture()
        f.events.collisions = 4
        f.svc.newSlug = sequence("aaaaa1", "aaaaa2", "aaaaa3", "aaaaa4", "aaaaa5")

        res, err := f.svc.Create(ctx, jazzInput())
        require.NoError(t, err)
        assert.Equal(t, "aaaaa5", res.Slug)
        assert.Equal(t, 5, f.events.creates)
    })

    t.Run("gives up after five attempts", func(t *testing.T) {
        f := newEventFixture()
        f.events.collisions = 5

        _, err := f.svc.Create(ctx, jazzInput())
        assert.ErrorIs(t, err, ErrCreationExhausted)
        assert.Equal(t, 5, f.events.creates)

        all, err := f.svc.ListAll(ctx)
        require.NoError(t, err)
        assert.Empty(t, all)
        assert.Empty(t, f.notifier.notified)
    })

    t.Run("retries with a fresh slug against a real conflict", func(t *testing.T) {
        f := newEventFixture()
        f.svc.newSlug = sequence("taken1")
        _, err := f.svc.Create(ctx, jazzInput())
        require.NoError(t, err)

        f.svc.newSlug = sequence("taken1", "fresh1")
        res, err := f.svc.Create(ctx, jazzInput())
        require.NoError(t, err)
        assert.Equal(t, "fresh1", res.Slug)
    })
}

type failingEvents struct {
    *memEvents
    err error
}

func (f failingEvents) Create(context.Context, *model.Event) error { return f.err }

func TestCreateEventStoreErrorIsNotRetried(t *testing.T) {
    f := newEventFixture()
    boom := errors.New("db down")
    svc := NewEventService(failingEvents{memEvents: f.events, err: boom}, f.orders, f.notifier, clock.NewFixed(now), logging.Discard())

    _, err := svc.Create(context.Background(), jazzInput())
    assert.ErrorIs(t, err, boom)
    assert.NotErrorIs(t, err, ErrCreationExhausted)
}

func TestCreateEventValidation(t *testing.T) {
    cases := map[string]func(*EventInput){
        "name":           func(in *EventInput) { in.Name = " " },
        "long_url":       func(in *EventInput) { in.LongURL = "" },
        "event_time":     func(in *EventInput) { in.EventTime = time.Time{} },
        "status":         func(in *EventInput) { in.Status = "cancelled" },
        "price":          func(in *EventInput) { in.Price = -1 },
        "seats_total":    func(in *EventInput) { in.SeatsTotal = -5 },
        "event_end_time": func(in *EventInput) { early := in.EventTime.Add(-time.Hour); in.EventEndTime = &early },
    }
    for field, mutate := range cases {
        t.Run(field, func(t *testing.T) {
            f := newEventFixture()
            in := jazzInput()
            mutate(&in)

            _, err := f.svc.Create(context.Background(), in)
            var ve *ValidationError
            require.ErrorAs(t, err, &ve)
            assert.Equal(t, field, ve.Field)
            assert.Zero(t, f.events.creates)
        })
    }
}

func TestUpdateEventOnlyChangesSuppliedFields(t *testing.T) {
    f := newEventFixture()
    ctx := context.Background()
    res, err := f.svc.Create(ctx, jazzInput())
    require.NoError(t, err)
    before, err := f.svc.GetByID(ctx, res.EventID)
    require.NoError(t, err)

    after, err := f.svc.Update(ctx, res.EventID, model.EventPatch{Description: strPtr("x")})
    require.NoError(t, err)

    want := *before
    want.Description = "x"
    assert.Equal(t, want, *after)
}

func TestUpdateEventStatusFollowsEndTime(t *testing.T) {
    ctx := context.Background()
    past := now.Add(-time.Hour)
    future := now.Add(time.Hour)

    t.Run("past end time wins over supplied status", func(t *testing.T) {
        f := newEventFixture()
        in := jazzInput()
        in.EventTime = now.Add(-3 * time.Hour)
        in.EventEndTime = &past
        res, err := f.svc.Create(ctx, in)
        require.NoError(t, err)

        e, err := f.svc.Update(ctx, res.EventID, model.EventPatch{
            EventEndTime: &past,
            Status:       strPtr(model.EventStatusScheduled),
        })
        require.NoError(t, err)
        assert.Equal(t, model.EventStatusFinished, e.Status)
    })

    t.Run("stored past end time finishes on any update", func(t *testing.T) {
        f := newEventFixture()
        in := jazzInput()
        in.EventTime = now.Add(-3 * time.Hour)
        in.EventEndTime = &past
        res, err := f.svc.Create(ctx, in)
        require.NoError(t, err)

        e, err := f.svc.Update(ctx, res.EventID, model.EventPatch{Name: strPtr("Jazz Night II")})
        require.NoError(t, err)
        assert.Equal(t, model.EventStatusFinished, e.Status)
    })

    t.Run("future end time means scheduled", func(t *testing.T) {
        f := newEventFixture()
        res, err := f.svc.Create(ctx, jazzInput())
        require.NoError(t, err)

        e, err := f.svc.Update(ctx, res.EventID, model.EventPatch{
            EventEndTime: &future,
            Status:       strPtr(model.EventStatusFinished),
        })
        require.NoError(t, err)
        assert.Equal(t, model.EventStatusScheduled, e.Status)
    })

    t.Run("supplied status applies without end time", func(t *testing.T) {
        f := newEventFixture()
        in := jazzInput()
        in.EventEndTime = nil
        res, err := f.svc.Create(ctx, in)
        require.NoError(t, err)

        e, err := f.svc.Update(ctx, res.EventID, model.EventPatch{Status: strPtr(model.EventStatusFinished)})
        require.NoError(t, err)
        assert.Equal(t, model.EventStatusFinished, e.Status)
    })

    t.Run("invalid status rejected", func(t *testing.T) {
        f := newEventFixture()
        _, err := f.svc.Update(ctx, 1, model.EventPatch{Status: strPtr("paused")})
        var ve *ValidationError
        assert.ErrorAs(t, err, &ve)
    })
}

func TestUpdateEventRejectsEndBeforeStart(t *testing.T) {
    ctx := context.Background()

    t.Run("end moved before stored start", func(t *testing.T) {
        f := newEventFixture()
        res, err := f.svc.Create(ctx, jazzInput())
        require.NoError(t, err)
        before, err := f.svc.GetByID(ctx, res.EventID)
        require.NoError(t, err)

        early := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
        _, err = f.svc.Update(ctx, res.EventID, model.EventPatch{EventEndTime: &early, Name: strPtr("Early Jazz")})
        var ve *ValidationError
        require.ErrorAs(t, err, &ve)
        assert.Equal(t, "event_end_time", ve.Field)

        after, err := f.svc.GetByID(ctx, res.EventID)
        require.NoError(t, err)
        assert.Equal(t, *before, *after)
        assert.Len(t, f.notifier.notified, 1)
    })

    t.Run("start moved past stored end", func(t *testing.T) {
        f := newEventFixture()
        res, err := f.svc.Create(ctx, jazzInput())
        require.NoError(t, err)

        late := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
        _, err = f.svc.Update(ctx, res.EventID, model.EventPatch{EventTime: &late})
        var ve *ValidationError
        assert.ErrorAs(t, err, &ve)
    })

    t.Run("both moved together", func(t *testing.T) {
        f := newEventFixture()
        res, err := f.svc.Create(ctx, jazzInput())
        require.NoError(t, err)

        start := time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC)
        end := start.Add(3 * time.Hour)
        e, err := f.svc.Update(ctx, res.EventID, model.EventPatch{EventTime: &start, EventEndTime: &end})
        require.NoError(t, err)
        assert.Equal(t, start, e.EventTime)
    })
}

func TestEventInputAcceptsNaiveTimes(t *testing.T) {
    var in EventInput
    require.NoError(t, json.Unmarshal([]byte(`{
        "long_url": "https://impulse.events/e/jazz-night",
        "name": "Jazz Night",
        "event_time": "2025-06-01T19:00",
        "event_end_time": "2025-06-01T23:00:00",
        "seats_total": 150
    }`), &in))
    assert.True(t, in.EventTime.Equal(time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)))
    require.NotNil(t, in.EventEndTime)
    assert.True(t, in.EventEndTime.Equal(time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)))
    assert.Equal(t, 150, in.SeatsTotal)

    f := newEventFixture()
    res, err := f.svc.Create(context.Background(), in)
    require.NoError(t, err)
    e, err := f.svc.GetByID(context.Background(), res.EventID)
    require.NoError(t, err)
    assert.Equal(t, time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC), e.EventTime)
}

func TestUpdateEventNotifiesPurchasers(t *testing.T) {
    f := newEventFixture()
    ctx := context.Background()
    res, err := f.svc.Create(ctx, jazzInput())
    require.NoError(t, err)
    for _, email := range []string{"a@x.io", "b@x.io", "a@x.io"} {
        require.NoError(t, f.orders.Create(ctx, &model.Order{EventID: res.EventID, Email: email}))
    }

    _, err = f.svc.Update(ctx, res.EventID, model.EventPatch{Place: strPtr("Green Hall")})
    require.NoError(t, err)

    require.Len(t, f.notifier.notified, 2)
    n := f.notifier.notified[1]
    assert.Equal(t, notify.KindEventUpdated, n.msg.Kind)
    assert.Equal(t, []string{"a@x.io", "b@x.io"}, n.recipients)
    assert.Contains(t, n.msg.Lines, "Место: Green Hall")
}

func TestUpdateEventNotFound(t *testing.T) {
    f := newEventFixture()
    _, err := f.svc.Update(context.Background(), 404, model.EventPatch{Description: strPtr("x")})
    assert.ErrorIs(t, err, repository.ErrNotFound)
    assert.Empty(t, f.notifier.notified)
}

func TestListBetween(t *testing.T) {
    f := newEventFixture()
    ctx := context.Background()
    base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
    for _, offset := range []int{5, 1, 3, 9} {
        in := jazzInput()
        in.EventTime = base.AddDate(0, 0, offset)
        in.EventEndTime = nil
        _, err := f.svc.Create(ctx, in)
        require.NoError(t, err)
    }

    t.Run("inclusive and ascending", func(t *testing.T) {
        start, end := base.AddDate(0, 0, 1), base.AddDate(0, 0, 5)
        events, err := f.svc.ListBetween(ctx, &start, &end, 0)
        require.NoError(t, err)
        require.Len(t, events, 3)
        for i, e := range events {
            assert.False(t, e.EventTime.Before(start) || e.EventTime.After(end))
            if i > 0 {
                assert.False(t, e.EventTime.Before(events[i-1].EventTime))
            }
        }
    })

    t.Run("open bounds", func(t *testing.T) {
        events, err := f.svc.ListBetween(ctx, nil, nil, 0)
        require.NoError(t, err)
        assert.Len(t, events, 4)
    })

    t.Run("limit", func(t *testing.T) {
        events, err := f.svc.ListBetween(ctx, nil, nil, 2)
        require.NoError(t, err)
        require.Len(t, events, 2)
        assert.Equal(t, base.AddDate(0, 0, 1), events[0].EventTime)
    })

    t.Run("non-UTC bounds", func(t *testing.T) {
        msk := time.FixedZone("MSK", 3*3600)
        start := base.AddDate(0, 0, 3).In(msk)
        events, err := f.svc.ListBetween(ctx, &start, &start, 0)
        require.NoError(t, err)
        assert.Len(t, events, 1)
    })

    t.Run("empty range", func(t *testing.T) {
        start, end := base.AddDate(0, 0, 6), base.AddDate(0, 0, 8)
        events, err := f.svc.ListBetween(ctx, &start, &end, 0)
        require.NoError(t, err)
        assert.NotNil(t, events)
        assert.Empty(t, events)
    })

    t.Run("inverted range", func(t *testing.T) {
        start, end := base.AddDate(0, 0, 9), base
        events, err := f.svc.ListBetween(ctx, &start, &end, 0)
        require.NoError(t, err)
        assert.Empty(t, events)
    })
}

func TestResolve(t *testing.T) {
    f := newEventFixture()
    f.svc.newSlug = sequence("Zz9Yy8")
    ctx := context.Background()
    _, err := f.svc.Create(ctx, jazzInput())
    require.NoError(t, err)

    dest, err := f.svc.Resolve(ctx, "Zz9Yy8")
    require.NoError(t, err)
    assert.Equal(t, "https://impulse.events/e/jazz-night", dest)

    _, err = f.svc.Resolve(ctx, "../etc")
    assert.ErrorIs(t, err, repository.ErrNotFound)
}
