// Package suggest picks a recommended event for a city, asking an
// OpenAI-compatible model when there is more than one candidate.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/impulse-events/ticketing/internal/config"
	"github.com/impulse-events/ticketing/internal/httpclient"
	"github.com/impulse-events/ticketing/internal/model"
)

// candidateLimit is how many recent events of a city are considered.
const candidateLimit = 5

var (
	// ErrNotConfigured is returned when a model call is needed but no API
	// key is set.
	ErrNotConfigured = errors.New("suggestions are not configured")
	// ErrBadResponse means the model answered without a usable JSON object.
	ErrBadResponse = errors.New("model response is not a JSON object")
)

// EventLister is the part of the event store Suggester reads.
type EventLister interface {
	ListRecentByCity(ctx context.Context, city string, limit int) ([]model.Event, error)
}

// Result holds either a stored event (single candidate) or the object the
// model produced.
type Result struct {
	Event      *model.Event
	Suggestion map[string]any
}

type Suggester struct {
	events  EventLister
	client  *retryablehttp.Client
	apiKey  string
	baseURL string
	model   string
	log     logrus.FieldLogger
}

func New(events EventLister, cfg config.AIConfig, log logrus.FieldLogger) *Suggester {
	return &Suggester{
		events:  events,
		client:  httpclient.New(cfg.Timeout, 1, log),
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		log:     log,
	}
}

// Suggest returns the only event of the city directly, otherwise asks the
// model to choose among the most recent ones.
func (s *Suggester) Suggest(ctx context.Context, city string) (Result, error) {
	events, err := s.events.ListRecentByCity(ctx, city, candidateLimit)
	if err != nil {
		return Result{}, fmt.Errorf("list events: %w", err)
	}
	if len(events) == 1 {
		return Result{Event: &events[0]}, nil
	}
	if s.apiKey == "" {
		return Result{}, ErrNotConfigured
	}

	text, err := s.ask(ctx, prompt(city, events))
	if err != nil {
		s.log.WithError(err).WithField("city", city).Warn("suggestion request failed")
		return Result{}, err
	}
	obj, err := extractJSON(text)
	if err != nil {
		return Result{}, err
	}
	return Result{Suggestion: obj}, nil
}

func prompt(city string, events []model.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Верни один json события, которое ты считаешь более подходящим по актуальности для текущего сезона в городе %s. ", city)
	b.WriteString("Возвращай только JSON-объект, без пояснений. Поля: long_url, name, place, city, event_time (ISO), price, description, event_type, message_link, purchased_count, seats_total, account_id.")
	b.WriteString("\n\nСуществующие события (ограничено 5):\n")
	if len(events) == 0 {
		b.WriteString("Нет известных событий для этого города.")
	}
	for i, e := range events {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s | %s | %s | type: %s | link: %s",
			e.Name, e.Place, e.EventTime.UTC().Format("2006-01-02T15:04:05Z07:00"), deref(e.EventType), deref(e.MessageLink))
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

type responsesReply struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func (s *Suggester) ask(ctx context.Context, input string) (string, error) {
	body, err := json.Marshal(map[string]string{"model": s.model, "input": input})
	if err != nil {
		return "", err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/responses", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var reply responsesReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("model reply: %w", err)
	}
	for _, o := range reply.Output {
		for _, c := range o.Content {
			if c.Text != "" {
				return c.Text, nil
			}
		}
	}
	if reply.OutputText != "" {
		return reply.OutputText, nil
	}
	return "", ErrBadResponse
}

// extractJSON parses text as a JSON object, falling back to the span
// between the first '{' and the last '}'.
func extractJSON(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj, nil
	}
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, ErrBadResponse
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, ErrBadResponse
	}
	return obj, nil
}
