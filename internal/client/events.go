package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/afisha/events/internal/models"
)

// EventsClient calls the backend's /api/events endpoints. Each call is a single attempt.
type EventsClient struct {
	base
}

func NewEventsClient(baseURL string, httpClient *http.Client) *EventsClient {
	return &EventsClient{base: newBase(baseURL, httpClient)}
}

// List calls GET /api/events. Only the filter fields that are set reach the query string.
func (c *EventsClient) List(ctx context.Context, filter *models.Filter) (*models.ListResponse, error) {
	path := "/events"
	if q := filter.Values().Encode(); q != "" {
		path += "?" + q
	}
	var out models.ListResponse
	if err := c.call(ctx, "list events", http.MethodGet, path, "", nil, &out, false, "could not load events"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get calls GET /api/events/{id}.
func (c *EventsClient) Get(ctx context.Context, id string) (*models.Event, error) {
	var out models.Event
	if err := c.call(ctx, "get event", http.MethodGet, "/events/"+url.PathEscape(id), "", nil, &out, false, "could not load the event"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create calls POST /api/events. The backend only accepts administrator tokens.
func (c *EventsClient) Create(ctx context.Context, req models.CreateEventRequest, token string) (*models.Event, error) {
	var out models.Event
	if err := c.call(ctx, "create event", http.MethodPost, "/events", token, req, &out, false, "could not create the event"); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetAttendance calls PATCH /api/events/{id}/attendance.
func (c *EventsClient) SetAttendance(ctx context.Context, id string, attending bool, token string) (*models.AttendanceResponse, error) {
	var out models.AttendanceResponse
	in := models.AttendanceRequest{Attending: attending}
	if err := c.call(ctx, "set attendance", http.MethodPatch, "/events/"+url.PathEscape(id)+"/attendance", token, in, &out, false, "could not update attendance"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleLike calls PATCH /api/events/{id}/like.
func (c *EventsClient) ToggleLike(ctx context.Context, id string, token string) (*models.LikeResponse, error) {
	var out models.LikeResponse
	if err := c.call(ctx, "toggle like", http.MethodPatch, "/events/"+url.PathEscape(id)+"/like", token, nil, &out, false, "could not update the like"); err != nil {
		return nil, err
	}
	return &out, nil
}
