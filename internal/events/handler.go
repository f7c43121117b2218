package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/afisha/events/internal/auth"
	"github.com/afisha/events/internal/httpjson"
	"github.com/afisha/events/internal/models"
	"github.com/afisha/events/internal/monitoring"
	"github.com/afisha/events/internal/store"
)

// MaxImageSize caps uploads to POST /api/events/images.
const MaxImageSize = 5 << 20

// EventStore defines the interface for event persistence.
type EventStore interface {
	Insert(ctx context.Context, ev *models.Event) error
	List(ctx context.Context, f *models.Filter) ([]models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	SetAttendance(ctx context.Context, id, userID string, attending bool) error
	ToggleLike(ctx context.Context, id, userID string) (int, error)
}

// ImageStore defines the interface for event image storage.
type ImageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, int64, string, error)
}

// Handler holds event HTTP handlers.
type Handler struct {
	events    EventStore
	images    ImageStore
	publicURL string
	log       *slog.Logger
}

func NewHandler(events EventStore, images ImageStore, publicURL string, log *slog.Logger) *Handler {
	return &Handler{events: events, images: images, publicURL: strings.TrimRight(publicURL, "/"), log: log}
}

// List returns events matching the query filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseFilter(r.URL.Query())
	if err != nil {
		httpjson.Invalid(w, err)
		return
	}
	evs, err := h.events.List(r.Context(), filter)
	if err != nil {
		h.log.Error("list events", "error", err)
		httpjson.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	httpjson.Write(w, http.StatusOK, models.ListResponse{Events: evs, Total: len(evs)})
}

// Get returns a single event.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, "get event", err)
		return
	}
	httpjson.Write(w, http.StatusOK, ev)
}

// Create stores a new event. Mounted behind RequireAdmin.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := models.Validate(req); err != nil {
		monitoring.Track("create", "invalid")
		httpjson.Invalid(w, err)
		return
	}

	ev := &models.Event{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Image:       req.Image,
		Date:        req.Date.UTC(),
		Category:    req.Category,
		City:        req.City,
		CreatedBy:   userID,
	}
	if err := h.events.Insert(r.Context(), ev); err != nil {
		monitoring.Track("create", "error")
		h.log.Error("insert event", "error", err)
		httpjson.Error(w, http.StatusInternalServerError, "failed to save event")
		return
	}
	monitoring.Track("create", "ok")
	h.log.Info("event created", "id", ev.ID, "by", userID)
	httpjson.Write(w, http.StatusCreated, ev)
}

// Attendance adds or removes the caller from the attendee list.
func (h *Handler) Attendance(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req models.AttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.events.SetAttendance(r.Context(), chi.URLParam(r, "id"), userID, req.Attending); err != nil {
		monitoring.Track("attendance", "error")
		h.storeError(w, "set attendance", err)
		return
	}
	monitoring.Track("attendance", "ok")
	httpjson.Write(w, http.StatusOK, models.AttendanceResponse{Success: true})
}

// Like toggles the caller's like and returns the new count.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	likes, err := h.events.ToggleLike(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		monitoring.Track("like", "error")
		h.storeError(w, "toggle like", err)
		return
	}
	monitoring.Track("like", "ok")
	httpjson.Write(w, http.StatusOK, models.LikeResponse{Success: true, Likes: likes})
}

// UploadImage stores a multipart "image" file and returns its public URL.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+1<<10)
	file, hdr, err := r.FormFile("image")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	if hdr.Size > MaxImageSize {
		httpjson.Error(w, http.StatusRequestEntityTooLarge, "image is larger than 5 MB")
		return
	}
	contentType := hdr.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		httpjson.Error(w, http.StatusUnsupportedMediaType, "only image uploads are accepted")
		return
	}

	key := "events/" + uuid.NewString() + strings.ToLower(path.Ext(hdr.Filename))
	if err := h.images.Upload(r.Context(), key, file, hdr.Size, contentType); err != nil {
		h.log.Error("upload image", "error", err)
		httpjson.Error(w, http.StatusInternalServerError, "upload failed")
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]string{
		"url": h.publicURL + "/api/events/images/" + key,
	})
}

// Image streams a stored image.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		httpjson.Error(w, http.StatusNotFound, "not found")
		return
	}
	rc, size, contentType, err := h.images.Open(r.Context(), key)
	if err != nil {
		h.storeError(w, "open image", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("stream image", "key", key, "error", err)
	}
}

func (h *Handler) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "not found")
		return
	}
	h.log.Error(op, "error", err)
	httpjson.Error(w, http.StatusInternalServerError, "database error")
}
