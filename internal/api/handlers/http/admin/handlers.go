package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"georem/internal/domain"
	"georem/pkg/e"
	"georem/pkg/validator"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type AdminReminders interface {
	Create(ctx context.Context, req domain.CreateReminderRequest) (uuid.UUID, error)
	List(ctx context.Context, page, limit int) ([]domain.Reminder, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateReminderRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type StatsGetter interface {
	GetStats(ctx context.Context) (*domain.MonitorStats, error)
}

type Handler struct {
	logger *slog.Logger
	Admin  AdminReminders
	Stats  StatsGetter
}

func NewHandler(logger *slog.Logger, admin AdminReminders, stats StatsGetter) *Handler {
	return &Handler{
		logger: logger,
		Admin:  admin,
		Stats:  stats,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) AdminReminderCreate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminReminderCreate", slog.String("remote", r.RemoteAddr))

	var req domain.CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := validator.ValidateStruct(req); err != nil {
		l.Warn("validation failed", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	l.Info("creating reminder",
		slog.Float64("lat", req.Lat),
		slog.Float64("lng", req.Lng),
		slog.Float64("radius_m", req.RadiusM),
		slog.Bool("on_exit", req.OnExit),
	)

	id, err := h.Admin.Create(r.Context(), req)
	if err != nil {
		// The reminder row exists but the fence write was not durable. The
		// caller gets the id plus a warning instead of a hard failure.
		if errors.Is(err, e.ErrPersistence) && id != uuid.Nil {
			l.Warn("reminder created, fence not durable", slog.String("id", id.String()))
			h.writeJSON(w, http.StatusCreated, map[string]string{
				"id":      id.String(),
				"warning": "monitoring state not persisted, may not survive restart",
			})
			return
		}
		h.handleError(w, r, err)
		return
	}

	l.Info("reminder created", slog.String("id", id.String()))
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *Handler) AdminReminderList(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminReminderList", slog.String("query", r.URL.RawQuery), slog.String("remote", r.RemoteAddr))

	page := parseInt(r.URL.Query().Get("page"), 1)
	limit := parseInt(r.URL.Query().Get("limit"), 20)
	if limit > 100 {
		limit = 100
		l.Warn("limit capped", slog.Int("limit", limit))
	}

	reminders, total, err := h.Admin.List(r.Context(), page, limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("reminders listed", slog.Int("count", len(reminders)), slog.Int64("total", total))
	h.writeJSON(w, http.StatusOK, domain.ListRemindersResponse{
		Reminders: reminders,
		Page:      page,
		Limit:     limit,
		Total:     total,
	})
}

func (h *Handler) AdminReminderGet(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminReminderGet", slog.String("remote", r.RemoteAddr))

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		l.Warn("invalid id", slog.String("id", idStr), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	rem, err := h.Admin.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, rem)
}

func (h *Handler) AdminReminderUpdate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminReminderUpdate", slog.String("remote", r.RemoteAddr))

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		l.Warn("invalid id", slog.String("id", idStr), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req domain.UpdateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := validator.ValidateStruct(req); err != nil {
		l.Warn("validation failed", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.Admin.Update(r.Context(), id, req); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminReminderDelete(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminReminderDelete", slog.String("remote", r.RemoteAddr))

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		l.Warn("invalid id", slog.String("id", idStr), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.Admin.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminStats", slog.String("remote", r.RemoteAddr))

	stats, err := h.Stats.GetStats(r.Context())
	if err != nil {
		l.Error("Stats.GetStats failed", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}
