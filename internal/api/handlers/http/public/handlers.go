package public

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"georem/internal/domain"
	"georem/pkg/validator"
)

// SampleSink accepts location samples for evaluation. Offer never blocks.
type SampleSink interface {
	Offer(sample domain.LocationSample)
}

type Handler struct {
	logger *slog.Logger
	Sink   SampleSink
}

func NewHandler(logger *slog.Logger, sink SampleSink) *Handler {
	return &Handler{
		logger: logger,
		Sink:   sink,
	}
}

// PublicSamplePush is the foreground feed: a device POSTs its position here
// when it has one. Accepted samples go through the same single-consumer loop
// as the subscription feed.
func (h *Handler) PublicSamplePush(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	var req domain.SampleRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := validator.ValidateStruct(req); err != nil {
		l.Warn("sample rejected", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sample := domain.LocationSample{Lat: req.Lat, Lng: req.Lng}
	if req.Timestamp > 0 {
		sample.Timestamp = time.Unix(req.Timestamp, 0).UTC()
	}

	h.Sink.Offer(sample)

	l.Debug("sample accepted", slog.Float64("lat", req.Lat), slog.Float64("lng", req.Lng))
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
