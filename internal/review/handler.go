package review

import (
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/homecare-engage/internal/util"
)

const errNotFound = "Review not found"

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log.With("component", "review_http")}
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Rating *float64 `json:"rating"`
		Text   *string  `json:"text"`
	}
	if err := util.DecodeJSON(r, &payload); err != nil {
		util.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Rating == nil || *payload.Rating != math.Trunc(*payload.Rating) ||
		*payload.Rating < MinRating || *payload.Rating > MaxRating {
		util.WriteError(w, http.StatusBadRequest, ErrInvalidRating.Error())
		return
	}
	in := Input{Rating: int(*payload.Rating)}
	if payload.Text != nil {
		in.Text = *payload.Text
	}

	created, err := h.svc.CreateReview(r.Context(), in)
	switch {
	case errors.Is(err, ErrInvalidRating), errors.Is(err, ErrTextTooLong):
		util.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.fail(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetApprovedReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.GetApprovedReviews(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, reviews)
}

func (h *Handler) GetAllReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.GetAllReviews(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, reviews)
}

func (h *Handler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	approved, ok, err := h.svc.ApproveReview(r.Context(), chi.URLParam(r, "reviewId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		util.WriteError(w, http.StatusNotFound, errNotFound)
		return
	}
	util.WriteJSON(w, http.StatusOK, approved)
}

func (h *Handler) RejectReview(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.RejectReview(r.Context(), chi.URLParam(r, "reviewId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		util.WriteError(w, http.StatusNotFound, errNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	util.WriteError(w, http.StatusInternalServerError, "Internal server error")
}
