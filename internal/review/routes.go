package review

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/reviews", h.CreateReview)
	r.Get("/reviews/approved", h.GetApprovedReviews)
}

func RegisterAdminRoutes(r chi.Router, h *Handler) {
	r.Get("/reviews", h.GetAllReviews)
	r.Patch("/reviews/{reviewId}/approve", h.ApproveReview)
	r.Delete("/reviews/{reviewId}/reject", h.RejectReview)
}
