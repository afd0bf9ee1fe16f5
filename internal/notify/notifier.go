package notify

import (
	"context"
	"html/template"
	"log/slog"
	"strings"

	"github.com/Vovarama1992/homecare-engage/internal/chat"
	"github.com/Vovarama1992/homecare-engage/internal/review"
	"github.com/Vovarama1992/homecare-engage/internal/settings"
)

var (
	_ chat.Notifier   = (*Notifier)(nil)
	_ review.Notifier = (*Notifier)(nil)
)

// Gate decides whether an alert of the given kind may go to an admin.
type Gate interface {
	ShouldSend(email string, kind settings.Kind) bool
}

// Notifier e-mails staff about new chats, customer messages and reviews.
// It never returns errors; every outcome is logged.
type Notifier struct {
	mailer     Mailer
	gate       Gate
	adminEmail string
	brand      string
	log        *slog.Logger
}

func New(mailer Mailer, gate Gate, adminEmail, brand string, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		mailer:     mailer,
		gate:       gate,
		adminEmail: strings.TrimSpace(adminEmail),
		brand:      brand,
		log:        log.With("component", "notify"),
	}
}

func (n *Notifier) NewSession(ctx context.Context, sessionID, customerID string) {
	n.dispatch(ctx, settings.KindNewChat, "New Chat Session Created", newChatTmpl, mailData{
		SessionID:  sessionID,
		CustomerID: customerID,
	})
}

func (n *Notifier) NewMessage(ctx context.Context, sessionID, customerID, content string) {
	n.dispatch(ctx, settings.KindNewMessage, "New Customer Message", newMessageTmpl, mailData{
		SessionID:  sessionID,
		CustomerID: customerID,
		Content:    content,
	})
}

func (n *Notifier) NewReview(ctx context.Context, reviewID string, rating int, text string) {
	n.dispatch(ctx, settings.KindNewReview, "New Review Submitted", newReviewTmpl, mailData{
		ReviewID: reviewID,
		Rating:   rating,
		Stars:    stars(rating),
		Text:     text,
	})
}

func (n *Notifier) dispatch(ctx context.Context, kind settings.Kind, subject string, t *template.Template, d mailData) {
	log := n.log.With("kind", kind)
	if n.adminEmail == "" {
		log.Warn("admin email not configured, skipping notification")
		return
	}
	if n.gate != nil && !n.gate.ShouldSend(n.adminEmail, kind) {
		log.Debug("notification disabled by preferences")
		return
	}
	if n.mailer == nil {
		log.Warn("no mailer configured, skipping notification")
		return
	}

	d.Brand = n.brand
	body, err := render(t, d)
	if err != nil {
		log.Error("render notification", "err", err)
		return
	}
	if n.brand != "" {
		subject += " - " + n.brand
	}
	if err := n.mailer.Send(ctx, Mail{To: n.adminEmail, Subject: subject, HTML: body}); err != nil {
		log.Error("notification send failed", "err", err)
		return
	}
	log.Info("notification sent")
}
