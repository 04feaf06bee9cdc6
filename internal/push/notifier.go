package push

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
)

// Notifier fans payment events out to every admin device. Delivery is
// best-effort and never fails the request that triggered it; expired
// subscriptions get pruned along the way.
type Notifier struct {
	svc    *Service
	subs   *store.PushStore
	logger *slog.Logger
}

func NewNotifier(svc *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{svc: svc, subs: subs, logger: logger}
}

// PaymentSubmitted notifies admins that a new request needs review.
func (n *Notifier) PaymentSubmitted(req *model.PaymentRequest) {
	n.broadcast(Payload{
		Title: "New payment request",
		Body:  fmt.Sprintf("%s requested %.0f hours", req.MemberName, req.HoursRequested),
		URL:   "/admin/payments",
		Tag:   fmt.Sprintf("payment-%d", req.ID),
	})
}

func (n *Notifier) broadcast(payload Payload) {
	subs, err := n.subs.ListAdminSubscriptions()
	if err != nil {
		n.logger.Error("list admin subscriptions", "error", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		err := n.svc.Send(sub, payload)
		if errors.Is(err, ErrExpired) {
			if err := n.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				n.logger.Error("prune expired subscription", "error", err)
			}
			continue
		}
		if err != nil {
			n.logger.Warn("send push", "subscription_id", sub.ID, "error", err)
		}
	}
}
