package api

import (
	"crypto/ed25519"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gvlarp/renfield/pkg/internal/auth"
	"github.com/gvlarp/renfield/pkg/internal/http/exts"
	"github.com/gvlarp/renfield/pkg/internal/services"
)

type Handler struct {
	votes   *services.VoteService
	groups  *services.GroupRegistry
	gate    *auth.RoleGate
	health  services.Pinger
	timeout time.Duration
}

func NewHandler(
	votes *services.VoteService,
	groups *services.GroupRegistry,
	gate *auth.RoleGate,
	health services.Pinger,
	timeout time.Duration,
) *Handler {
	return &Handler{
		votes:   votes,
		groups:  groups,
		gate:    gate,
		health:  health,
		timeout: timeout,
	}
}

func (v *Handler) MapAPIs(app *fiber.App, publicKey ed25519.PublicKey) {
	app.Get("/healthz", v.getHealth)
	app.Post("/interactions", exts.EnsureSignedInteraction(publicKey), v.receiveInteraction)
}
