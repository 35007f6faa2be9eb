package exts

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

func ParsePublicKey(raw string) (ed25519.PublicKey, error) {
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("public key is not hex: %v", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return key, nil
}

// EnsureSignedInteraction is a middleware rejecting webhook calls whose
// signature over timestamp + body does not match key.
func EnsureSignedInteraction(key ed25519.PublicKey) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := adaptor.ConvertRequest(c, false)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !discordgo.VerifyInteraction(req, key) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid request signature")
		}
		return c.Next()
	}
}
