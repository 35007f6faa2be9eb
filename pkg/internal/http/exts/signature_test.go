package exts

import (
	"crypto/ed25519"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublicKey(t *testing.T) {
	public, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	key, err := ParsePublicKey(hex.EncodeToString(public))
	require.NoError(t, err)
	assert.Equal(t, public, key)

	_, err = ParsePublicKey("not-hex")
	assert.Error(t, err)
	_, err = ParsePublicKey("abcd")
	assert.Error(t, err)
}

func TestEnsureSignedInteraction(t *testing.T) {
	public, private, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/", EnsureSignedInteraction(public), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	send := func(timestamp, body, signature string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(HeaderTimestamp, timestamp)
		req.Header.Set(HeaderSignature, signature)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}
	sign := func(msg string) string {
		return hex.EncodeToString(ed25519.Sign(private, []byte(msg)))
	}

	assert.Equal(t, fiber.StatusOK, send("42", "payload", sign("42payload")))
	assert.Equal(t, fiber.StatusUnauthorized, send("42", "payload", ""))
	assert.Equal(t, fiber.StatusUnauthorized, send("42", "payload", "zz"))
	assert.Equal(t, fiber.StatusUnauthorized, send("43", "payload", sign("42payload")))
	assert.Equal(t, fiber.StatusUnauthorized, send("42", "tampered", sign("42payload")))
	assert.Equal(t, fiber.StatusUnauthorized, send("", "payload", sign("payload")))
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Name string `validate:"required,max=5"`
	}

	assert.NoError(t, ValidateStruct(&input{Name: "abc"}))
	assert.Error(t, ValidateStruct(&input{}))
	assert.Error(t, ValidateStruct(&input{Name: "abcdef"}))
}
