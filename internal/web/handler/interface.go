package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/flow"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, svc *flow.Service)
}
