package handlers

import (
	"github.com/fasthttp/router"

	xhttp "github.com/classpulse/notification-engine/pkg/http"
)

// HealthChecker reports store connectivity. A nil checker always passes.
type HealthChecker func() error

type HealthHandler struct {
	check HealthChecker
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(check HealthChecker) *HealthHandler {
	return &HealthHandler{
		check: check,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if h.check != nil {
		if err := h.check(); err != nil {
			writeError(ctx, 503, err.Error())
			return
		}
	}
	ctx.Response.SetBodyString("success")
}
