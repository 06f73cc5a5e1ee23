package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-registry/internal/api/rpc"
)

// ProcedureHandler exposes the procedure router over HTTP.
type ProcedureHandler struct {
	router *rpc.Router
}

// NewProcedureHandler returns a new handler instance.
func NewProcedureHandler(router *rpc.Router) *ProcedureHandler {
	return &ProcedureHandler{router: router}
}

// Call runs the procedure named by the :procedure path segment with the
// request body as its input.
func (h *ProcedureHandler) Call(c *fiber.Ctx) error {
	out, derr := h.router.Call(c.UserContext(), c.Params("procedure"), c.Body())
	if derr != nil {
		return derr
	}
	return c.JSON(out)
}
