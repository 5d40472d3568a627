package uploads

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/shared/server/middleware"
	"jobboard-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/resume", middleware.RequireAuth(), h.presignResume)
}

func (h *Handler) presignResume(c *gin.Context) {
	var req PresignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	requester, _ := middleware.IdentityFromContext(c)
	out, err := h.Svc.PresignResume(c.Request.Context(), requester, req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, out)
}
