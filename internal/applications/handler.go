package applications

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/shared/apperr"
	"jobboard-backend/internal/shared/paging"
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
	authed := rg.Group("", middleware.RequireAuth())
	authed.POST("/jobs/:id/applications", h.apply)
	authed.GET("/jobs/:id/applications", h.listForJob)
	authed.GET("/applications/mine", h.listMine)
	authed.GET("/applications/:id", h.getOne)
	authed.PATCH("/applications/:id/status", h.updateStatus)
	authed.DELETE("/applications/:id", h.withdraw)
}

func (h *Handler) apply(c *gin.Context) {
	jobID := c.Param("id")
	c.Set("jobId", jobID)
	var req ApplyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	requester, _ := middleware.IdentityFromContext(c)
	view, err := h.Svc.Apply(c.Request.Context(), requester, jobID, req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("applicationId", view.ID)
	respond.JSON(c, http.StatusCreated, toResponse(view))
}

func (h *Handler) listMine(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	requester, _ := middleware.IdentityFromContext(c)
	page, err := h.Svc.ListMine(c.Request.Context(), requester, filter)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toListResponse(page))
}

func (h *Handler) listForJob(c *gin.Context) {
	jobID := c.Param("id")
	c.Set("jobId", jobID)
	filter, err := parseFilter(c)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	requester, _ := middleware.IdentityFromContext(c)
	page, err := h.Svc.ListForJob(c.Request.Context(), requester, jobID, filter)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toListResponse(page))
}

func (h *Handler) getOne(c *gin.Context) {
	applicationID := c.Param("id")
	c.Set("applicationId", applicationID)
	requester, _ := middleware.IdentityFromContext(c)
	view, err := h.Svc.GetOne(c.Request.Context(), requester, applicationID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("jobId", view.JobID)
	respond.OK(c, toResponse(view))
}

func (h *Handler) updateStatus(c *gin.Context) {
	applicationID := c.Param("id")
	c.Set("applicationId", applicationID)
	var req UpdateStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	requester, _ := middleware.IdentityFromContext(c)
	view, previous, err := h.Svc.UpdateStatus(c.Request.Context(), requester, applicationID, req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("jobId", view.JobID)
	c.Set("statusTransition", string(previous)+"->"+string(view.Status))
	respond.OK(c, toResponse(view))
}

func (h *Handler) withdraw(c *gin.Context) {
	applicationID := c.Param("id")
	c.Set("applicationId", applicationID)
	requester, _ := middleware.IdentityFromContext(c)
	if err := h.Svc.Withdraw(c.Request.Context(), requester, applicationID); err != nil {
		respond.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseFilter(c *gin.Context) (Filter, error) {
	filter := Filter{Page: paging.Parse(c.Query("page"), c.Query("limit"))}
	if raw := c.Query("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			return Filter{}, apperr.Validation(apperr.Field("status", "status has an unsupported value"))
		}
		filter.Status = status
	}
	return filter, nil
}
