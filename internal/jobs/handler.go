package jobs

import (
	"net/http"
	"strconv"
	"strings"

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
	rg.GET("/jobs", h.list)
	rg.GET("/jobs/mine", middleware.RequireAuth(), h.listMine)
	rg.GET("/jobs/:id", h.get)
	rg.POST("/jobs", middleware.RequireAuth(), h.create)
	rg.PATCH("/jobs/:id", middleware.RequireAuth(), h.update)
	rg.DELETE("/jobs/:id", middleware.RequireAuth(), h.delete)
	rg.POST("/jobs/:id/reconcile", middleware.RequireAuth(), h.reconcile)
}

func (h *Handler) list(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	page, err := h.Svc.List(c.Request.Context(), filter, middleware.OptionalIdentity(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toListResponse(page))
}

func (h *Handler) listMine(c *gin.Context) {
	requester, _ := middleware.IdentityFromContext(c)
	page, err := h.Svc.ListMine(c.Request.Context(), requester, paging.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toListResponse(page))
}

func (h *Handler) get(c *gin.Context) {
	jobID := c.Param("id")
	c.Set("jobId", jobID)
	view, err := h.Svc.Get(c.Request.Context(), jobID, middleware.OptionalIdentity(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toResponse(view))
}

func (h *Handler) create(c *gin.Context) {
	var req CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	requester, _ := middleware.IdentityFromContext(c)
	view, err := h.Svc.Create(c.Request.Context(), requester, req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("jobId", view.ID)
	respond.JSON(c, http.StatusCreated, toResponse(view))
}

func (h *Handler) update(c *gin.Context) {
	jobID := c.Param("id")
	c.Set("jobId", jobID)
	var req UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	requester, _ := middleware.IdentityFromContext(c)
	view, err := h.Svc.Update(c.Request.Context(), requester, jobID, req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toResponse(view))
}

func (h *Handler) delete(c *gin.Context) {
	jobID := c.Param("id")
	c.Set("jobId", jobID)
	requester, _ := middleware.IdentityFromContext(c)
	if err := h.Svc.Delete(c.Request.Context(), requester, jobID); err != nil {
		respond.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reconcile(c *gin.Context) {
	jobID := c.Param("id")
	c.Set("jobId", jobID)
	requester, _ := middleware.IdentityFromContext(c)
	view, err := h.Svc.ReconcileApplicationCount(c.Request.Context(), requester, jobID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toResponse(view))
}

func parseListFilter(c *gin.Context) (ListFilter, error) {
	filter := ListFilter{
		Keyword:  firstNonEmpty(c.Query("keyword"), c.Query("search")),
		Location: c.Query("location"),
		Page:     paging.Parse(c.Query("page"), c.Query("limit")),
	}
	var fields []apperr.FieldError

	filter.Types = parseSet[EmploymentType](c, "type", &fields)
	filter.Categories = parseSet[Category](c, "category", &fields)
	filter.Levels = parseSet[ExperienceLevel](c, "experienceLevel", &fields)

	if raw := c.Query("salaryMin"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			fields = append(fields, apperr.Field("salaryMin", "salaryMin must be a non-negative number"))
		} else {
			filter.SalaryMin = &v
		}
	}
	if raw := c.Query("salaryMax"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			fields = append(fields, apperr.Field("salaryMax", "salaryMax must be a non-negative number"))
		} else {
			filter.SalaryMax = &v
		}
	}
	if raw := c.Query("featured"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fields = append(fields, apperr.Field("featured", "featured must be true or false"))
		} else {
			filter.Featured = &v
		}
	}
	if raw := strings.TrimSpace(c.Query("sort")); raw != "" {
		field := SortField(strings.TrimPrefix(raw, "-"))
		if !field.Valid() {
			fields = append(fields, apperr.Field("sort", "sort has an unsupported value"))
		} else {
			filter.Sort = field
			filter.Desc = strings.HasPrefix(raw, "-")
		}
	}
	if len(fields) > 0 {
		return ListFilter{}, apperr.Validation(fields...)
	}
	return filter, nil
}

type enum interface {
	~string
	Valid() bool
}

// parseSet accepts repeated and comma-separated values for key.
func parseSet[T enum](c *gin.Context, key string, fields *[]apperr.FieldError) []T {
	var out []T
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v := T(part)
			if !v.Valid() {
				*fields = append(*fields, apperr.Field(key, key+" has an unsupported value: "+part))
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
