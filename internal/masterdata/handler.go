package masterdata

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

// RegisterRoutes wires the read endpoints; writes go through RegisterAdminRoutes.
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/organizations", h.list(Organizations))
	r.GET("/organizations/:id", h.get(Organizations))
	r.GET("/employee-categories", h.list(Categories))
	r.GET("/employee-categories/:id", h.get(Categories))
}

func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	for path, k := range map[string]Kind{"/organizations": Organizations, "/employee-categories": Categories} {
		r.POST(path, h.create(k))
		r.PUT(path+"/:id", h.rename(k))
		r.DELETE(path+"/:id", h.delete(k))
	}
}

func (h *Handler) list(k Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.svc.List(c.Request.Context(), k)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": res})
	}
}

func (h *Handler) get(k Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		res, err := h.svc.Get(c.Request.Context(), k, id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (h *Handler) create(k Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, ErrInvalid("invalid json or missing name"))
			return
		}
		res, err := h.svc.Create(c.Request.Context(), k, req.Name)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

func (h *Handler) rename(k Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req NameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, ErrInvalid("invalid json or missing name"))
			return
		}
		res, err := h.svc.Rename(c.Request.Context(), k, id, req.Name)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (h *Handler) delete(k Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := h.svc.Delete(c.Request.Context(), k, id); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, ErrInvalid("invalid id"))
		return 0, false
	}
	return id, true
}

func fail(c *gin.Context, err error) {
	var api *APIError
	if !errors.As(err, &api) {
		api = ErrInternal("internal error")
	}
	c.JSON(toHTTPStatus(api), gin.H{"error": api})
}
