package notification

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/notifications", h.List)
	r.PATCH("/notifications/:id/read", h.MarkRead)
}

// GET /notifications?organization_id=&date=&unread=true
func (h *Handler) List(c *gin.Context) {
	q := ListQuery{UnreadOnly: c.Query("unread") == "true"}
	if v := c.Query("organization_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid organization_id"))
			return
		}
		q.OrganizationID = &id
	}
	if v := c.Query("date"); v != "" {
		q.Date = &v
	}
	q.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	q.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MarkRead(c *gin.Context) {
	n, err := h.svc.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var api *APIError
	if errors.As(err, &api) {
		c.JSON(toHTTPStatus(err), errorBody(api.Code, api.Message))
		return
	}
	log.Printf("[ERROR] notifications %s: %v", c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, errorBody(CodeInternal, "internal error"))
}

func errorBody(code Code, msg string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": msg}}
}
