package settings

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{ p *Provider }

func RegisterRoutes(r gin.IRoutes, p *Provider) {
	h := &Handler{p: p}
	r.GET("/settings/notifications", h.Get)
	r.PUT("/settings/notifications", h.Put)
}

func (h *Handler) Get(c *gin.Context) {
	n, err := h.p.Settings(c.Request.Context())
	if err != nil {
		log.Printf("[WARN] settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) Put(c *gin.Context) {
	var req Notification
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	n, err := h.p.Update(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[ERROR] settings: save: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, n)
}
