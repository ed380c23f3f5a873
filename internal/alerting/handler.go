package alerting

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"HRM-backend/internal/attendance"
)

type Handler struct {
	runner Runner
	loc    *time.Location
	now    func() time.Time
}

func RegisterRoutes(r gin.IRoutes, runner Runner, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	h := &Handler{runner: runner, loc: loc, now: time.Now}
	r.POST("/thresholds/check", h.Check)
}

// POST /thresholds/check?date=YYYY-MM-DD (default today)
func (h *Handler) Check(c *gin.Context) {
	day := h.now().In(h.loc)
	if v := strings.TrimSpace(c.Query("date")); v != "" && v != "today" {
		d, err := time.ParseInLocation(attendance.DateLayout, v, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("INVALID_ARGUMENT", "date must be YYYY-MM-DD"))
			return
		}
		day = d
	}

	rep, err := h.runner.Run(c.Request.Context(), day)
	if err != nil {
		log.Printf("[ERROR] threshold check %s: %v", day.Format(attendance.DateLayout), err)
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL", "threshold evaluation failed"))
		return
	}
	c.JSON(http.StatusOK, rep)
}

func errorBody(code, msg string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": msg}}
}
