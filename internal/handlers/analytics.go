package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/formhive/formhive/internal/services"
)

func (s *Server) getFormAnalytics(c *gin.Context) {
	formID := c.Param("formId")
	days := services.ParsePeriod(c.DefaultQuery("period", "30d"))

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	report, err := s.analyticsService.Aggregate(formID, start, end)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"analytics": report,
	})
}

func (s *Server) exportSubmissions(c *gin.Context) {
	formID := c.Param("formId")

	if format := c.DefaultQuery("format", "csv"); format != "csv" {
		badRequest(c, fmt.Sprintf("Unsupported export format: %s", format))
		return
	}

	// Resolve the form before committing to a streaming response so a bad
	// id still gets a proper error envelope.
	form, err := s.formService.Get(formID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("form-%s-submissions.csv", formID)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := s.analyticsService.ExportCSV(form, c.Writer); err != nil {
		// Headers are already gone; all we can do is drop the connection.
		c.Error(err)
		c.Abort()
	}
}
