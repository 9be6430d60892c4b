package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/formhive/formhive/internal/models"
)

func (s *Server) submitForm(c *gin.Context) {
	var req models.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format: "+err.Error())
		return
	}

	meta := models.SubmissionMetadata{
		IPAddress:   c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
		Referrer:    c.GetHeader("Referer"),
		SubmittedAt: time.Now().UTC(),
	}

	submission, err := s.submissionService.Submit(&req, meta)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	form, err := s.formService.Get(submission.FormID)
	if err == nil {
		go func() {
			if err := s.notificationService.SendSubmissionNotification(form, submission); err != nil {
				log.Printf("Failed to send submission notification: %v", err)
			}
			if err := s.notificationService.SendSubmissionWebhook(form, submission); err != nil {
				log.Printf("Failed to send submission webhook: %v", err)
			}
			if err := s.emailService.SendSubmissionEmail(form, submission); err != nil {
				log.Printf("Failed to send submission email: %v", err)
			}
		}()
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": submission,
	})
}

func (s *Server) listSubmissions(c *gin.Context) {
	formID := c.Param("formId")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil {
		pageSize = 20
	}
	sortAsc := c.DefaultQuery("sort", "desc") == "asc"

	result, err := s.submissionService.List(formID, page, pageSize, sortAsc)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": result.Submissions,
		"total":       result.Total,
		"page":        result.Page,
		"pageSize":    result.PageSize,
	})
}

func (s *Server) getSubmission(c *gin.Context) {
	submission, err := s.submissionService.Get(c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}

func (s *Server) deleteSubmission(c *gin.Context) {
	if err := s.submissionService.Delete(c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Submission deleted successfully",
	})
}
