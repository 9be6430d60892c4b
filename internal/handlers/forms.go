package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formhive/formhive/internal/models"
	"github.com/formhive/formhive/internal/services"
)

// writeServiceError maps the service error taxonomy onto the shared
// envelope. Unknown errors are persistence-class and come back as 500,
// never in the 400 validation shape.
func writeServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrFormNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Success: false, Error: "Form not found"})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Success: false, Error: "Submission not found"})
	case errors.Is(err, services.ErrFormNotPublished):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: "Form is not published"})
	case errors.Is(err, services.ErrSubmissionLimit):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: "Submission limit reached"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   "Validation failed",
			Details: validationErr.Details,
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   "Internal server error",
		})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: message})
}

func (s *Server) createForm(c *gin.Context) {
	var req models.FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format: "+err.Error())
		return
	}

	form, err := s.formService.Create(&req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"form":    form,
	})
}

func (s *Server) updateForm(c *gin.Context) {
	var req models.FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format: "+err.Error())
		return
	}

	form, err := s.formService.Update(c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"form":    form,
	})
}

func (s *Server) listForms(c *gin.Context) {
	forms, err := s.formService.List()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if forms == nil {
		forms = []*models.Form{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"forms":   forms,
		"count":   len(forms),
	})
}

func (s *Server) getForm(c *gin.Context) {
	form, err := s.formService.Get(c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response := gin.H{
		"success": true,
		"form":    form,
	}
	// The preview renderer consumes the same partition the public page uses.
	if form.Settings.IsMultiStep && len(form.Settings.Steps) > 0 {
		response["steps"] = s.formService.Steps(form)
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) deleteForm(c *gin.Context) {
	if err := s.formService.Delete(c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Form deleted successfully",
	})
}

func (s *Server) publishForm(c *gin.Context) {
	form, err := s.formService.Publish(c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"form":    form,
	})
}

func (s *Server) unpublishForm(c *gin.Context) {
	form, err := s.formService.Unpublish(c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"form":    form,
	})
}

func (s *Server) duplicateForm(c *gin.Context) {
	form, err := s.formService.Duplicate(c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"form":    form,
	})
}
