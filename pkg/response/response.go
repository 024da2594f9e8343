package response

import (
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// Workspace data is per session, so nothing the API returns may be cached by intermediaries.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON writes data in the envelope. The first non-nil meta map is attached.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	for _, m := range meta {
		if m != nil {
			envelope.Meta = m
			break
		}
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error writes err in the envelope with its mapped status.
// Upstream failures carry meta.retryable so the views can offer a Retry action.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	envelope := Envelope{Error: appErr}
	if appErrors.Retryable(appErr) {
		envelope.Meta = map[string]interface{}{"retryable": true}
	}
	c.JSON(appErr.Status, envelope)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment sends data as a file download named filename.
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	disposition(c, filename)
	c.Data(http.StatusOK, contentType, data)
}

// Stream sends size bytes from r as a file download named filename.
func Stream(c *gin.Context, filename, contentType string, size int64, r io.Reader) {
	disposition(c, filename)
	c.DataFromReader(http.StatusOK, size, contentType, r, nil)
}

func disposition(c *gin.Context, filename string) {
	noStore(c)
	value := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if value == "" {
		value = "attachment"
	}
	c.Header("Content-Disposition", value)
}
