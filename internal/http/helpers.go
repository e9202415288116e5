package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// page renders a template when templates are loaded and answers JSON otherwise.
type page struct {
	html bool
}

func (p page) render(c *gin.Context, status int, name string, data gin.H) {
	if !p.html {
		c.JSON(status, data)
		return
	}
	c.HTML(status, name, data)
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondUnavailable logs the error and sends a 503 response.
func respondUnavailable(c *gin.Context, err error, context string) {
	log.Printf("Store unavailable (%s): %v", context, err)
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service temporarily unavailable"})
}
