package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Chamindu77/SFBS-Backend/internal/service"
)

func codeToHTTP(c service.Code) int {
	switch c {
	case service.CodeMissingField, service.CodeInvalidSlot, service.CodePastDate, service.CodeInvalidInput:
		return http.StatusBadRequest
	case service.CodeSlotConflict, service.CodeConflict:
		return http.StatusConflict
	case service.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error. Internal errors are logged and
// reported without details.
func writeError(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) || se.Code == service.CodeInternal {
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal server error", "code": service.CodeInternal})
		return
	}

	body := gin.H{"msg": se.Msg, "code": se.Code}
	switch se.Code {
	case service.CodeMissingField:
		body["fields"] = se.Fields
	case service.CodeInvalidSlot:
		body["invalidSlots"] = se.Slots
	case service.CodeSlotConflict:
		body["unavailableSlots"] = se.Slots
	}
	c.JSON(codeToHTTP(se.Code), body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"msg": msg, "code": service.CodeInvalidInput})
}
