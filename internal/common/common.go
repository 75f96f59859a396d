package common

import (
	"crypto/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

// OK writes a success envelope merged with extra payload fields.
func OK(c *gin.Context, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail writes a failure envelope with a human-readable message.
func Fail(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{"success": false, "message": msg})
}

func NewULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
