package server

import (
	"errors"
	"net/http"

	"wordrush/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(code game.Code) int {
	switch code {
	case game.CodeNotFound:
		return http.StatusNotFound
	case game.CodeUnauthorized:
		return http.StatusForbidden
	case game.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeGameError maps a room error to its HTTP status. Anything that is not a
// *game.Error is reported as an internal error without its details.
func writeGameError(c *gin.Context, err error) {
	code := game.ErrorCode(err)
	message := "internal error"
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		message = gameErr.Message
	}
	if code == game.CodeInternal {
		log.Error().Err(err).Str("path", c.FullPath()).Str("room_id", c.Param("id")).Msg("request failed")
	}
	c.JSON(statusFor(code), errorBody{Error: string(code), Message: message})
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: string(game.CodeBadRequest), Message: message})
}
