package server

import (
	"errors"
	"net/http"
	"strings"

	"wordrush/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type bindMessages map[string]map[string]string

var commonMessages = bindMessages{
	"Username": {
		"required": "username is required",
		"username": "username must be 1-24 printable characters",
	},
	"JoinCode": {
		"required": "join_code is required",
		"joincode": "join_code is not valid",
	},
	"Avatar": {
		"max": "avatar is too large",
	},
}

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeBadRequest(c, resolveBindError(err, messages, fallback))
		return false
	}
	return true
}

func bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		c.JSON(http.StatusNotFound, errorBody{Error: string(game.CodeNotFound), Message: "room not found"})
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		writeBadRequest(c, resolveBindError(err, commonMessages, "invalid query"))
		return false
	}
	return true
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			field := verr.Field()
			if i := strings.IndexByte(field, '['); i >= 0 {
				field = field[:i]
			}
			for _, set := range []bindMessages{messages, commonMessages} {
				if fieldMsgs, ok := set[field]; ok {
					if msg, ok := fieldMsgs[verr.Tag()]; ok {
						return msg
					}
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
