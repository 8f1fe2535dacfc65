package server

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"wordrush/internal/game"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	minJoinCodeLength = 4
	maxJoinCodeLength = 12
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return validUsername(fl.Field().String())
		})
		_ = engine.RegisterValidation("joincode", func(fl validator.FieldLevel) bool {
			return validJoinCode(fl.Field().String())
		})
		_ = engine.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			_, ok := game.LookupCategory(fl.Field().String())
			return ok
		})
		_ = engine.RegisterValidation("letter", func(fl validator.FieldLevel) bool {
			return validLetter(fl.Field().String())
		})
	})
}

func validUsername(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > game.MaxUsernameLength {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func validJoinCode(code string) bool {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) < minJoinCodeLength || len(trimmed) > maxJoinCodeLength {
		return false
	}
	for _, r := range trimmed {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func validLetter(text string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(text))
	return len(trimmed) == 1 && trimmed[0] >= 'A' && trimmed[0] <= 'Z'
}
