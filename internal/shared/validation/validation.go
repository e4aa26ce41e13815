// Package validation registers the custom binding tags used by request DTOs.
package validation

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// PhonePattern accepts digits, spaces, '+', '-' and '.' between 8 and 20 characters.
var PhonePattern = regexp.MustCompile(`^[\d\s\+\-\.]{8,20}$`)

var once sync.Once

// Register installs the custom tags on gin's default validator. Safe to call more than once.
func Register() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			RegisterOn(v)
		}
	})
}

// RegisterOn installs the custom tags on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("busphone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
}

// New returns a standalone validator with the custom tags installed.
func New() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func IsPhone(s string) bool {
	return PhonePattern.MatchString(s)
}
