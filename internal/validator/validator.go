// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Exchange suffixes (BRK.B, RY.TO), index carets (^GSPC) and FX pairs (EURUSD=X).
var tickerRegex = regexp.MustCompile(`^\^?[A-Za-z0-9]+([.\-=][A-Za-z0-9]+)*$`)

const maxTickerLength = 20

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("ticker", validateTicker)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch strings.ToUpper(fl.Field().String()) {
	case "BUY", "SELL", "DIVIDEND":
		return true
	}
	return false
}

func validateTicker(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	return len(s) <= maxTickerLength && tickerRegex.MatchString(s)
}
