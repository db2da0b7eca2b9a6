package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeJSON decodes the request body into target.
func DecodeJSON(r *http.Request, target interface{}) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// ValidateRequest checks target against its struct tags. Types that carry
// their own Validate method use that instead.
func ValidateRequest(target interface{}) error {
	if v, ok := target.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return validate.Struct(target)
}
