package validation

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Text     string `json:"text" binding:"text"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,pwd"`
}

func TestToDetailsUsesJSONNames(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(&sample{Text: "   ", Email: "nope", Password: "short"})
	details := ToDetails(err)

	assert.Equal(t, "is required", details["text"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "min length 8", details["password"])
}

func TestToDetailsValidStruct(t *testing.T) {
	Init()
	err := binding.Validator.ValidateStruct(&sample{Text: "hello"})
	assert.NoError(t, err)
	assert.Nil(t, ToDetails(err))
}

func TestToDetailsInvalidJSON(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte("{"), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}
