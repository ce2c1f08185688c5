package herdbookserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/herdbook-api/internal/shared/validation"
)

// ValidationAPI exposes the form checks so clients validate exactly like the server.
type ValidationAPI struct{}

// NewValidationAPI creates a ValidationAPI.
func NewValidationAPI() ValidationAPI {
	return ValidationAPI{}
}

type valueRequest struct {
	Value string `json:"value"`
}

type validResponse struct {
	Valid bool `json:"valid"`
}

type passwordResponse struct {
	validation.PasswordRequirements
	Satisfied bool `json:"satisfied"`
}

// Post /v1/validation/password
func (api *ValidationAPI) CheckPassword(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	reqs := validation.CheckPassword(req.Value)
	c.JSON(http.StatusOK, passwordResponse{PasswordRequirements: reqs, Satisfied: reqs.Satisfied()})
}

// Post /v1/validation/phone
func (api *ValidationAPI) CheckPhone(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, validResponse{Valid: validation.ValidPhone(req.Value)})
}

// Post /v1/validation/email
func (api *ValidationAPI) CheckEmail(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, validResponse{Valid: validation.ValidEmail(req.Value)})
}
