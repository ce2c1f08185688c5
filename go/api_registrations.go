package herdbookserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	reghttpmapper "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/http/mapper"
	regtypes "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
	regports "github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
	apierrors "github.com/Apurer/herdbook-api/internal/shared/errors"
)

// RegistrationAPI wires HTTP transport with the registrations bounded context.
type RegistrationAPI struct {
	service regports.Service
}

// NewRegistrationAPI creates a RegistrationAPI backed by the provided service.
func NewRegistrationAPI(service regports.Service) RegistrationAPI {
	return RegistrationAPI{service: service}
}

// Post /v1/registrations
// Opens a registration wizard
func (api *RegistrationAPI) StartRegistration(c *gin.Context) {
	saved, err := api.service.Start(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reghttpmapper.FromProjection(saved))
}

// Get /v1/registrations/:id
func (api *RegistrationAPI) GetRegistration(c *gin.Context) {
	wizard, err := api.service.Get(c.Request.Context(), regtypes.WizardIdentifier{ID: c.Param("id")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromProjection(wizard))
}

// Patch /v1/registrations/:id/draft
// Merges the provided fields into the draft
func (api *RegistrationAPI) UpdateDraft(c *gin.Context) {
	var payload reghttpmapper.Details
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	updated, err := api.service.UpdateDraft(c.Request.Context(), regtypes.UpdateDraftInput{
		ID:    c.Param("id"),
		Patch: reghttpmapper.ToPatch(payload),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromProjection(updated))
}

// Post /v1/registrations/:id/next
func (api *RegistrationAPI) NextStep(c *gin.Context) {
	result, err := api.service.Next(c.Request.Context(), regtypes.WizardIdentifier{ID: c.Param("id")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromStepResult(result))
}

// Post /v1/registrations/:id/back
func (api *RegistrationAPI) PreviousStep(c *gin.Context) {
	result, err := api.service.Back(c.Request.Context(), regtypes.WizardIdentifier{ID: c.Param("id")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromStepResult(result))
}

// Put /v1/registrations/:id/attachments/:slot
// Fills an attachment slot from the multipart "file" field
func (api *RegistrationAPI) SetAttachment(c *gin.Context) {
	slot, ok := parseSlotParam(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	var file openapi_types.File
	file.InitFromMultipart(header)
	updated, err := api.service.SetAttachment(c.Request.Context(), regtypes.AttachmentInput{
		ID:          c.Param("id"),
		Slot:        slot,
		File:        file,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromProjection(updated))
}

// Delete /v1/registrations/:id/attachments/:slot
func (api *RegistrationAPI) ClearAttachment(c *gin.Context) {
	slot, ok := parseSlotParam(c)
	if !ok {
		return
	}
	updated, err := api.service.ClearAttachment(c.Request.Context(), regtypes.ClearAttachmentInput{ID: c.Param("id"), Slot: slot})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromProjection(updated))
}

// Post /v1/registrations/:id/muzzle-detection
// Sends the muzzle video to the matcher and stores the reference id
func (api *RegistrationAPI) DetectMuzzle(c *gin.Context) {
	result, err := api.service.DetectMuzzle(c.Request.Context(), regtypes.WizardIdentifier{ID: c.Param("id")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromMuzzleResult(result))
}

// Post /v1/muzzle/claim
// Identifies an already registered animal from the multipart "video" field
func (api *RegistrationAPI) ClaimMuzzle(c *gin.Context) {
	header, err := c.FormFile("video")
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	var video openapi_types.File
	video.InitFromMultipart(header)
	match, err := api.service.ClaimMuzzle(c.Request.Context(), regtypes.ClaimInput{Video: video})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromMuzzleMatch(match))
}

// Post /v1/registrations/:id/submit
// Sends the draft to the farm backend. The body carries the device position.
func (api *RegistrationAPI) SubmitRegistration(c *gin.Context) {
	var payload reghttpmapper.SubmitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
	}
	result, err := api.service.Submit(c.Request.Context(), reghttpmapper.ToSubmitInput(c.Param("id"), bearerToken(c), payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(submitStatus(result), reghttpmapper.FromSubmitResult(result))
}

// Post /v1/registrations/:id/reset
func (api *RegistrationAPI) ResetRegistration(c *gin.Context) {
	reset, err := api.service.Reset(c.Request.Context(), regtypes.WizardIdentifier{ID: c.Param("id")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromProjection(reset))
}

// Get /v1/reference-data
// Loads the animal details dropdown lists; failed lists are reported per list
func (api *RegistrationAPI) GetReferenceData(c *gin.Context) {
	data, err := api.service.ReferenceData(c.Request.Context(), bearerToken(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reghttpmapper.FromReferenceData(data))
}

func submitStatus(result *regtypes.SubmitResult) int {
	if result.Stale {
		return http.StatusConflict
	}
	switch result.Outcome.Status {
	case domain.OutcomeSuccess:
		return http.StatusOK
	case domain.OutcomeValidationError:
		return http.StatusBadRequest
	case domain.OutcomeSessionExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func parseSlotParam(c *gin.Context) (domain.Slot, bool) {
	slot, err := domain.ParseSlot(c.Param("slot"))
	if err != nil {
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()).WithExtension("slots", domain.Slots))
		return "", false
	}
	return slot, true
}

// bearerToken forwards the caller's token; a missing header yields an empty token.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
