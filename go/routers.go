package herdbookserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes whose handler was not wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

type ApiHandleFunctions struct {
	// Routes for the RegistrationAPI part of the API
	RegistrationAPI RegistrationAPI
	// Routes for the LogAPI part of the API
	LogAPI LogAPI
	// Routes for the ValidationAPI part of the API
	ValidationAPI ValidationAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"StartRegistration", http.MethodPost, "/v1/registrations", handleFunctions.RegistrationAPI.StartRegistration},
		{"GetRegistration", http.MethodGet, "/v1/registrations/:id", handleFunctions.RegistrationAPI.GetRegistration},
		{"UpdateDraft", http.MethodPatch, "/v1/registrations/:id/draft", handleFunctions.RegistrationAPI.UpdateDraft},
		{"NextStep", http.MethodPost, "/v1/registrations/:id/next", handleFunctions.RegistrationAPI.NextStep},
		{"PreviousStep", http.MethodPost, "/v1/registrations/:id/back", handleFunctions.RegistrationAPI.PreviousStep},
		{"SetAttachment", http.MethodPut, "/v1/registrations/:id/attachments/:slot", handleFunctions.RegistrationAPI.SetAttachment},
		{"ClearAttachment", http.MethodDelete, "/v1/registrations/:id/attachments/:slot", handleFunctions.RegistrationAPI.ClearAttachment},
		{"DetectMuzzle", http.MethodPost, "/v1/registrations/:id/muzzle-detection", handleFunctions.RegistrationAPI.DetectMuzzle},
		{"SubmitRegistration", http.MethodPost, "/v1/registrations/:id/submit", handleFunctions.RegistrationAPI.SubmitRegistration},
		{"ResetRegistration", http.MethodPost, "/v1/registrations/:id/reset", handleFunctions.RegistrationAPI.ResetRegistration},
		{"ClaimMuzzle", http.MethodPost, "/v1/muzzle/claim", handleFunctions.RegistrationAPI.ClaimMuzzle},
		{"GetReferenceData", http.MethodGet, "/v1/reference-data", handleFunctions.RegistrationAPI.GetReferenceData},
		{"ListLogs", http.MethodGet, "/v1/logs/:collection", handleFunctions.LogAPI.ListLogs},
		{"AppendLog", http.MethodPost, "/v1/logs/:collection", handleFunctions.LogAPI.AppendLog},
		{"ReplaceLog", http.MethodPut, "/v1/logs/:collection/:id", handleFunctions.LogAPI.ReplaceLog},
		{"UpdatePregnancyStatus", http.MethodPatch, "/v1/logs/:collection/:id/pregnancy", handleFunctions.LogAPI.UpdatePregnancyStatus},
		{"StreamLogs", http.MethodGet, "/v1/logs/:collection/stream", handleFunctions.LogAPI.StreamLogs},
		{"CheckPassword", http.MethodPost, "/v1/validation/password", handleFunctions.ValidationAPI.CheckPassword},
		{"CheckPhone", http.MethodPost, "/v1/validation/phone", handleFunctions.ValidationAPI.CheckPhone},
		{"CheckEmail", http.MethodPost, "/v1/validation/email", handleFunctions.ValidationAPI.CheckEmail},
	}
}
