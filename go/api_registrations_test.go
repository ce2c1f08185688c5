package herdbookserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reghttpmapper "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/http/mapper"
	regmemory "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/memory"
	regapp "github.com/Apurer/herdbook-api/internal/domains/registrations/application"
	regtypes "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	regports "github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
	"github.com/Apurer/herdbook-api/internal/platform/blob"
	apierrors "github.com/Apurer/herdbook-api/internal/shared/errors"
)

type fakeOrchestrator struct {
	mu       sync.Mutex
	calls    int
	bearer   string
	response *regtypes.SubmissionResponse
}

func (f *fakeOrchestrator) Submit(_ context.Context, submission regtypes.AssetSubmission) (*regtypes.SubmissionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.bearer = submission.BearerToken
	return f.response, nil
}

func newRegistrationRouter(t *testing.T, orchestrator *fakeOrchestrator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := regapp.NewService(regmemory.NewRepository(), blob.NewMemory(), regapp.WithOrchestrator(orchestrator))
	return NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{
		RegistrationAPI: NewRegistrationAPI(svc),
		ValidationAPI:   NewValidationAPI(),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func startWizard(t *testing.T, router http.Handler) reghttpmapper.Wizard {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/v1/registrations", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var wizard reghttpmapper.Wizard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wizard))
	require.NotEmpty(t, wizard.ID)
	return wizard
}

func TestRegistrationAPI_WizardFlow(t *testing.T) {
	orchestrator := &fakeOrchestrator{response: &regtypes.SubmissionResponse{StatusCode: http.StatusCreated, AssetID: "asset-7"}}
	router := newRegistrationRouter(t, orchestrator)
	wizard := startWizard(t, router)
	base := "/v1/registrations/" + wizard.ID

	rec := doJSON(t, router, http.MethodPatch, base+"/draft", map[string]any{"breed": "Holstein", "owner_phone": "01712345678"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, base+"/draft", map[string]any{"color": "black"})
	require.Equal(t, http.StatusOK, rec.Code)
	var merged reghttpmapper.Wizard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merged))
	require.NotNil(t, merged.Draft.Breed)
	assert.Equal(t, "Holstein", *merged.Draft.Breed)

	for i := 0; i < 3; i++ {
		rec = doJSON(t, router, http.MethodPost, base+"/next", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	var step reghttpmapper.StepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &step))
	assert.Equal(t, 2, step.Wizard.Step)

	rec = doJSON(t, router, http.MethodPost, base+"/submit", map[string]any{"latitude": 23.8, "longitude": 90.4}, "Authorization", "Bearer secret")
	require.Equal(t, http.StatusOK, rec.Code)
	var submitted reghttpmapper.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	assert.Equal(t, "success", submitted.Outcome.Status)
	assert.Equal(t, 0, submitted.Wizard.Step)
	assert.Nil(t, submitted.Wizard.Draft.Breed)
	assert.Equal(t, "secret", orchestrator.bearer)
}

func TestRegistrationAPI_SubmitWithoutLocation(t *testing.T) {
	orchestrator := &fakeOrchestrator{}
	router := newRegistrationRouter(t, orchestrator)
	wizard := startWizard(t, router)
	base := "/v1/registrations/" + wizard.ID
	doJSON(t, router, http.MethodPost, base+"/next", nil)
	doJSON(t, router, http.MethodPost, base+"/next", nil)

	rec := doJSON(t, router, http.MethodPost, base+"/submit", map[string]any{"locationError": "permission_denied"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Zero(t, orchestrator.calls)
}

func TestRegistrationAPI_SubmitRejectedByBackend(t *testing.T) {
	orchestrator := &fakeOrchestrator{response: &regtypes.SubmissionResponse{StatusCode: http.StatusUnauthorized}}
	router := newRegistrationRouter(t, orchestrator)
	wizard := startWizard(t, router)
	base := "/v1/registrations/" + wizard.ID
	doJSON(t, router, http.MethodPost, base+"/next", nil)
	doJSON(t, router, http.MethodPost, base+"/next", nil)

	rec := doJSON(t, router, http.MethodPost, base+"/submit", map[string]any{"latitude": 1.0, "longitude": 2.0})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var submitted reghttpmapper.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	assert.Equal(t, "session_expired", submitted.Outcome.Status)
	assert.Equal(t, 2, submitted.Wizard.Step)
}

func TestRegistrationAPI_InvalidPhoneBlocksSubmit(t *testing.T) {
	orchestrator := &fakeOrchestrator{}
	router := newRegistrationRouter(t, orchestrator)
	wizard := startWizard(t, router)
	base := "/v1/registrations/" + wizard.ID
	doJSON(t, router, http.MethodPatch, base+"/draft", map[string]any{"owner_phone": "02712345678"})
	doJSON(t, router, http.MethodPost, base+"/next", nil)
	doJSON(t, router, http.MethodPost, base+"/next", nil)

	rec := doJSON(t, router, http.MethodPost, base+"/submit", map[string]any{"latitude": 1.0, "longitude": 2.0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
	assert.Contains(t, problem.Extensions["fields"], "owner_phone")
	assert.Zero(t, orchestrator.calls)
}

func TestRegistrationAPI_Attachments(t *testing.T) {
	router := newRegistrationRouter(t, &fakeOrchestrator{})
	wizard := startWizard(t, router)
	base := "/v1/registrations/" + wizard.ID

	upload := func(slot, content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", slot+".jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPut, base+"/attachments/"+slot, &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("left_side_image", "left")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = upload("owner_image", "owner")
	require.Equal(t, http.StatusOK, rec.Code)
	var wizardResp reghttpmapper.Wizard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wizardResp))
	assert.Len(t, wizardResp.Attachments, 2)
	assert.Equal(t, "owner_image.jpg", wizardResp.Attachments["owner_image"].Filename)
	assert.Equal(t, int64(len("owner")), wizardResp.Attachments["owner_image"].Size)

	rec = upload("tail_image", "tail")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, base+"/attachments/owner_image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cleared reghttpmapper.Wizard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.Contains(t, cleared.Attachments, "left_side_image")
	assert.NotContains(t, cleared.Attachments, "owner_image")
}

type recordingMatcher struct {
	filename string
	content  string
}

func (m *recordingMatcher) Register(ctx context.Context, video regports.MuzzleVideo) (*regtypes.MuzzleMatch, error) {
	return m.Claim(ctx, video)
}

func (m *recordingMatcher) Claim(_ context.Context, video regports.MuzzleVideo) (*regtypes.MuzzleMatch, error) {
	data, err := io.ReadAll(video.Content)
	if err != nil {
		return nil, err
	}
	m.filename, m.content = video.Filename, string(data)
	return &regtypes.MuzzleMatch{ReferenceID: "RF-12", AnimalName: "Lali"}, nil
}

func TestRegistrationAPI_ClaimMuzzleReadsUploadedVideo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	matcher := &recordingMatcher{}
	svc := regapp.NewService(regmemory.NewRepository(), blob.NewMemory(), regapp.WithMuzzleMatcher(matcher))
	router := NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{RegistrationAPI: NewRegistrationAPI(svc)})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("video", "muzzle.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("frames"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/muzzle/claim", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp reghttpmapper.MuzzleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RF-12", resp.ReferenceID)
	assert.Equal(t, "muzzle.mp4", matcher.filename)
	assert.Equal(t, "frames", matcher.content)

	rec = doJSON(t, router, http.MethodPost, "/v1/muzzle/claim", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistrationAPI_UnknownWizard(t *testing.T) {
	router := newRegistrationRouter(t, &fakeOrchestrator{})
	rec := doJSON(t, router, http.MethodGet, "/v1/registrations/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), apierrors.ContentTypeProblemJSON))
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]string{
		"":               "",
		"Bearer abc":     "abc",
		"bearer  xyz ":   "xyz",
		"Basic dXNlcjpw": "",
		"Bearer":         "",
	}
	for header, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		assert.Equal(t, want, bearerToken(c), header)
	}
}

func TestValidationAPI(t *testing.T) {
	router := newRegistrationRouter(t, &fakeOrchestrator{})

	rec := doJSON(t, router, http.MethodPost, "/v1/validation/phone", map[string]string{"value": "01712345678"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/v1/validation/password", map[string]string{"value": "password"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"minLength":true,"hasUppercase":false,"hasLowercase":true,"hasNumber":false,"hasSpecialChar":false,"satisfied":false}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/v1/validation/email", map[string]string{"value": "farmer@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true}`, rec.Body.String())
}
