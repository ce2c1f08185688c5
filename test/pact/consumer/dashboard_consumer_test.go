//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/herdbook-api/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type logRecord struct {
	ID    string `json:"id"`
	CowID string `json:"cowId"`
	Date  string `json:"date"`
}

type writeResponse struct {
	Record  logRecord `json:"record"`
	Warning string    `json:"warning"`
}

type collectionResponse struct {
	Collection string      `json:"collection"`
	Records    []logRecord `json:"records"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
}

func (e apiError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.title, e.status)
}

func TestDashboardContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	recordMatcher := matchers.Map{
		"id":    matchers.Like("9b2f0c56-8f7e-4c1f-9a57-0d5ac5f1c8e2"),
		"cowId": matchers.Like(pacttest.ExampleCowID),
		"date":  matchers.Term(pacttest.ExampleDate, `^\d{4}-\d{2}-\d{2}$`),
		"feed": matchers.Map{
			"feedType":   matchers.Like("silage"),
			"quantityKg": matchers.Like(12.5),
		},
	}

	pact.AddInteraction().
		Given(pacttest.StateLogsBaseline).
		UponReceiving("a request to append a feed log").
		WithRequest("POST", "/v1/logs/feedLogs", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExampleFeedPayload())
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{"record": recordMatcher})
		})

	pact.AddInteraction().
		Given(pacttest.StateFeedLogExists).
		UponReceiving("a request to list feed logs").
		WithRequest("GET", "/v1/logs/feedLogs").
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"collection": matchers.S("feedLogs"),
				"records":    matchers.EachLike(recordMatcher, 1),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateLogsBaseline).
		UponReceiving("a request for an unknown collection").
		WithRequest("GET", "/v1/logs/milkLogs").
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateLogsBaseline).
		UponReceiving("a request to check an owner phone").
		WithRequest("POST", "/v1/validation/phone", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(map[string]any{"value": pacttest.ExampleValidPhone})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{"valid": matchers.Like(true)})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newDashboardClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var written writeResponse
		if err := client.do(ctx, http.MethodPost, "/v1/logs/feedLogs", pacttest.ExampleFeedPayload(), &written); err != nil {
			return fmt.Errorf("append feed log: %w", err)
		}
		if written.Record.ID == "" || written.Warning != "" {
			return fmt.Errorf("expected a saved record, got %+v", written)
		}

		var listed collectionResponse
		if err := client.do(ctx, http.MethodGet, "/v1/logs/feedLogs", nil, &listed); err != nil {
			return fmt.Errorf("list feed logs: %w", err)
		}
		if len(listed.Records) == 0 || listed.Records[0].CowID != pacttest.ExampleCowID {
			return fmt.Errorf("expected the seeded feed log, got %+v", listed)
		}

		err := client.do(ctx, http.MethodGet, "/v1/logs/milkLogs", nil, nil)
		if apiErr, ok := err.(apiError); !ok || apiErr.status != http.StatusNotFound {
			return fmt.Errorf("expected 404 for unknown collection, got %v", err)
		}

		var phone struct {
			Valid bool `json:"valid"`
		}
		if err := client.do(ctx, http.MethodPost, "/v1/validation/phone", map[string]any{"value": pacttest.ExampleValidPhone}, &phone); err != nil {
			return fmt.Errorf("check phone: %w", err)
		}
		if !phone.Valid {
			return fmt.Errorf("expected %s to be valid", pacttest.ExampleValidPhone)
		}
		return nil
	})
	require.NoError(t, err)
}

type dashboardClient struct {
	baseURL    string
	httpClient *http.Client
}

func newDashboardClient(config pactconsumer.MockServerConfig) *dashboardClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &dashboardClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *dashboardClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var problem problemDetail
		_ = json.NewDecoder(res.Body).Decode(&problem)
		return apiError{status: res.StatusCode, title: problem.Title}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
