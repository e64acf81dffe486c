// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsledger/backend/config"
	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/domain/entity"
	"github.com/opsledger/backend/internal/infra/dependency"
	"github.com/opsledger/backend/internal/integration/adapters"
	"github.com/opsledger/backend/internal/integration/persistence"
	"github.com/opsledger/backend/internal/integration/persistence/model"
	"github.com/opsledger/backend/test/integration/mock"
)

const testJWTSecret = "test-jwt-secret-key-for-testing-purposes"

// TestContext holds the test state for each scenario.
type TestContext struct {
	// HTTP
	server       *httptest.Server
	engine       *gin.Engine
	response     *http.Response
	responseBody []byte

	// Request building
	requestHeaders map[string]string

	// Auth
	accessToken string
	tokens      *adapters.TokenService

	// Backing services
	cfg              *config.Config
	db               *mock.Db
	redis            *mock.Redis
	injector         *dependency.Injector
	transactionRepo  adapter.TransactionRepository
	configRepo       adapter.ConfigurationRepository
	counterpartyRepo adapter.CounterpartyRepository
	clock            *mock.Time

	// Named fixtures
	tenants           map[string]uuid.UUID
	pools             map[string]*entity.InventoryPool
	lastTransactionID uuid.UUID

	// Concurrent fetch scenario
	fetch *fetchState
}

// contextKey is used to store TestContext in context.Context.
type contextKey struct{}

// GetTestContext retrieves the TestContext from context.
func GetTestContext(ctx context.Context) *TestContext {
	if tc, ok := ctx.Value(contextKey{}).(*TestContext); ok {
		return tc
	}
	return nil
}

// SetTestContext stores the TestContext in context.
func SetTestContext(ctx context.Context, tc *TestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)
	})
}

func testModels() map[string]any {
	return map[string]any{
		"transactions":    &model.TransactionModel{},
		"inventory_pools": &model.InventoryPoolModel{},
		"counterparties":  &model.CounterpartyModel{},
	}
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		cfg := config.Load()
		cfg.JWT.Secret = testJWTSecret
		cfg.Sync.MaxAttempts = 2
		cfg.Sync.InitialDelay = 10 * time.Millisecond
		cfg.Sync.RemoteTimeout = 5 * time.Second
		cfg.Sync.RevalidateInterval = time.Hour

		db := mock.NewDb(testModels())
		if err := db.ClearDB(); err != nil {
			return ctx, fmt.Errorf("failed to clear database: %w", err)
		}
		rdb, err := mock.StartRedis()
		if err != nil {
			return ctx, err
		}

		injector := dependency.NewInjector(cfg, db.DbConn, rdb.Client())

		tc := &TestContext{
			requestHeaders:   make(map[string]string),
			tokens:           adapters.NewTokenService(testJWTSecret),
			cfg:              cfg,
			db:               db,
			redis:            rdb,
			injector:         injector,
			transactionRepo:  persistence.NewTransactionRepository(db.DbConn, nil),
			configRepo:       persistence.NewConfigurationRepository(db.DbConn, nil),
			counterpartyRepo: persistence.NewCounterpartyRepository(db.DbConn, nil),
			clock:            mock.NewTime(),
			tenants:          make(map[string]uuid.UUID),
			pools:            make(map[string]*entity.InventoryPool),
		}
		tc.engine = injector.Router.Setup("test")
		tc.server = httptest.NewServer(tc.engine)

		return SetTestContext(ctx, tc), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc := GetTestContext(ctx)
		if tc == nil {
			return ctx, nil
		}
		if tc.server != nil {
			tc.server.Close()
		}
		if tc.fetch != nil {
			tc.fetch.releaseOnce()
		}
		tc.injector.Close()
		tc.redis.Close()
		return ctx, nil
	})

	registerAPISteps(ctx)
	registerResponseSteps(ctx)
	registerLedgerSteps(ctx)
	registerStockSteps(ctx)
	registerIdentitySteps(ctx)
	registerFetchSteps(ctx)
}

// registerAPISteps registers HTTP request steps.
func registerAPISteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the API server is running$`, theAPIServerIsRunning)
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)"$`, iSendARequestTo)
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, iSendARequestToWithBody)
	ctx.Step(`^I set header "([^"]*)" to "([^"]*)"$`, iSetHeaderTo)
}

// registerResponseSteps registers response validation steps.
func registerResponseSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the response status should be (\d+)$`, theResponseStatusShouldBe)
	ctx.Step(`^the response should be JSON$`, theResponseShouldBeJSON)
	ctx.Step(`^the response should contain "([^"]*)"$`, theResponseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, theResponseFieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should exist$`, theResponseFieldShouldExist)
	ctx.Step(`^the response list "([^"]*)" should contain "([^"]*)"$`, theResponseListShouldContain)
}

// Step implementations

func theAPIServerIsRunning(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil || tc.server == nil {
		return fmt.Errorf("test server is not running")
	}
	return nil
}

func iSendARequestTo(ctx context.Context, method, endpoint string) (context.Context, error) {
	return sendRequest(ctx, method, endpoint, "")
}

func iSendARequestToWithBody(ctx context.Context, method, endpoint string, body *godog.DocString) (context.Context, error) {
	return sendRequest(ctx, method, endpoint, body.Content)
}

func sendRequest(ctx context.Context, method, endpoint, body string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(tc.expand(body))
	}

	req, err := http.NewRequest(method, tc.server.URL+tc.expand(endpoint), reader)
	if err != nil {
		return ctx, fmt.Errorf("failed to create request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range tc.requestHeaders {
		req.Header.Set(key, value)
	}
	if tc.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.accessToken)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return ctx, fmt.Errorf("failed to send request: %w", err)
	}

	tc.response = resp
	tc.responseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return ctx, fmt.Errorf("failed to read response body: %w", err)
	}

	tc.rememberTransactionID()
	return SetTestContext(ctx, tc), nil
}

// expand replaces {last_transaction_id}, {tenant:NAME} and {pool:NAME} placeholders.
func (tc *TestContext) expand(s string) string {
	s = strings.ReplaceAll(s, "{last_transaction_id}", tc.lastTransactionID.String())
	for name, id := range tc.tenants {
		s = strings.ReplaceAll(s, "{tenant:"+name+"}", id.String())
	}
	for name, pool := range tc.pools {
		s = strings.ReplaceAll(s, "{pool:"+name+"}", pool.ID.String())
	}
	return s
}

// rememberTransactionID keeps the first row id of a transaction list response.
func (tc *TestContext) rememberTransactionID() {
	var data struct {
		Transactions []struct {
			ID string `json:"id"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(tc.responseBody, &data); err != nil || len(data.Transactions) == 0 {
		return
	}
	if id, err := uuid.Parse(data.Transactions[0].ID); err == nil {
		tc.lastTransactionID = id
	}
}

func iSetHeaderTo(ctx context.Context, header, value string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}
	tc.requestHeaders[header] = value
	return SetTestContext(ctx, tc), nil
}

func theResponseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}
	if tc.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expectedStatus, tc.response.StatusCode, string(tc.responseBody))
	}
	return nil
}

func theResponseShouldBeJSON(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	var js json.RawMessage
	if err := json.Unmarshal(tc.responseBody, &js); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	return nil
}

func theResponseShouldContain(ctx context.Context, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if !strings.Contains(string(tc.responseBody), expected) {
		return fmt.Errorf("response does not contain '%s'. Body: %s", expected, string(tc.responseBody))
	}
	return nil
}

func responseFields(tc *TestContext) (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(tc.responseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return data, nil
}

func theResponseFieldShouldBe(ctx context.Context, field, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}

	data, err := responseFields(tc)
	if err != nil {
		return err
	}

	value, ok := data[field]
	if !ok {
		return fmt.Errorf("field '%s' not found in response", field)
	}

	actual := fmt.Sprintf("%v", value)
	if actual != expected {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expected, actual)
	}

	return nil
}

func theResponseFieldShouldExist(ctx context.Context, field string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}

	data, err := responseFields(tc)
	if err != nil {
		return err
	}

	if _, ok := data[field]; !ok {
		return fmt.Errorf("field '%s' not found in response", field)
	}

	return nil
}

func theResponseListShouldContain(ctx context.Context, field, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}

	data, err := responseFields(tc)
	if err != nil {
		return err
	}

	list, ok := data[field].([]interface{})
	if !ok {
		return fmt.Errorf("field '%s' is not a list in response: %s", field, string(tc.responseBody))
	}
	for _, v := range list {
		if fmt.Sprintf("%v", v) == expected {
			return nil
		}
	}
	return fmt.Errorf("list '%s' does not contain '%s': %v", field, expected, list)
}
