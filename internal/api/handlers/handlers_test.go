package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/exportai/backend/internal/analysis"
	"github.com/exportai/backend/internal/auth"
	"github.com/exportai/backend/internal/llm"
	authmw "github.com/exportai/backend/internal/middleware/auth"
	"github.com/exportai/backend/internal/notify"
	"github.com/exportai/backend/internal/storage/sqlite"
)

// stubCompleter satisfies analysis.Completer with canned documents keyed
// by schema name.
type stubCompleter struct {
	responses map[string]string
	err       error
}

func (s *stubCompleter) CompleteJSON(_ context.Context, req llm.Request) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	resp, ok := s.responses[req.SchemaName]
	if !ok {
		return nil, errors.New("no canned response for schema " + req.SchemaName)
	}
	return json.RawMessage(resp), nil
}

type testEnv struct {
	app       *fiber.App
	store     *sqlite.Client
	completer *stubCompleter
}

// newTestEnv wires the REST surface the way the server does, minus the
// outer middleware that does not affect handler behavior.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema())

	issuer, err := auth.NewTokenIssuer("test-secret", 60)
	require.NoError(t, err)
	tokenCache := auth.NewTokenCache(issuer, 0)

	completer := &stubCompleter{responses: map[string]string{}}
	service := analysis.NewService(store, completer, nil)
	hub := notify.NewHub()

	authHandler := NewAuthHandler(store, issuer, tokenCache, bcrypt.MinCost)
	profileHandler := NewProfileHandler(store)
	companyHandler := NewCompanyHandler(store)
	productHandler := NewProductHandler(store)
	outreachHandler := NewOutreachHandler(store)
	analysisHandler := NewAnalysisHandler(store, service, nil)
	notificationHandler := NewNotificationHandler(store, hub)

	app := fiber.New()
	api := app.Group("/api")

	api.Post("/auth/signup", authHandler.SignUp)
	api.Post("/auth/signin", authHandler.SignIn)

	api.Use(authmw.Middleware(tokenCache))

	api.Post("/auth/signout", authHandler.SignOut)
	api.Post("/auth/change-password", authHandler.ChangePassword)
	api.Delete("/auth/delete-account", authHandler.DeleteAccount)

	api.Get("/profile", profileHandler.GetProfile)
	api.Put("/profile", profileHandler.UpdateProfile)

	api.Get("/companies", companyHandler.ListCompanies)
	api.Post("/companies", companyHandler.CreateCompany)

	api.Get("/products", productHandler.ListProducts)
	api.Post("/products", productHandler.CreateProduct)
	api.Get("/target-markets", productHandler.ListTargetMarkets)
	api.Post("/target-markets", productHandler.CreateTargetMarket)

	api.Get("/campaigns", outreachHandler.ListCampaigns)
	api.Post("/campaigns", outreachHandler.CreateCampaign)
	api.Get("/potential-buyers", outreachHandler.ListBuyers)
	api.Post("/potential-buyers", outreachHandler.CreateBuyer)

	api.Get("/product-matching", analysisHandler.ListProductMatches)
	api.Post("/product-matching", analysisHandler.RunProductMatching)
	api.Get("/risk-assessment", analysisHandler.ListRiskAssessments)
	api.Post("/risk-assessment", analysisHandler.RunRiskAssessment)
	api.Post("/ai-predictions", analysisHandler.RunPrediction)

	api.Get("/notifications", notificationHandler.ListNotifications)
	api.Post("/notifications", notificationHandler.CreateNotification)
	api.Put("/notifications", notificationHandler.MarkNotifications)

	return &testEnv{app: app, store: store, completer: completer}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// signUp registers a user and returns the session token.
func (e *testEnv) signUp(t *testing.T, email string) string {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) createCompany(t *testing.T, token, name string) int64 {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/api/companies", token, fiber.Map{
		"company_name": name,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	company := body["company"].(map[string]interface{})
	return int64(company["id"].(float64))
}

func TestSignUpAndDuplicate(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email":    "Owner@Example.com",
		"password": "secret123",
		"name":     "Owner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "owner@example.com", user["email"])
	assert.NotEmpty(t, body["token"])

	resp = env.request(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email":    "owner@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "An account with this email already exists", body["error"])
}

func TestSignUpShortPassword(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email":    "owner@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignInWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "owner@example.com")

	resp := env.request(t, http.MethodPost, "/api/auth/signin", "", fiber.Map{
		"email":    "owner@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid email or password", body["error"])

	// Unknown email gets the same response.
	resp = env.request(t, http.MethodPost, "/api/auth/signin", "", fiber.Map{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Invalid email or password", body["error"])
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/companies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Authentication required", body["error"])
}

func TestSignOutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")

	resp := env.request(t, http.MethodPost, "/api/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/companies", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid or expired session", body["error"])
}

func TestCreateCompany(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")

	resp := env.request(t, http.MethodPost, "/api/companies", token, fiber.Map{
		"company_name":   "  Acme Exports  ",
		"annual_revenue": "1000000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	company := body["company"].(map[string]interface{})
	assert.Equal(t, "Acme Exports", company["company_name"])
	assert.NotZero(t, company["id"])
	assert.NotZero(t, company["user_id"])
	// Numeric strings are accepted for revenue.
	assert.Equal(t, float64(1000000), company["annual_revenue"])
	// Absent optionals stay null.
	assert.Nil(t, company["industry"])
	assert.Nil(t, company["country"])
}

func TestCreateCompanyMissingName(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")

	resp := env.request(t, http.MethodPost, "/api/companies", token, fiber.Map{
		"industry": "Textiles",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Company name is required", body["error"])
}

func TestListCompaniesEnvelope(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")
	env.createCompany(t, token, "Acme")

	resp := env.request(t, http.MethodGet, "/api/companies", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	companies := body["companies"].([]interface{})
	assert.Len(t, companies, 1)
}

func TestCreateProductRequiresOwnedCompany(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	intruder := env.signUp(t, "intruder@example.com")
	companyID := env.createCompany(t, owner, "Acme")

	resp := env.request(t, http.MethodPost, "/api/products", intruder, fiber.Map{
		"company_id":   companyID,
		"product_name": "Cotton T-shirts",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/products", owner, fiber.Map{
		"company_id":   companyID,
		"product_name": "Cotton T-shirts",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRiskAssessmentMissingTargetMarket(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")
	companyID := env.createCompany(t, token, "Acme")

	resp := env.request(t, http.MethodPost, "/api/risk-assessment", token, fiber.Map{
		"company_id": companyID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Company ID and target market are required", body["error"])
}

func TestRiskAssessmentCompletionFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")
	companyID := env.createCompany(t, token, "Acme")

	env.completer.err = errors.New("upstream timeout")

	resp := env.request(t, http.MethodPost, "/api/risk-assessment", token, fiber.Map{
		"company_id":    companyID,
		"target_market": "Germany",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody(t, resp)
	// Provider details never leak to the client.
	assert.Equal(t, "Failed to create assessment", body["error"])

	stored, err := env.store.ListRiskAssessments(companyID, "", "")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRiskAssessmentSuccess(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")
	companyID := env.createCompany(t, token, "Acme")

	env.completer.responses["risk_assessment"] = `{
	  "overall_risk_score": 0.45,
	  "risk_categories": {"political": 0.3, "economic": 0.5, "regulatory": 0.4, "currency": 0.6, "market": 0.35, "operational": 0.25},
	  "risk_factors": ["currency volatility"],
	  "mitigation_strategies": ["hedge exposure"],
	  "recommendations": ["start small"],
	  "confidence_score": 0.8,
	  "summary": {"risk_level": "Medium", "primary_concerns": ["currency"], "market_entry_advice": "Proceed", "monitoring_priorities": ["fx"]}
	}`

	resp := env.request(t, http.MethodPost, "/api/risk-assessment", token, fiber.Map{
		"company_id":    companyID,
		"target_market": "Germany",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "success", body["status"])
	assessment := body["assessment"].(map[string]interface{})
	assert.Equal(t, 0.45, assessment["overall_risk_score"])
	summary := body["analysis_summary"].(map[string]interface{})
	assert.Equal(t, "Medium", summary["risk_level"])
}

func TestRiskAssessmentForeignCompany(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	intruder := env.signUp(t, "intruder@example.com")
	companyID := env.createCompany(t, owner, "Acme")

	resp := env.request(t, http.MethodPost, "/api/risk-assessment", intruder, fiber.Map{
		"company_id":    companyID,
		"target_market": "Germany",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListProductMatchesRequiresCompany(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")

	resp := env.request(t, http.MethodGet, "/api/product-matching", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Company ID is required", body["error"])
}

func TestRunPredictionInvalidTypeIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")
	companyID := env.createCompany(t, token, "Acme")

	resp := env.request(t, http.MethodPost, "/api/ai-predictions", token, fiber.Map{
		"company_id":      companyID,
		"prediction_type": "weather_forecast",
		"period":          "12_months",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "invalid prediction type", body["error"])
}

func TestUpdateProfileEmptyPatch(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")

	resp := env.request(t, http.MethodPut, "/api/profile", token, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProfileClearsField(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")

	resp := env.request(t, http.MethodPut, "/api/profile", token, fiber.Map{
		"company_name": "Acme Exports",
		"country":      "Turkey",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Sending an empty string blanks the field instead of skipping it.
	resp = env.request(t, http.MethodPut, "/api/profile", token, fiber.Map{
		"country": "",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Acme Exports", user["company_name"])
	assert.Equal(t, "", user["country"])
}

func TestNotificationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")

	var ids []int64
	for i := 0; i < 3; i++ {
		resp := env.request(t, http.MethodPost, "/api/notifications", token, fiber.Map{
			"type":    "market_alert",
			"title":   "New Market Opportunity",
			"message": "Germany shows growth potential",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		n := body["notification"].(map[string]interface{})
		ids = append(ids, int64(n["id"].(float64)))
	}

	resp := env.request(t, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(3), body["unread_count"])
	assert.Equal(t, false, body["has_more"])

	resp = env.request(t, http.MethodPut, "/api/notifications", token, fiber.Map{
		"notification_ids": ids[:2],
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["updated"])
	assert.Equal(t, float64(1), body["unread_count"])
}

func TestCreateNotificationMissingFields(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")

	resp := env.request(t, http.MethodPost, "/api/notifications", token, fiber.Map{
		"type": "market_alert",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChangePasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")

	resp := env.request(t, http.MethodPost, "/api/auth/change-password", token, fiber.Map{
		"currentPassword": "wrong",
		"newPassword":     "newsecret",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Current password is incorrect", body["error"])

	resp = env.request(t, http.MethodPost, "/api/auth/change-password", token, fiber.Map{
		"currentPassword": "secret123",
		"newPassword":     "newsecret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/auth/signin", "", fiber.Map{
		"email":    "owner@example.com",
		"password": "newsecret",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")
	env.createCompany(t, token, "Acme")

	resp := env.request(t, http.MethodDelete, "/api/auth/delete-account", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The session dies with the account.
	resp = env.request(t, http.MethodGet, "/api/companies", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/auth/signin", "", fiber.Map{
		"email":    "owner@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateBuyerStoresImportFields(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "owner@example.com")
	companyID := env.createCompany(t, token, "Acme")

	resp := env.request(t, http.MethodPost, "/api/potential-buyers", token, fiber.Map{
		"company_id":       companyID,
		"buyer_name":       "Fashion Plus Ltd",
		"import_frequency": "Monthly",
		"last_import_date": "2026-05-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	buyer := body["buyer"].(map[string]interface{})
	assert.Equal(t, "Monthly", buyer["import_frequency"])
	assert.Equal(t, "2026-05-01", buyer["last_import_date"])
}
