package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/pkg/errs"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func seedUser(t *testing.T, client *Client, email string) *models.User {
	t.Helper()

	name := "Test User"
	user, err := client.CreateUser(email, &name, "$2a$10$hashhashhashhashhashha")
	require.NoError(t, err)
	return user
}

func seedCompany(t *testing.T, client *Client, userID int64, name string) *models.Company {
	t.Helper()

	company := &models.Company{UserID: userID, CompanyName: name}
	require.NoError(t, client.InsertCompany(company))
	return company
}

func seedProduct(t *testing.T, client *Client, companyID int64, name string) *models.Product {
	t.Helper()

	hs := "620520"
	product := &models.Product{CompanyID: companyID, ProductName: name, HSCode: &hs}
	require.NoError(t, client.InsertProduct(product))
	return product
}

func strPtr(s string) *string { return &s }

func TestNewClientRequiresPath(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, errs.ErrConnection)
}

func TestListCompaniesNewestFirst(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")

	first := seedCompany(t, client, user.ID, "First")
	second := seedCompany(t, client, user.ID, "Second")
	third := seedCompany(t, client, user.ID, "Third")

	companies, err := client.ListCompanies(user.ID)
	require.NoError(t, err)
	require.Len(t, companies, 3)

	// Rows created within the same second fall back to id order, so a
	// fresh insert always leads the list.
	assert.Equal(t, third.ID, companies[0].ID)
	assert.Equal(t, second.ID, companies[1].ID)
	assert.Equal(t, first.ID, companies[2].ID)
}

func TestListCompaniesScopedToUser(t *testing.T) {
	client := newTestClient(t)
	owner := seedUser(t, client, "owner@example.com")
	other := seedUser(t, client, "other@example.com")

	seedCompany(t, client, owner.ID, "Mine")
	seedCompany(t, client, other.ID, "Theirs")

	companies, err := client.ListCompanies(owner.ID)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Mine", companies[0].CompanyName)
}

func TestGetCompanyOwnershipMismatch(t *testing.T) {
	client := newTestClient(t)
	owner := seedUser(t, client, "owner@example.com")
	other := seedUser(t, client, "other@example.com")
	company := seedCompany(t, client, owner.ID, "Mine")

	_, err := client.GetCompany(company.ID, other.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestInsertCampaignDefaultsStatus(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")
	company := seedCompany(t, client, user.ID, "Acme")

	campaign := &models.Campaign{CompanyID: &company.ID, CampaignName: "Q1 Outreach"}
	require.NoError(t, client.InsertCampaign(campaign))

	assert.Equal(t, "Draft", campaign.Status)
	assert.Equal(t, 0, campaign.TotalRecipients)

	campaigns, err := client.ListCampaigns(user.ID, nil)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Draft", campaigns[0].Status)
}

func TestInsertBuyerKeepsImportFieldsSeparate(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")
	company := seedCompany(t, client, user.ID, "Acme")

	buyer := &models.PotentialBuyer{
		CompanyID:       company.ID,
		BuyerName:       "Fashion Plus Ltd",
		ImportFrequency: strPtr("Monthly"),
		LastImportDate:  strPtr("2026-05-01"),
	}
	require.NoError(t, client.InsertBuyer(buyer))

	buyers, err := client.ListBuyers(company.ID)
	require.NoError(t, err)
	require.Len(t, buyers, 1)
	require.NotNil(t, buyers[0].ImportFrequency)
	require.NotNil(t, buyers[0].LastImportDate)
	assert.Equal(t, "Monthly", *buyers[0].ImportFrequency)
	assert.Equal(t, "2026-05-01", *buyers[0].LastImportDate)
}

func TestUpsertProductMatchIdempotent(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")
	company := seedCompany(t, client, user.ID, "Acme")
	product := seedProduct(t, client, company.ID, "Cotton T-shirts")

	match := &models.ProductMatch{
		CompanyID:    company.ID,
		ProductID:    product.ID,
		TargetMarket: "Germany",
		MatchScore:   0.72,
		MarketSize:   "Large",
	}
	require.NoError(t, client.UpsertProductMatch(match))
	firstID := match.ID
	require.NotZero(t, firstID)

	updated := &models.ProductMatch{
		CompanyID:    company.ID,
		ProductID:    product.ID,
		TargetMarket: "Germany",
		MatchScore:   0.91,
		MarketSize:   "Very Large",
	}
	require.NoError(t, client.UpsertProductMatch(updated))

	assert.Equal(t, firstID, updated.ID)

	matches, err := client.ListProductMatches(company.ID, nil, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.91, matches[0].MatchScore)
	assert.Equal(t, "Very Large", matches[0].MarketSize)
}

func TestListProductMatchesMinScore(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")
	company := seedCompany(t, client, user.ID, "Acme")
	product := seedProduct(t, client, company.ID, "Cotton T-shirts")

	for market, score := range map[string]float64{"Germany": 0.9, "France": 0.4} {
		match := &models.ProductMatch{
			CompanyID:    company.ID,
			ProductID:    product.ID,
			TargetMarket: market,
			MatchScore:   score,
		}
		require.NoError(t, client.UpsertProductMatch(match))
	}

	matches, err := client.ListProductMatches(company.ID, nil, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Germany", matches[0].TargetMarket)
}

func TestUpsertRiskAssessmentIdempotent(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")
	company := seedCompany(t, client, user.ID, "Acme")

	assessment := &models.RiskAssessment{
		CompanyID:        company.ID,
		TargetMarket:     "Germany",
		ProductCategory:  "Textiles",
		OverallRiskScore: 0.45,
		RiskFactors:      []string{"currency volatility"},
	}
	require.NoError(t, client.UpsertRiskAssessment(assessment))
	firstID := assessment.ID

	rerun := &models.RiskAssessment{
		CompanyID:        company.ID,
		TargetMarket:     "Germany",
		ProductCategory:  "Textiles",
		OverallRiskScore: 0.62,
	}
	require.NoError(t, client.UpsertRiskAssessment(rerun))
	assert.Equal(t, firstID, rerun.ID)

	assessments, err := client.ListRiskAssessments(company.ID, "Germany", "")
	require.NoError(t, err)
	require.Len(t, assessments, 1)
	assert.Equal(t, 0.62, assessments[0].OverallRiskScore)
}

func TestTrendDetectionAppendOnly(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")
	company := seedCompany(t, client, user.ID, "Acme")

	trend := models.TrendDetection{
		CompanyID: company.ID,
		TrendType: "market_growth",
		Timeframe: "12_months",
	}

	first := trend
	require.NoError(t, client.InsertTrendDetection(&first))
	second := trend
	require.NoError(t, client.InsertTrendDetection(&second))

	assert.NotEqual(t, first.ID, second.ID)

	trends, err := client.ListTrendDetections(company.ID, "", "")
	require.NoError(t, err)
	assert.Len(t, trends, 2)
}

func TestUpdateUserProfilePatch(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")

	updated, err := client.UpdateUserProfile(user.ID, ProfilePatch{
		CompanyName: strPtr("Acme Exports"),
		Country:     strPtr("Turkey"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CompanyName)
	assert.Equal(t, "Acme Exports", *updated.CompanyName)
	require.NotNil(t, updated.Country)
	assert.Equal(t, "Turkey", *updated.Country)
	// Untouched fields stay as they were.
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Test User", *updated.Name)
}

func TestUpdateUserProfileEmptyPatch(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")

	_, err := client.UpdateUserProfile(user.ID, ProfilePatch{})
	assert.True(t, errs.IsValidation(err))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	client := newTestClient(t)
	seedUser(t, client, "owner@example.com")

	_, err := client.CreateUser("owner@example.com", nil, "hash")
	assert.True(t, errs.IsConflict(err))
}

func TestDeleteUserCascades(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")
	company := seedCompany(t, client, user.ID, "Acme")
	seedProduct(t, client, company.ID, "Cotton T-shirts")

	require.NoError(t, client.DeleteUser(user.ID))

	_, err := client.GetUser(user.ID)
	assert.True(t, errs.IsNotFound(err))

	companies, err := client.ListCompanies(user.ID)
	require.NoError(t, err)
	assert.Empty(t, companies)
}

func TestMarkNotificationsCountsStateChanges(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")

	var ids []int64
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			UserID:  user.ID,
			Type:    "market_alert",
			Title:   "New Market Opportunity",
			Message: "Germany shows growth potential",
		}
		require.NoError(t, client.InsertNotification(n))
		ids = append(ids, n.ID)
	}

	unread, err := client.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	updated, err := client.MarkNotifications(user.ID, ids[:2], true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	// Already-read rows do not count again.
	updated, err = client.MarkNotifications(user.ID, ids, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	unread, err = client.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestListNotificationsPagination(t *testing.T) {
	client := newTestClient(t)
	user := seedUser(t, client, "owner@example.com")

	for i := 0; i < 5; i++ {
		n := &models.Notification{
			UserID:  user.ID,
			Type:    "ai_insight",
			Title:   "AI Market Prediction",
			Message: "Demand forecast updated",
		}
		require.NoError(t, client.InsertNotification(n))
	}

	page, total, unread, err := client.ListNotifications(user.ID, 2, 0, false)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, 5, total)
	assert.Equal(t, 5, unread)

	// Newest first.
	assert.Greater(t, page[0].ID, page[1].ID)
}
