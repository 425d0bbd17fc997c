package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
)

func newSearchFixture() (*MockContentStore, *MockOpportunityStore, *MockUserStore, *searchServiceImpl) {
	contents := new(MockContentStore)
	opps := new(MockOpportunityStore)
	users := new(MockUserStore)
	svc := NewSearchService(contents, opps, users, nopLogger()).(*searchServiceImpl)
	svc.now = fixedNow
	return contents, opps, users, svc
}

func TestGlobalSearch_NonAdminGetsNoUsers(t *testing.T) {
	contents, opps, users, svc := newSearchFixture()
	contents.On("List", mock.Anything, mock.MatchedBy(func(f repositories.ContentFilter) bool {
		return f.Status != nil && *f.Status == models.ContentStatusApproved && f.Scope == repositories.SearchScopeGlobal
	})).Return(models.Page[models.Content]{Items: []models.Content{{ID: 1, Title: "Go notes"}}, Total: 1}, nil)
	opps.On("List", mock.Anything, mock.MatchedBy(func(f repositories.OpportunityFilter) bool {
		return f.IsActive != nil && *f.IsActive
	})).Return(models.Page[models.Opportunity]{Total: 0}, nil)

	res, err := svc.GlobalSearch(context.Background(), owner, &dto.GlobalSearchRequest{Query: "go", Status: "pending"}, 1, 20)

	require.NoError(t, err)
	assert.Len(t, res.Content, 1)
	assert.Empty(t, res.Users)
	assert.NotNil(t, res.Users)
	assert.Equal(t, int64(1), res.TotalResults)
	users.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestGlobalSearch_AdminIncludesUsers(t *testing.T) {
	contents, opps, users, svc := newSearchFixture()
	contents.On("List", mock.Anything, mock.Anything).Return(models.Page[models.Content]{Total: 5}, nil)
	opps.On("List", mock.Anything, mock.Anything).Return(models.Page[models.Opportunity]{Total: 3}, nil)
	users.On("List", mock.Anything, mock.Anything).
		Return(models.Page[models.User]{Items: []models.User{{ID: 7, Name: "Asha"}}, Total: 45}, nil)

	res, err := svc.GlobalSearch(context.Background(), admin, &dto.GlobalSearchRequest{Query: "a"}, 1, 20)

	require.NoError(t, err)
	assert.Len(t, res.Users, 1)
	assert.Equal(t, int64(53), res.TotalResults)
	assert.Equal(t, 3, res.Pagination.TotalPages)
	assert.Equal(t, 20, res.Pagination.Limit)
}

func TestGlobalSearch_TypeRestricts(t *testing.T) {
	contents, opps, users, svc := newSearchFixture()
	opps.On("List", mock.Anything, mock.Anything).Return(models.Page[models.Opportunity]{Total: 2}, nil)

	res, err := svc.GlobalSearch(context.Background(), admin, &dto.GlobalSearchRequest{Type: SearchTypeOpportunities}, 0, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalResults)
	assert.Equal(t, 1, res.Pagination.Page)
	assert.Equal(t, DefaultSearchLimit, res.Pagination.Limit)
	contents.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestSearchContent_AdminMayOverrideStatus(t *testing.T) {
	contents, _, _, svc := newSearchFixture()
	contents.On("List", mock.Anything, mock.MatchedBy(func(f repositories.ContentFilter) bool {
		return *f.Status == models.ContentStatusPending &&
			f.Scope == repositories.SearchScopeAdvanced &&
			assert.ObjectsAreEqual([]string{"dsa", "exam"}, f.Tags)
	})).Return(models.Page[models.Content]{Total: 0}, nil)
	contents.On("Facets", mock.Anything).Return(&models.ContentFacets{Categories: []string{"academic"}}, nil)

	res, err := svc.SearchContent(context.Background(), admin, &dto.ContentSearchRequest{Status: "pending", Tags: "dsa, exam"}, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"academic"}, res.Filters.Categories)
	contents.AssertExpectations(t)
}

func TestSuggestions(t *testing.T) {
	t.Run("short query returns nothing", func(t *testing.T) {
		contents, _, _, svc := newSearchFixture()

		got, err := svc.Suggestions(context.Background(), owner, " g ", "")

		require.NoError(t, err)
		assert.Empty(t, got)
		contents.AssertNotCalled(t, "SuggestTitles", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("users only for admins", func(t *testing.T) {
		contents, opps, users, svc := newSearchFixture()
		contents.On("SuggestTitles", mock.Anything, "go", suggestionsPerType).Return([]string{"Go basics", "go"}, nil)
		opps.On("SuggestTitles", mock.Anything, "go", suggestionsPerType).Return([]string{"Go developer"}, nil)

		got, err := svc.Suggestions(context.Background(), owner, "go", SearchTypeAll)

		require.NoError(t, err)
		assert.Equal(t, []dto.Suggestion{
			{Type: "content", Label: "go"},
			{Type: "content", Label: "Go basics"},
			{Type: "opportunity", Label: "Go developer"},
		}, got)
		users.AssertNotCalled(t, "SuggestNames", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRankSuggestions(t *testing.T) {
	candidates := []dto.Suggestion{
		{Type: "content", Label: "Algorithms"},
		{Type: "content", Label: "algorithms"},
		{Type: "opportunity", Label: "Algorithms"},
		{Type: "content", Label: "Algo"},
	}

	got := rankSuggestions("algo", candidates)

	assert.Equal(t, []dto.Suggestion{
		{Type: "content", Label: "Algo"},
		{Type: "content", Label: "Algorithms"},
		{Type: "opportunity", Label: "Algorithms"},
	}, got)
}

func TestRankSuggestions_Caps(t *testing.T) {
	var candidates []dto.Suggestion
	for _, l := range []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10", "a11", "a12"} {
		candidates = append(candidates, dto.Suggestion{Type: "content", Label: l})
	}

	assert.Len(t, rankSuggestions("a", candidates), maxSuggestions)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
	}{
		{PeriodDay, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{PeriodWeek, time.Date(2024, 3, 8, 13, 45, 0, 0, time.UTC)},
		{PeriodMonth, time.Date(2024, 2, 15, 13, 45, 0, 0, time.UTC)},
		{PeriodYear, time.Date(2023, 3, 15, 13, 45, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := PeriodStart(tt.period, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PeriodStart("decade", now)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAnalytics_DefaultsToWeek(t *testing.T) {
	contents, opps, users, svc := newSearchFixture()
	since := testNow.AddDate(0, 0, -7)
	contents.On("ActivityByCategory", mock.Anything, since).Return([]models.CategoryActivity{{Category: "academic", Count: 3}}, nil)
	opps.On("ActivityByCategory", mock.Anything, since).Return([]models.CategoryActivity{}, nil)
	users.On("ActiveByRole", mock.Anything, since).Return([]models.CountBucket{{Key: "user", Count: 9}}, nil)

	res, err := svc.Analytics(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, res.Period)
	assert.Equal(t, since, res.Since)
	assert.Len(t, res.ContentStats, 1)
	assert.Len(t, res.UserStats, 1)
}
