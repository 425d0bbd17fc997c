package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/auth"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
)

// Search result types
const (
	SearchTypeAll           = "all"
	SearchTypeContent       = "content"
	SearchTypeOpportunities = "opportunities"
	SearchTypeUsers         = "users"
)

const (
	// DefaultSearchLimit is the page size of search endpoints.
	DefaultSearchLimit = 20

	suggestionsPerType = 5
	maxSuggestions     = 10
	minSuggestionQuery = 2
)

// Analytics periods
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// SearchService defines the interface for search and analytics operations
type SearchService interface {
	GlobalSearch(ctx context.Context, requester auth.Requester, req *dto.GlobalSearchRequest, page, limit int) (*dto.GlobalSearchResult, error)
	SearchContent(ctx context.Context, requester auth.Requester, req *dto.ContentSearchRequest, page, limit int) (*dto.ContentSearchResult, error)
	SearchOpportunities(ctx context.Context, req *dto.OpportunitySearchRequest, page, limit int) (*dto.OpportunitySearchResult, error)
	Suggestions(ctx context.Context, requester auth.Requester, query, searchType string) ([]dto.Suggestion, error)
	Analytics(ctx context.Context, period string) (*dto.AnalyticsResponse, error)
}

// searchServiceImpl implements SearchService
type searchServiceImpl struct {
	contentRepo     ContentStore
	opportunityRepo OpportunityStore
	userRepo        UserStore
	logger          zerolog.Logger
	now             func() time.Time
}

// NewSearchService creates a new SearchService
func NewSearchService(
	contentRepo ContentStore,
	opportunityRepo OpportunityStore,
	userRepo UserStore,
	logger zerolog.Logger,
) SearchService {
	return &searchServiceImpl{
		contentRepo:     contentRepo,
		opportunityRepo: opportunityRepo,
		userRepo:        userRepo,
		logger:          logger,
		now:             time.Now,
	}
}

func includes(searchType, want string) bool {
	return searchType == "" || searchType == SearchTypeAll || searchType == want
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > helpers.MaxPageSize {
		return DefaultSearchLimit
	}
	return limit
}

// contentStatusFor returns the status filter for a content search. Only admins may override approved.
func contentStatusFor(requester auth.Requester, requested string) *models.ContentStatus {
	status := models.ContentStatusApproved
	if requester.IsAdmin() && requested != "" {
		status = models.ContentStatus(requested)
	}
	return &status
}

// GlobalSearch queries content, opportunities and, for admins, users with one query
func (s *searchServiceImpl) GlobalSearch(ctx context.Context, requester auth.Requester, req *dto.GlobalSearchRequest, page, limit int) (*dto.GlobalSearchResult, error) {
	limit = normalizeLimit(limit)
	if page < 1 {
		page = 1
	}
	now := s.now().UTC()

	result := &dto.GlobalSearchResult{
		Content:       []*dto.ContentResponse{},
		Opportunities: []*dto.OpportunityResponse{},
		Users:         []models.User{},
	}
	var largest int64

	if includes(req.Type, SearchTypeContent) {
		contents, err := s.contentRepo.List(ctx, repositories.ContentFilter{
			Status:    contentStatusFor(requester, req.Status),
			Category:  req.Category,
			FileType:  req.FileType,
			Search:    req.Query,
			Scope:     repositories.SearchScopeGlobal,
			SortBy:    req.SortBy,
			SortOrder: req.SortOrder,
			Page:      page,
			Size:      limit,
		})
		if err != nil {
			return nil, fmt.Errorf("error searching content: %w", err)
		}
		result.Content = dto.NewContentResponses(contents.Items, now)
		result.TotalResults += contents.Total
		largest = max(largest, contents.Total)
	}

	if includes(req.Type, SearchTypeOpportunities) {
		active := true
		opps, err := s.opportunityRepo.List(ctx, repositories.OpportunityFilter{
			Type:      req.OpportunityType,
			Category:  req.Category,
			Location:  req.Location,
			IsActive:  &active,
			Search:    req.Query,
			Scope:     repositories.SearchScopeGlobal,
			SortBy:    req.SortBy,
			SortOrder: req.SortOrder,
			Page:      page,
			Size:      limit,
		})
		if err != nil {
			return nil, fmt.Errorf("error searching opportunities: %w", err)
		}
		result.Opportunities = dto.NewOpportunityResponses(opps.Items, now)
		result.TotalResults += opps.Total
		largest = max(largest, opps.Total)
	}

	if includes(req.Type, SearchTypeUsers) && requester.IsAdmin() {
		f := repositories.UserFilter{
			Branch:    req.Branch,
			Search:    req.Query,
			SortBy:    req.SortBy,
			SortOrder: req.SortOrder,
			Page:      page,
			Size:      limit,
		}
		if req.Role != "" {
			role := models.RoleType(req.Role)
			f.Role = &role
		}
		users, err := s.userRepo.List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("error searching users: %w", err)
		}
		if users.Items != nil {
			result.Users = users.Items
		}
		result.TotalResults += users.Total
		largest = max(largest, users.Total)
	}

	result.Pagination = dto.SearchPagination{
		Page:       page,
		Limit:      limit,
		TotalPages: helpers.TotalPages(largest, limit),
	}
	return result, nil
}

// SearchContent runs the advanced content search and returns the facet values alongside
func (s *searchServiceImpl) SearchContent(ctx context.Context, requester auth.Requester, req *dto.ContentSearchRequest, page, limit int) (*dto.ContentSearchResult, error) {
	limit = normalizeLimit(limit)
	if page < 1 {
		page = 1
	}

	contents, err := s.contentRepo.List(ctx, repositories.ContentFilter{
		Status:     contentStatusFor(requester, req.Status),
		Category:   req.Category,
		FileType:   req.FileType,
		UploadedBy: req.UploadedBy,
		Tags:       helpers.SplitCSV(req.Tags),
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		MinSize:    req.MinSize,
		MaxSize:    req.MaxSize,
		Search:     req.Query,
		Scope:      repositories.SearchScopeAdvanced,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
		Page:       page,
		Size:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("error searching content: %w", err)
	}

	facets, err := s.contentRepo.Facets(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading content filters: %w", err)
	}

	return &dto.ContentSearchResult{
		Content: dto.NewContentResponses(contents.Items, s.now().UTC()),
		Total:   contents.Total,
		Pagination: dto.SearchPagination{
			Page:       page,
			Limit:      limit,
			TotalPages: helpers.TotalPages(contents.Total, limit),
		},
		Filters: facets,
	}, nil
}

// SearchOpportunities runs the advanced opportunity search and returns the facet values alongside
func (s *searchServiceImpl) SearchOpportunities(ctx context.Context, req *dto.OpportunitySearchRequest, page, limit int) (*dto.OpportunitySearchResult, error) {
	limit = normalizeLimit(limit)
	if page < 1 {
		page = 1
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	opps, err := s.opportunityRepo.List(ctx, repositories.OpportunityFilter{
		Type:       req.Type,
		Category:   req.Category,
		Location:   req.Location,
		Company:    req.Company,
		Duration:   req.Duration,
		IsActive:   &active,
		IsFeatured: req.IsFeatured,
		MinSalary:  req.MinSalary,
		MaxSalary:  req.MaxSalary,
		Skills:     helpers.SplitCSV(req.Skills),
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Search:     req.Query,
		Scope:      repositories.SearchScopeAdvanced,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
		Page:       page,
		Size:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("error searching opportunities: %w", err)
	}

	facets, err := s.opportunityRepo.Facets(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading opportunity filters: %w", err)
	}

	return &dto.OpportunitySearchResult{
		Opportunities: dto.NewOpportunityResponses(opps.Items, s.now().UTC()),
		Total:         opps.Total,
		Pagination: dto.SearchPagination{
			Page:       page,
			Limit:      limit,
			TotalPages: helpers.TotalPages(opps.Total, limit),
		},
		Filters: facets,
	}, nil
}

// Suggestions returns autocomplete entries for query. User names are only suggested to admins.
func (s *searchServiceImpl) Suggestions(ctx context.Context, requester auth.Requester, query, searchType string) ([]dto.Suggestion, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSuggestionQuery {
		return []dto.Suggestion{}, nil
	}

	var candidates []dto.Suggestion
	collect := func(kind string, labels []string) {
		for _, label := range labels {
			candidates = append(candidates, dto.Suggestion{Type: kind, Label: label})
		}
	}

	if includes(searchType, SearchTypeContent) {
		titles, err := s.contentRepo.SuggestTitles(ctx, query, suggestionsPerType)
		if err != nil {
			return nil, fmt.Errorf("error suggesting content: %w", err)
		}
		collect(SearchTypeContent, titles)
	}
	if includes(searchType, SearchTypeOpportunities) {
		titles, err := s.opportunityRepo.SuggestTitles(ctx, query, suggestionsPerType)
		if err != nil {
			return nil, fmt.Errorf("error suggesting opportunities: %w", err)
		}
		collect("opportunity", titles)
	}
	if includes(searchType, SearchTypeUsers) && requester.IsAdmin() {
		names, err := s.userRepo.SuggestNames(ctx, query, suggestionsPerType)
		if err != nil {
			return nil, fmt.Errorf("error suggesting users: %w", err)
		}
		collect("user", names)
	}

	return rankSuggestions(query, candidates), nil
}

// rankSuggestions drops duplicate (type, label) pairs ignoring case, moves
// labels equal to query to the front keeping the original order otherwise,
// and caps the list.
func rankSuggestions(query string, candidates []dto.Suggestion) []dto.Suggestion {
	seen := make(map[string]bool, len(candidates))
	out := make([]dto.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		key := c.Type + "\x00" + strings.ToLower(c.Label)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}

	q := strings.ToLower(query)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Label) == q && strings.ToLower(out[j].Label) != q
	})

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// PeriodStart returns the cutoff of an analytics period ending at now.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case PeriodDay:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonth:
		return now.AddDate(0, -1, 0), nil
	case PeriodYear:
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, apperrors.NewValidationError("Invalid period", map[string]string{
		"period": "must be one of day, week, month, year",
	})
}

// Analytics summarises activity per category and logins per role since the start of period
func (s *searchServiceImpl) Analytics(ctx context.Context, period string) (*dto.AnalyticsResponse, error) {
	if period == "" {
		period = PeriodWeek
	}
	since, err := PeriodStart(period, s.now().UTC())
	if err != nil {
		return nil, err
	}

	contentStats, err := s.contentRepo.ActivityByCategory(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("error loading content analytics: %w", err)
	}
	opportunityStats, err := s.opportunityRepo.ActivityByCategory(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("error loading opportunity analytics: %w", err)
	}
	userStats, err := s.userRepo.ActiveByRole(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("error loading user analytics: %w", err)
	}

	return &dto.AnalyticsResponse{
		Period:           period,
		Since:            since,
		ContentStats:     contentStats,
		OpportunityStats: opportunityStats,
		UserStats:        userStats,
	}, nil
}
