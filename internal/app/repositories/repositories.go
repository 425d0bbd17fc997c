package repositories

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository        *UserRepository
	TokenRepository       *TokenRepository
	ContentRepository     *ContentRepository
	OpportunityRepository *OpportunityRepository
	ComplaintRepository   *ComplaintRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:        NewUserRepository(db),
		TokenRepository:       NewTokenRepository(db),
		ContentRepository:     NewContentRepository(db),
		OpportunityRepository: NewOpportunityRepository(db),
		ComplaintRepository:   NewComplaintRepository(db),
	}
}

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// SearchScope selects which columns a free text query is matched against.
type SearchScope int

const (
	// SearchScopeList is used by the plain list endpoints.
	SearchScopeList SearchScope = iota
	// SearchScopeAdvanced is used by the dedicated search endpoints.
	SearchScopeAdvanced
	// SearchScopeGlobal is used by the federated search.
	SearchScopeGlobal
)

// textMatch matches query case-insensitively as a substring of any column or any
// element of any array column. An empty query matches everything.
type textMatch struct {
	columns      []string
	arrayColumns []string
}

func (m textMatch) where(query string) squirrel.Sqlizer {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	pattern := helpers.ContainsPattern(query)

	or := squirrel.Or{}
	for _, col := range m.columns {
		or = append(or, squirrel.ILike{col: pattern})
	}
	for _, col := range m.arrayColumns {
		or = append(or, squirrel.Expr(fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS elem WHERE elem ILIKE ?)", col), pattern))
	}
	return or
}

// orderBy resolves a requested sort field against an allow-list. Unknown fields
// fall back to def and anything but "asc" sorts descending.
func orderBy(allowed map[string]string, sortBy, sortOrder, def string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = def
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}
