package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/dberrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
	"github.com/shreyescodes/erp-portal/internal/pkg/logger"
)

const applicationUniqueConstraint = "opportunity_applications_opportunity_applicant_key"

// OpportunityFilter narrows an opportunity listing. Nil and empty fields do not filter.
type OpportunityFilter struct {
	Type       string
	Category   string
	Location   string
	Company    string
	Duration   string
	CreatedBy  *int64
	IsActive   *bool
	IsFeatured *bool
	// OpenAt keeps only active listings whose deadline is after the given time.
	OpenAt    *time.Time
	MinSalary *float64
	MaxSalary *float64
	Skills    []string
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string
	Scope     SearchScope
	SortBy    string
	SortOrder string
	Page      int
	Size      int
}

var opportunitySearch = map[SearchScope]textMatch{
	SearchScopeList: {
		columns:      []string{"o.title", "o.description", "o.company"},
		arrayColumns: []string{"o.skills", "o.tags"},
	},
	SearchScopeAdvanced: {
		columns:      []string{"o.title", "o.description", "o.company"},
		arrayColumns: []string{"o.requirements", "o.skills"},
	},
	SearchScopeGlobal: {
		columns:      []string{"o.title", "o.description", "o.category"},
		arrayColumns: []string{"o.tags"},
	},
}

var opportunitySorts = map[string]string{
	"createdAt":           "o.created_at",
	"updatedAt":           "o.updated_at",
	"title":               "o.title",
	"company":             "o.company",
	"views":               "o.views",
	"applicationDeadline": "o.application_deadline",
	"startDate":           "o.start_date",
}

func (f OpportunityFilter) where() squirrel.And {
	cond := squirrel.And{}
	if f.Type != "" {
		cond = append(cond, squirrel.Eq{"o.type": f.Type})
	}
	if f.Category != "" {
		cond = append(cond, squirrel.Eq{"o.category": f.Category})
	}
	if f.Location != "" {
		cond = append(cond, squirrel.ILike{"o.location": helpers.ContainsPattern(f.Location)})
	}
	if f.Company != "" {
		cond = append(cond, squirrel.ILike{"o.company": helpers.ContainsPattern(f.Company)})
	}
	if f.Duration != "" {
		cond = append(cond, squirrel.ILike{"o.duration": helpers.ContainsPattern(f.Duration)})
	}
	if f.CreatedBy != nil {
		cond = append(cond, squirrel.Eq{"o.created_by": *f.CreatedBy})
	}
	if f.IsActive != nil {
		cond = append(cond, squirrel.Eq{"o.is_active": *f.IsActive})
	}
	if f.IsFeatured != nil {
		cond = append(cond, squirrel.Eq{"o.is_featured": *f.IsFeatured})
	}
	if f.OpenAt != nil {
		cond = append(cond, squirrel.Eq{"o.is_active": true}, squirrel.Gt{"o.application_deadline": *f.OpenAt})
	}
	if f.MinSalary != nil {
		cond = append(cond, squirrel.GtOrEq{"o.salary_max": *f.MinSalary})
	}
	if f.MaxSalary != nil {
		cond = append(cond, squirrel.LtOrEq{"o.salary_min": *f.MaxSalary})
	}
	if len(f.Skills) > 0 {
		cond = append(cond, squirrel.Expr("o.skills && ?", f.Skills))
	}
	if f.DateFrom != nil {
		cond = append(cond, squirrel.GtOrEq{"o.created_at": *f.DateFrom})
	}
	if f.DateTo != nil {
		cond = append(cond, squirrel.LtOrEq{"o.created_at": *f.DateTo})
	}
	if m := opportunitySearch[f.Scope].where(f.Search); m != nil {
		cond = append(cond, m)
	}
	return cond
}

// OpportunityRepository handles opportunity and application database operations
type OpportunityRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewOpportunityRepository creates a new OpportunityRepository
func NewOpportunityRepository(db *pgxpool.Pool) *OpportunityRepository {
	return &OpportunityRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *OpportunityRepository) selectOpportunity() squirrel.SelectBuilder {
	return r.sb.Select(
		"o.id", "o.title", "o.description", "o.company", "o.location", "o.type", "o.category",
		"o.requirements", "o.skills", "o.salary_min", "o.salary_max", "o.salary_currency",
		"o.salary_period", "o.duration", "o.application_deadline", "o.start_date", "o.photo_url",
		"o.photo_storage_id", "o.is_active", "o.is_featured", "o.created_by", "o.views", "o.tags",
		"(SELECT COUNT(*) FROM opportunity_applications a WHERE a.opportunity_id = o.id)",
		"o.created_at", "o.updated_at",
		"u.id", "u.name", "u.email", "u.branch", "u.usn",
	).From("opportunities o").
		Join("users u ON u.id = o.created_by")
}

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	var o models.Opportunity
	var creator models.UserSummary
	err := row.Scan(
		&o.ID, &o.Title, &o.Description, &o.Company, &o.Location, &o.Type, &o.Category,
		&o.Requirements, &o.Skills, &o.Salary.Min, &o.Salary.Max, &o.Salary.Currency,
		&o.Salary.Period, &o.Duration, &o.ApplicationDeadline, &o.StartDate, &o.PhotoURL,
		&o.PhotoStorageID, &o.IsActive, &o.IsFeatured, &o.CreatedBy, &o.Views, &o.Tags,
		&o.ApplicationCount,
		&o.CreatedAt, &o.UpdatedAt,
		&creator.ID, &creator.Name, &creator.Email, &creator.Branch, &creator.USN,
	)
	if err != nil {
		return nil, err
	}
	o.Creator = &creator
	return &o, nil
}

func opportunityNotFound() error {
	return apperrors.NewResourceNotFoundError("Opportunity not found")
}

// Create inserts an opportunity and fills in the generated id and timestamps.
func (r *OpportunityRepository) Create(ctx context.Context, o *models.Opportunity) error {
	sql, args, err := r.sb.Insert("opportunities").
		Columns(
			"title", "description", "company", "location", "type", "category", "requirements", "skills",
			"salary_min", "salary_max", "salary_currency", "salary_period", "duration",
			"application_deadline", "start_date", "photo_url", "photo_storage_id", "is_active",
			"is_featured", "created_by", "tags",
		).
		Values(
			o.Title, o.Description, o.Company, o.Location, string(o.Type), string(o.Category),
			helpers.NormalizeTags(o.Requirements), helpers.NormalizeTags(o.Skills),
			o.Salary.Min, o.Salary.Max, o.Salary.Currency, o.Salary.Period, o.Duration,
			o.ApplicationDeadline, o.StartDate, o.PhotoURL, o.PhotoStorageID, o.IsActive,
			o.IsFeatured, o.CreatedBy, helpers.NormalizeTags(o.Tags),
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create opportunity query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("createdBy", o.CreatedBy).Msg("Error executing create opportunity query")
		return fmt.Errorf("error creating opportunity: %w", err)
	}
	return nil
}

// GetByID loads an opportunity with its creator and application count.
func (r *OpportunityRepository) GetByID(ctx context.Context, id int64) (*models.Opportunity, error) {
	sql, args, err := r.selectOpportunity().Where(squirrel.Eq{"o.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get opportunity query: %w", err)
	}

	o, err := scanOpportunity(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, opportunityNotFound()
		}
		return nil, fmt.Errorf("error retrieving opportunity: %w", err)
	}
	return o, nil
}

// IncrementViews atomically counts a view and returns the new total.
func (r *OpportunityRepository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	sql, args, err := r.sb.Update("opportunities").
		Set("views", squirrel.Expr("views + 1")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING views").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build increment views query: %w", err)
	}

	var views int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&views); err != nil {
		if dberrors.IsNoRows(err) {
			return 0, opportunityNotFound()
		}
		return 0, fmt.Errorf("error incrementing views: %w", err)
	}
	return views, nil
}

// Update persists every editable field of o. Views and applications are never written here.
func (r *OpportunityRepository) Update(ctx context.Context, o *models.Opportunity) error {
	o.UpdatedAt = time.Now().UTC()

	sql, args, err := r.sb.Update("opportunities").
		SetMap(map[string]interface{}{
			"title":                o.Title,
			"description":          o.Description,
			"company":              o.Company,
			"location":             o.Location,
			"type":                 string(o.Type),
			"category":             string(o.Category),
			"requirements":         helpers.NormalizeTags(o.Requirements),
			"skills":               helpers.NormalizeTags(o.Skills),
			"salary_min":           o.Salary.Min,
			"salary_max":           o.Salary.Max,
			"salary_currency":      o.Salary.Currency,
			"salary_period":        o.Salary.Period,
			"duration":             o.Duration,
			"application_deadline": o.ApplicationDeadline,
			"start_date":           o.StartDate,
			"photo_url":            o.PhotoURL,
			"photo_storage_id":     o.PhotoStorageID,
			"is_active":            o.IsActive,
			"is_featured":          o.IsFeatured,
			"tags":                 helpers.NormalizeTags(o.Tags),
			"updated_at":           o.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": o.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update opportunity query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating opportunity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return opportunityNotFound()
	}
	return nil
}

// Delete removes an opportunity. Its applications cascade.
func (r *OpportunityRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("opportunities").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete opportunity query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting opportunity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return opportunityNotFound()
	}
	return nil
}

// List returns a filtered, sorted page of opportunities
func (r *OpportunityRepository) List(ctx context.Context, f OpportunityFilter) (models.Page[models.Opportunity], error) {
	var page models.Page[models.Opportunity]
	where := f.where()

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("opportunities o").Where(where).ToSql()
	if err != nil {
		return page, fmt.Errorf("failed to build count opportunities query: %w", err)
	}
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("error counting opportunities: %w", err)
	}

	page.Items = []models.Opportunity{}
	if page.Total == 0 {
		return page, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(f.Page, f.Size)
	sql, args, err := r.selectOpportunity().
		Where(where).
		OrderBy(orderBy(opportunitySorts, f.SortBy, f.SortOrder, "o.created_at"), "o.id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return page, fmt.Errorf("failed to build list opportunities query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return page, fmt.Errorf("error listing opportunities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return page, fmt.Errorf("error scanning opportunity: %w", err)
		}
		page.Items = append(page.Items, *o)
	}
	return page, rows.Err()
}

// HasApplied reports whether applicantID already applied to opportunityID.
func (r *OpportunityRepository) HasApplied(ctx context.Context, opportunityID, applicantID int64) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("opportunity_applications").
		Where(squirrel.Eq{"opportunity_id": opportunityID, "applicant_id": applicantID}).
		Prefix("SELECT EXISTS(").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build application exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking application: %w", err)
	}
	return exists, nil
}

// CreateApplication inserts an application. A second application by the same
// applicant fails with ErrDuplicateApplication.
func (r *OpportunityRepository) CreateApplication(ctx context.Context, a *models.Application) error {
	sql, args, err := r.sb.Insert("opportunity_applications").
		Columns("opportunity_id", "applicant_id", "cover_letter", "resume_url", "status", "applied_at").
		Values(a.OpportunityID, a.ApplicantID, a.CoverLetter, a.ResumeURL, string(a.Status), a.AppliedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create application query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, applicationUniqueConstraint) {
			return apperrors.ErrDuplicateApplication
		}
		if dberrors.IsForeignKeyViolation(err) {
			return opportunityNotFound()
		}
		return fmt.Errorf("error creating application: %w", err)
	}
	return nil
}

// ListApplications returns the applications of an opportunity, newest first.
func (r *OpportunityRepository) ListApplications(ctx context.Context, opportunityID int64) ([]models.Application, error) {
	sql, args, err := r.sb.Select(
		"a.id", "a.opportunity_id", "a.applicant_id", "a.cover_letter", "a.resume_url", "a.status", "a.applied_at",
		"u.id", "u.name", "u.email", "u.branch", "u.usn",
	).From("opportunity_applications a").
		Join("users u ON u.id = a.applicant_id").
		Where(squirrel.Eq{"a.opportunity_id": opportunityID}).
		OrderBy("a.applied_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list applications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var a models.Application
		var applicant models.UserSummary
		if err := rows.Scan(
			&a.ID, &a.OpportunityID, &a.ApplicantID, &a.CoverLetter, &a.ResumeURL, &a.Status, &a.AppliedAt,
			&applicant.ID, &applicant.Name, &applicant.Email, &applicant.Branch, &applicant.USN,
		); err != nil {
			return nil, fmt.Errorf("error scanning application: %w", err)
		}
		a.Applicant = &applicant
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// UpdateApplicationStatus sets the review status of one applicant's application.
func (r *OpportunityRepository) UpdateApplicationStatus(ctx context.Context, opportunityID, applicantID int64, status models.ApplicationStatus) error {
	sql, args, err := r.sb.Update("opportunity_applications").
		Set("status", string(status)).
		Where(squirrel.Eq{"opportunity_id": opportunityID, "applicant_id": applicantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update application query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating application: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("Application not found")
	}
	return nil
}

// Stats aggregates listing totals with type and category breakdowns.
func (r *OpportunityRepository) Stats(ctx context.Context, now time.Time) (*models.OpportunityStats, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE is_active AND application_deadline > ?)", now)).
		Column("(SELECT COUNT(*) FROM opportunity_applications)").
		Column("COALESCE(SUM(views), 0)::BIGINT").
		From("opportunities").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build opportunity stats query: %w", err)
	}

	var s models.OpportunityStats
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&s.TotalOpportunities, &s.ActiveOpportunities, &s.TotalApplications, &s.TotalViews,
	)
	if err != nil {
		return nil, fmt.Errorf("error computing opportunity stats: %w", err)
	}

	typeSQL, typeArgs, err := r.sb.Select("type", "COUNT(*)").
		From("opportunities").
		GroupBy("type").
		OrderBy("COUNT(*) DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build opportunity type query: %w", err)
	}
	if s.TypeBreakdown, err = collectBuckets(ctx, r.db, typeSQL, typeArgs); err != nil {
		return nil, fmt.Errorf("error computing opportunity types: %w", err)
	}

	catSQL, catArgs, err := r.sb.Select("category", "COUNT(*)").
		From("opportunities").
		GroupBy("category").
		OrderBy("COUNT(*) DESC").
		Limit(10).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build opportunity category query: %w", err)
	}
	if s.CategoryBreakdown, err = collectBuckets(ctx, r.db, catSQL, catArgs); err != nil {
		return nil, fmt.Errorf("error computing opportunity categories: %w", err)
	}
	return &s, nil
}

// Facets returns distinct filter values across active listings.
func (r *OpportunityRepository) Facets(ctx context.Context) (*models.OpportunityFacets, error) {
	active := squirrel.Eq{"is_active": true}
	facets := &models.OpportunityFacets{}

	for _, q := range []struct {
		expr string
		dest *[]string
	}{
		{expr: "DISTINCT category", dest: &facets.Categories},
		{expr: "DISTINCT type", dest: &facets.Types},
		{expr: "DISTINCT location", dest: &facets.Locations},
		{expr: "DISTINCT company", dest: &facets.Companies},
		{expr: "DISTINCT unnest(skills)", dest: &facets.Skills},
	} {
		sql, args, err := r.sb.Select(q.expr).From("opportunities").Where(active).OrderBy("1").ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build opportunity facet query: %w", err)
		}
		values, err := collectStrings(ctx, r.db, sql, args)
		if err != nil {
			return nil, fmt.Errorf("error loading opportunity facets: %w", err)
		}
		*q.dest = values
	}
	return facets, nil
}

// SuggestTitles returns up to limit active titles matching query.
func (r *OpportunityRepository) SuggestTitles(ctx context.Context, query string, limit int) ([]string, error) {
	sql, args, err := r.sb.Select("title").
		From("opportunities").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.ILike{"title": helpers.ContainsPattern(query)}).
		OrderBy("views DESC", "title ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build opportunity suggestion query: %w", err)
	}
	return collectStrings(ctx, r.db, sql, args)
}

// ActivityByCategory aggregates listings created since the cutoff per category.
func (r *OpportunityRepository) ActivityByCategory(ctx context.Context, since time.Time) ([]models.CategoryActivity, error) {
	sql, args, err := r.sb.Select(
		"o.category",
		"COUNT(*)",
		"COALESCE(SUM(o.views), 0)::BIGINT",
		"COALESCE(SUM(ac.applications), 0)::BIGINT",
	).
		From("opportunities o").
		LeftJoin("(SELECT opportunity_id, COUNT(*) AS applications FROM opportunity_applications GROUP BY opportunity_id) ac ON ac.opportunity_id = o.id").
		Where(squirrel.GtOrEq{"o.created_at": since}).
		GroupBy("o.category").
		OrderBy("COUNT(*) DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build opportunity analytics query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error loading opportunity analytics: %w", err)
	}
	defer rows.Close()

	out := []models.CategoryActivity{}
	for rows.Next() {
		var a models.CategoryActivity
		if err := rows.Scan(&a.Category, &a.Count, &a.Views, &a.Applications); err != nil {
			return nil, fmt.Errorf("error scanning opportunity analytics: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
