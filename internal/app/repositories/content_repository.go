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

// ContentFilter narrows a content listing. Nil and empty fields do not filter.
type ContentFilter struct {
	Status     *models.ContentStatus
	Category   string
	FileType   string
	UploadedBy *int64
	Tags       []string
	DateFrom   *time.Time
	DateTo     *time.Time
	MinSize    *int64
	MaxSize    *int64
	Search     string
	Scope      SearchScope
	SortBy     string
	SortOrder  string
	Page       int
	Size       int
}

var contentSearch = map[SearchScope]textMatch{
	SearchScopeList:     {columns: []string{"c.title", "c.description"}, arrayColumns: []string{"c.tags"}},
	SearchScopeAdvanced: {columns: []string{"c.title", "c.description"}, arrayColumns: []string{"c.tags"}},
	SearchScopeGlobal:   {columns: []string{"c.title", "c.description", "c.category"}, arrayColumns: []string{"c.tags"}},
}

var contentSorts = map[string]string{
	"createdAt": "c.created_at",
	"updatedAt": "c.updated_at",
	"title":     "c.title",
	"views":     "c.views",
	"downloads": "c.downloads",
	"category":  "c.category",
	"fileSize":  "c.file_size",
}

func (f ContentFilter) where() squirrel.And {
	cond := squirrel.And{}
	if f.Status != nil {
		cond = append(cond, squirrel.Eq{"c.status": string(*f.Status)})
	}
	if f.UploadedBy != nil {
		cond = append(cond, squirrel.Eq{"c.uploaded_by": *f.UploadedBy})
	}
	if len(f.Tags) > 0 {
		cond = append(cond, squirrel.Expr("c.tags && ?", f.Tags))
	}
	if f.Category != "" {
		cond = append(cond, squirrel.Eq{"c.category": f.Category})
	}
	if f.FileType != "" {
		cond = append(cond, squirrel.Eq{"c.file_type": f.FileType})
	}
	if f.DateFrom != nil {
		cond = append(cond, squirrel.GtOrEq{"c.created_at": *f.DateFrom})
	}
	if f.DateTo != nil {
		cond = append(cond, squirrel.LtOrEq{"c.created_at": *f.DateTo})
	}
	if f.MinSize != nil {
		cond = append(cond, squirrel.GtOrEq{"c.file_size": *f.MinSize})
	}
	if f.MaxSize != nil {
		cond = append(cond, squirrel.LtOrEq{"c.file_size": *f.MaxSize})
	}
	if m := contentSearch[f.Scope].where(f.Search); m != nil {
		cond = append(cond, m)
	}
	return cond
}

// ContentRepository handles content database operations
type ContentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewContentRepository creates a new ContentRepository
func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *ContentRepository) selectContent() squirrel.SelectBuilder {
	return r.sb.Select(
		"c.id", "c.title", "c.description", "c.file_url", "c.file_type", "c.mime_type", "c.file_size",
		"c.storage_id", "c.category", "c.tags", "c.status", "c.uploaded_by", "c.approved_by",
		"c.approved_at", "c.rejection_reason", "c.views", "c.downloads", "c.is_featured",
		"c.expiry_date", "c.created_at", "c.updated_at",
		"u.id", "u.name", "u.email", "u.branch", "u.usn",
	).From("contents c").
		Join("users u ON u.id = c.uploaded_by")
}

func scanContent(row pgx.Row) (*models.Content, error) {
	var c models.Content
	var up models.UserSummary
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.FileURL, &c.FileType, &c.MimeType, &c.FileSize,
		&c.StorageID, &c.Category, &c.Tags, &c.Status, &c.UploadedBy, &c.ApprovedBy,
		&c.ApprovedAt, &c.RejectionReason, &c.Views, &c.Downloads, &c.IsFeatured,
		&c.ExpiryDate, &c.CreatedAt, &c.UpdatedAt,
		&up.ID, &up.Name, &up.Email, &up.Branch, &up.USN,
	)
	if err != nil {
		return nil, err
	}
	c.Uploader = &up
	return &c, nil
}

func contentNotFound() error {
	return apperrors.NewResourceNotFoundError("Content not found")
}

// Create inserts a content row and fills in the generated id and timestamps.
func (r *ContentRepository) Create(ctx context.Context, c *models.Content) error {
	sql, args, err := r.sb.Insert("contents").
		Columns(
			"title", "description", "file_url", "file_type", "mime_type", "file_size", "storage_id",
			"category", "tags", "status", "uploaded_by", "approved_by", "approved_at",
		).
		Values(
			c.Title, c.Description, c.FileURL, string(c.FileType), c.MimeType, c.FileSize, c.StorageID,
			string(c.Category), helpers.NormalizeTags(c.Tags), string(c.Status), c.UploadedBy, c.ApprovedBy, c.ApprovedAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create content query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("uploadedBy", c.UploadedBy).Msg("Error executing create content query")
		return fmt.Errorf("error creating content: %w", err)
	}
	return nil
}

// GetByID loads a content item with its uploader. It does not count a view.
func (r *ContentRepository) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	sql, args, err := r.selectContent().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get content query: %w", err)
	}

	c, err := scanContent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, contentNotFound()
		}
		return nil, fmt.Errorf("error retrieving content: %w", err)
	}
	return c, nil
}

// IncrementViews atomically counts a view and returns the new total.
func (r *ContentRepository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	sql, args, err := r.sb.Update("contents").
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
			return 0, contentNotFound()
		}
		return 0, fmt.Errorf("error incrementing views: %w", err)
	}
	return views, nil
}

// IncrementDownloads atomically counts a download of approved content and
// returns the file URL with the new total.
func (r *ContentRepository) IncrementDownloads(ctx context.Context, id int64) (string, int64, error) {
	sql, args, err := r.sb.Update("contents").
		Set("downloads", squirrel.Expr("downloads + 1")).
		Where(squirrel.Eq{"id": id, "status": string(models.ContentStatusApproved)}).
		Suffix("RETURNING file_url, downloads").
		ToSql()
	if err != nil {
		return "", 0, fmt.Errorf("failed to build increment downloads query: %w", err)
	}

	var fileURL string
	var downloads int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&fileURL, &downloads); err != nil {
		if dberrors.IsNoRows(err) {
			return "", 0, contentNotFound()
		}
		return "", 0, fmt.Errorf("error incrementing downloads: %w", err)
	}
	return fileURL, downloads, nil
}

// Update persists the editable and moderation fields of c.
func (r *ContentRepository) Update(ctx context.Context, c *models.Content) error {
	c.UpdatedAt = time.Now().UTC()

	sql, args, err := r.sb.Update("contents").
		Set("title", c.Title).
		Set("description", c.Description).
		Set("category", string(c.Category)).
		Set("tags", helpers.NormalizeTags(c.Tags)).
		Set("status", string(c.Status)).
		Set("approved_by", c.ApprovedBy).
		Set("approved_at", c.ApprovedAt).
		Set("rejection_reason", c.RejectionReason).
		Set("is_featured", c.IsFeatured).
		Set("expiry_date", c.ExpiryDate).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update content query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating content: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return contentNotFound()
	}
	return nil
}

// Delete removes a content row
func (r *ContentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("contents").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete content query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting content: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return contentNotFound()
	}
	return nil
}

// List returns a filtered, sorted page of content
func (r *ContentRepository) List(ctx context.Context, f ContentFilter) (models.Page[models.Content], error) {
	var page models.Page[models.Content]
	where := f.where()

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("contents c").Where(where).ToSql()
	if err != nil {
		return page, fmt.Errorf("failed to build count content query: %w", err)
	}
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("error counting content: %w", err)
	}

	page.Items = []models.Content{}
	if page.Total == 0 {
		return page, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(f.Page, f.Size)
	sql, args, err := r.selectContent().
		Where(where).
		OrderBy(orderBy(contentSorts, f.SortBy, f.SortOrder, "c.created_at"), "c.id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return page, fmt.Errorf("failed to build list content query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return page, fmt.Errorf("error listing content: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return page, fmt.Errorf("error scanning content: %w", err)
		}
		page.Items = append(page.Items, *c)
	}
	return page, rows.Err()
}

// Stats aggregates totals by status plus the ten largest categories.
func (r *ContentRepository) Stats(ctx context.Context) (*models.ContentStats, error) {
	sql, args, err := r.sb.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE status = 'pending')",
		"COUNT(*) FILTER (WHERE status = 'approved')",
		"COUNT(*) FILTER (WHERE status = 'rejected')",
		"COALESCE(SUM(views), 0)::BIGINT",
		"COALESCE(SUM(downloads), 0)::BIGINT",
	).From("contents").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build content stats query: %w", err)
	}

	var s models.ContentStats
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&s.TotalContent, &s.PendingContent, &s.ApprovedContent, &s.RejectedContent,
		&s.TotalViews, &s.TotalDownloads,
	)
	if err != nil {
		return nil, fmt.Errorf("error computing content stats: %w", err)
	}

	catSQL, catArgs, err := r.sb.Select("category", "COUNT(*)").
		From("contents").
		GroupBy("category").
		OrderBy("COUNT(*) DESC").
		Limit(10).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build content category query: %w", err)
	}
	if s.CategoryBreakdown, err = collectBuckets(ctx, r.db, catSQL, catArgs); err != nil {
		return nil, fmt.Errorf("error computing content categories: %w", err)
	}
	return &s, nil
}

// Facets returns the distinct categories, file types and tags of approved content.
func (r *ContentRepository) Facets(ctx context.Context) (*models.ContentFacets, error) {
	approved := squirrel.Eq{"status": string(models.ContentStatusApproved)}
	facets := &models.ContentFacets{}

	for _, q := range []struct {
		expr string
		dest *[]string
	}{
		{expr: "DISTINCT category", dest: &facets.Categories},
		{expr: "DISTINCT file_type", dest: &facets.FileTypes},
		{expr: "DISTINCT unnest(tags)", dest: &facets.Tags},
	} {
		sql, args, err := r.sb.Select(q.expr).From("contents").Where(approved).OrderBy("1").ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build content facet query: %w", err)
		}
		values, err := collectStrings(ctx, r.db, sql, args)
		if err != nil {
			return nil, fmt.Errorf("error loading content facets: %w", err)
		}
		*q.dest = values
	}
	return facets, nil
}

// SuggestTitles returns up to limit approved titles matching query.
func (r *ContentRepository) SuggestTitles(ctx context.Context, query string, limit int) ([]string, error) {
	sql, args, err := r.sb.Select("title").
		From("contents").
		Where(squirrel.Eq{"status": string(models.ContentStatusApproved)}).
		Where(squirrel.ILike{"title": helpers.ContainsPattern(query)}).
		OrderBy("views DESC", "title ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build content suggestion query: %w", err)
	}
	return collectStrings(ctx, r.db, sql, args)
}

// ActivityByCategory aggregates content created since the cutoff per category.
func (r *ContentRepository) ActivityByCategory(ctx context.Context, since time.Time) ([]models.CategoryActivity, error) {
	sql, args, err := r.sb.Select("category", "COUNT(*)", "COALESCE(SUM(views), 0)::BIGINT", "COALESCE(SUM(downloads), 0)::BIGINT").
		From("contents").
		Where(squirrel.GtOrEq{"created_at": since}).
		GroupBy("category").
		OrderBy("COUNT(*) DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build content analytics query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error loading content analytics: %w", err)
	}
	defer rows.Close()

	out := []models.CategoryActivity{}
	for rows.Next() {
		var a models.CategoryActivity
		if err := rows.Scan(&a.Category, &a.Count, &a.Views, &a.Downloads); err != nil {
			return nil, fmt.Errorf("error scanning content analytics: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
