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

// ComplaintFilter narrows a complaint listing. SubmittedBy scopes it to one user.
type ComplaintFilter struct {
	SubmittedBy *int64
	AssignedTo  *int64
	Status      string
	Category    string
	Priority    string
	Search      string
	SortBy      string
	SortOrder   string
	Page        int
	Size        int
}

var complaintSearch = textMatch{
	columns:      []string{"cp.subject", "cp.message"},
	arrayColumns: []string{"cp.tags"},
}

var complaintSorts = map[string]string{
	"createdAt": "cp.created_at",
	"updatedAt": "cp.updated_at",
	"priority":  "cp.priority",
	"status":    "cp.status",
	"subject":   "cp.subject",
}

func (f ComplaintFilter) where() squirrel.And {
	cond := squirrel.And{}
	if f.SubmittedBy != nil {
		cond = append(cond, squirrel.Eq{"cp.submitted_by": *f.SubmittedBy})
	}
	if f.AssignedTo != nil {
		cond = append(cond, squirrel.Eq{"cp.assigned_to": *f.AssignedTo})
	}
	if f.Status != "" {
		cond = append(cond, squirrel.Eq{"cp.status": f.Status})
	}
	if f.Category != "" {
		cond = append(cond, squirrel.Eq{"cp.category": f.Category})
	}
	if f.Priority != "" {
		cond = append(cond, squirrel.Eq{"cp.priority": f.Priority})
	}
	if m := complaintSearch.where(f.Search); m != nil {
		cond = append(cond, m)
	}
	return cond
}

// ComplaintRepository handles complaint and attachment database operations
type ComplaintRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewComplaintRepository creates a new ComplaintRepository
func NewComplaintRepository(db *pgxpool.Pool) *ComplaintRepository {
	return &ComplaintRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *ComplaintRepository) selectComplaint() squirrel.SelectBuilder {
	return r.sb.Select(
		"cp.id", "cp.subject", "cp.message", "cp.category", "cp.priority", "cp.status",
		"cp.submitted_by", "cp.assigned_to", "cp.assigned_at", "cp.resolved_at", "cp.resolved_by",
		"cp.resolution", "cp.closed_at", "cp.tags", "cp.is_anonymous", "cp.is_urgent",
		"cp.estimated_resolution_time", "cp.follow_up_required", "cp.follow_up_date",
		"cp.satisfaction_rating", "cp.feedback", "cp.created_at", "cp.updated_at",
		"u.id", "u.name", "u.email", "u.branch", "u.usn",
	).From("complaints cp").
		Join("users u ON u.id = cp.submitted_by")
}

func scanComplaint(row pgx.Row) (*models.Complaint, error) {
	var c models.Complaint
	var submitter models.UserSummary
	err := row.Scan(
		&c.ID, &c.Subject, &c.Message, &c.Category, &c.Priority, &c.Status,
		&c.SubmittedBy, &c.AssignedTo, &c.AssignedAt, &c.ResolvedAt, &c.ResolvedBy,
		&c.Resolution, &c.ClosedAt, &c.Tags, &c.IsAnonymous, &c.IsUrgent,
		&c.EstimatedResolutionTime, &c.FollowUpRequired, &c.FollowUpDate,
		&c.SatisfactionRating, &c.Feedback, &c.CreatedAt, &c.UpdatedAt,
		&submitter.ID, &submitter.Name, &submitter.Email, &submitter.Branch, &submitter.USN,
	)
	if err != nil {
		return nil, err
	}
	c.Submitter = &submitter
	return &c, nil
}

func complaintNotFound() error {
	return apperrors.NewResourceNotFoundError("Complaint not found")
}

// Create inserts a complaint and fills in the generated id and timestamps.
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	sql, args, err := r.sb.Insert("complaints").
		Columns(
			"subject", "message", "category", "priority", "status", "submitted_by", "tags",
			"is_anonymous", "is_urgent", "estimated_resolution_time",
		).
		Values(
			c.Subject, c.Message, string(c.Category), string(c.Priority), string(c.Status), c.SubmittedBy,
			helpers.NormalizeTags(c.Tags), c.IsAnonymous, c.IsUrgent, c.EstimatedResolutionTime,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create complaint query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("submittedBy", c.SubmittedBy).Msg("Error executing create complaint query")
		return fmt.Errorf("error creating complaint: %w", err)
	}
	return nil
}

// GetByID loads a complaint with its submitter and attachments.
func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	sql, args, err := r.selectComplaint().Where(squirrel.Eq{"cp.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get complaint query: %w", err)
	}

	c, err := scanComplaint(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, complaintNotFound()
		}
		return nil, fmt.Errorf("error retrieving complaint: %w", err)
	}

	if c.Attachments, err = r.ListAttachments(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

// Update persists every mutable field of c.
func (r *ComplaintRepository) Update(ctx context.Context, c *models.Complaint) error {
	c.UpdatedAt = time.Now().UTC()

	sql, args, err := r.sb.Update("complaints").
		SetMap(map[string]interface{}{
			"subject":                   c.Subject,
			"message":                   c.Message,
			"category":                  string(c.Category),
			"priority":                  string(c.Priority),
			"status":                    string(c.Status),
			"assigned_to":               c.AssignedTo,
			"assigned_at":               c.AssignedAt,
			"resolved_at":               c.ResolvedAt,
			"resolved_by":               c.ResolvedBy,
			"resolution":                c.Resolution,
			"closed_at":                 c.ClosedAt,
			"tags":                      helpers.NormalizeTags(c.Tags),
			"is_anonymous":              c.IsAnonymous,
			"is_urgent":                 c.IsUrgent,
			"estimated_resolution_time": c.EstimatedResolutionTime,
			"follow_up_required":        c.FollowUpRequired,
			"follow_up_date":            c.FollowUpDate,
			"satisfaction_rating":       c.SatisfactionRating,
			"feedback":                  c.Feedback,
			"updated_at":                c.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update complaint query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating complaint: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return complaintNotFound()
	}
	return nil
}

// Delete removes a complaint. Attachment rows cascade.
func (r *ComplaintRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("complaints").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete complaint query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting complaint: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return complaintNotFound()
	}
	return nil
}

// List returns a filtered, sorted page of complaints without attachments.
func (r *ComplaintRepository) List(ctx context.Context, f ComplaintFilter) (models.Page[models.Complaint], error) {
	var page models.Page[models.Complaint]
	where := f.where()

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("complaints cp").Where(where).ToSql()
	if err != nil {
		return page, fmt.Errorf("failed to build count complaints query: %w", err)
	}
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("error counting complaints: %w", err)
	}

	page.Items = []models.Complaint{}
	if page.Total == 0 {
		return page, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(f.Page, f.Size)
	sql, args, err := r.selectComplaint().
		Where(where).
		OrderBy(orderBy(complaintSorts, f.SortBy, f.SortOrder, "cp.created_at"), "cp.id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return page, fmt.Errorf("failed to build list complaints query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return page, fmt.Errorf("error listing complaints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return page, fmt.Errorf("error scanning complaint: %w", err)
		}
		page.Items = append(page.Items, *c)
	}
	return page, rows.Err()
}

// ListAttachments returns the attachments of a complaint in upload order.
func (r *ComplaintRepository) ListAttachments(ctx context.Context, complaintID int64) ([]models.Attachment, error) {
	sql, args, err := r.sb.Select("id", "complaint_id", "filename", "url", "storage_id", "uploaded_at").
		From("complaint_attachments").
		Where(squirrel.Eq{"complaint_id": complaintID}).
		OrderBy("uploaded_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list attachments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing attachments: %w", err)
	}
	attachments, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Attachment])
	if err != nil {
		return nil, fmt.Errorf("error scanning attachments: %w", err)
	}
	return attachments, nil
}

// AddAttachment appends an attachment while the complaint holds fewer than limit.
// The complaint row is locked so concurrent uploads cannot exceed the cap.
func (r *ComplaintRepository) AddAttachment(ctx context.Context, a *models.Attachment, limit int) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM complaints WHERE id = $1 FOR UPDATE`, a.ComplaintID).Scan(&locked)
		if err != nil {
			if dberrors.IsNoRows(err) {
				return complaintNotFound()
			}
			return fmt.Errorf("error locking complaint: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM complaint_attachments WHERE complaint_id = $1`, a.ComplaintID).Scan(&count); err != nil {
			return fmt.Errorf("error counting attachments: %w", err)
		}
		if count >= limit {
			return apperrors.NewInvalidStateError(fmt.Sprintf("A complaint can have at most %d attachments", limit))
		}

		sql, args, err := r.sb.Insert("complaint_attachments").
			Columns("complaint_id", "filename", "url", "storage_id", "uploaded_at").
			Values(a.ComplaintID, a.Filename, a.URL, a.StorageID, a.UploadedAt).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build add attachment query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&a.ID); err != nil {
			return fmt.Errorf("error adding attachment: %w", err)
		}
		return nil
	})
}

// Stats counts complaints by status, category and priority. A non-nil
// submittedBy restricts the counts to that user's complaints.
func (r *ComplaintRepository) Stats(ctx context.Context, submittedBy *int64) (*models.ComplaintStats, error) {
	where := ComplaintFilter{SubmittedBy: submittedBy}.where()

	sql, args, err := r.sb.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE cp.status = 'open')",
		"COUNT(*) FILTER (WHERE cp.status = 'assigned')",
		"COUNT(*) FILTER (WHERE cp.status = 'in-progress')",
		"COUNT(*) FILTER (WHERE cp.status = 'resolved')",
		"COUNT(*) FILTER (WHERE cp.status = 'closed')",
		"COUNT(*) FILTER (WHERE cp.is_urgent)",
	).From("complaints cp").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build complaint stats query: %w", err)
	}

	var s models.ComplaintStats
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&s.Total, &s.Open, &s.Assigned, &s.InProgress, &s.Resolved, &s.Closed, &s.Urgent,
	)
	if err != nil {
		return nil, fmt.Errorf("error computing complaint stats: %w", err)
	}

	for _, breakdown := range []struct {
		column string
		dest   *[]models.CountBucket
	}{
		{column: "cp.category", dest: &s.ByCategory},
		{column: "cp.priority", dest: &s.ByPriority},
	} {
		bSQL, bArgs, err := r.sb.Select(breakdown.column, "COUNT(*)").
			From("complaints cp").
			Where(where).
			GroupBy(breakdown.column).
			OrderBy("COUNT(*) DESC").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build complaint breakdown query: %w", err)
		}
		if *breakdown.dest, err = collectBuckets(ctx, r.db, bSQL, bArgs); err != nil {
			return nil, fmt.Errorf("error computing complaint breakdown: %w", err)
		}
	}
	return &s, nil
}
