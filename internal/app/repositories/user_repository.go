package repositories

import (
	"context"
	"fmt"
	"strings"
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

// UserFilter narrows a user listing.
type UserFilter struct {
	Role      *models.RoleType
	IsActive  *bool
	Branch    string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Size      int
}

var userSearch = textMatch{columns: []string{"name", "email", "usn"}}

var userSorts = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"email":     "email",
	"lastLogin": "last_login",
}

func (f UserFilter) where() squirrel.And {
	cond := squirrel.And{}
	if f.Role != nil {
		cond = append(cond, squirrel.Eq{"role": string(*f.Role)})
	}
	if f.IsActive != nil {
		cond = append(cond, squirrel.Eq{"is_active": *f.IsActive})
	}
	if f.Branch != "" {
		cond = append(cond, squirrel.ILike{"branch": helpers.ContainsPattern(f.Branch)})
	}
	if m := userSearch.where(f.Search); m != nil {
		cond = append(cond, m)
	}
	return cond
}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: statementBuilder(),
	}
}

var userColumns = []string{
	"id", "name", "email", "password", "role", "branch", "usn",
	"profile_picture", "is_active", "last_login", "created_at", "updated_at",
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.Branch, &u.USN,
		&u.ProfilePicture, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// mapUserWriteError translates unique violations on users into domain errors.
func mapUserWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
		return apperrors.ErrEmailAlreadyExists
	case dberrors.IsDuplicateConstraintError(err, "users_usn_key"):
		return apperrors.ErrUSNAlreadyExists
	}
	return err
}

// Create inserts a user and fills in the generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)

	sql, args, err := r.sb.Insert("users").
		Columns("name", "email", "password", "role", "branch", "usn", "profile_picture", "is_active").
		Values(user.Name, user.Email, user.Password, string(user.Role), user.Branch, user.USN, user.ProfilePicture, user.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return mapped
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewResourceNotFoundError("User not found")
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sql, args, err := r.sb.Select("1").From("users").Where(where).Prefix("SELECT EXISTS(").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking user existence: %w", err)
	}
	return exists, nil
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

// USNExists checks if a USN is taken by any user other than excludeID.
func (r *UserRepository) USNExists(ctx context.Context, usn string, excludeID int64) (bool, error) {
	return r.exists(ctx, squirrel.And{squirrel.Eq{"usn": usn}, squirrel.NotEq{"id": excludeID}})
}

// Update persists the mutable profile and account fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	sql, args, err := r.sb.Update("users").
		Set("name", user.Name).
		Set("branch", user.Branch).
		Set("usn", user.USN).
		Set("profile_picture", user.ProfilePicture).
		Set("role", string(user.Role)).
		Set("is_active", user.IsActive).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("User not found")
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	sql, args, err := r.sb.Update("users").
		Set("password", hash).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update password query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	return nil
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	sql, args, err := r.sb.Update("users").
		Set("last_login", at).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update last login query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to update last login time: %w", err)
	}
	return nil
}

// Delete removes a user. Owned content, opportunities and complaints cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("User not found")
	}
	return nil
}

// List returns a filtered page of users
func (r *UserRepository) List(ctx context.Context, f UserFilter) (models.Page[models.User], error) {
	var page models.Page[models.User]
	where := f.where()

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return page, fmt.Errorf("failed to build count users query: %w", err)
	}
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("error counting users: %w", err)
	}

	page.Items = []models.User{}
	if page.Total == 0 {
		return page, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(f.Page, f.Size)
	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		Where(where).
		OrderBy(orderBy(userSorts, f.SortBy, f.SortOrder, "created_at")).
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return page, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return page, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return page, fmt.Errorf("error scanning user: %w", err)
		}
		page.Items = append(page.Items, *u)
	}
	return page, rows.Err()
}

// SuggestNames returns up to limit names of active users matching query.
func (r *UserRepository) SuggestNames(ctx context.Context, query string, limit int) ([]string, error) {
	sql, args, err := r.sb.Select("name").
		From("users").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.ILike{"name": helpers.ContainsPattern(query)}).
		OrderBy("name ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user suggestion query: %w", err)
	}
	return collectStrings(ctx, r.db, sql, args)
}

// ActiveByRole counts users per role whose last login is at or after since.
func (r *UserRepository) ActiveByRole(ctx context.Context, since time.Time) ([]models.CountBucket, error) {
	sql, args, err := r.sb.Select("role", "COUNT(*)").
		From("users").
		Where(squirrel.GtOrEq{"last_login": since}).
		GroupBy("role").
		OrderBy("COUNT(*) DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user activity query: %w", err)
	}
	return collectBuckets(ctx, r.db, sql, args)
}

// collectStrings runs a single text column query.
func collectStrings(ctx context.Context, db *pgxpool.Pool, sql string, args []interface{}) ([]string, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return values, nil
}

// collectBuckets runs a (key, count) group-by query.
func collectBuckets(ctx context.Context, db *pgxpool.Pool, sql string, args []interface{}) ([]models.CountBucket, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []models.CountBucket{}
	for rows.Next() {
		var b models.CountBucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
