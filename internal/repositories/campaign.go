package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"donation-platform/internal/models"
)

const campaignColumns = `id, slug, title, summary, description, goal_amount, raised_amount, image_url, status, ends_at, created_at, updated_at`

// CampaignRepository handles campaign data operations
type CampaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	c := &models.Campaign{}
	var endsAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.Slug,
		&c.Title,
		&c.Summary,
		&c.Description,
		&c.GoalAmount,
		&c.RaisedAmount,
		&c.ImageURL,
		&c.Status,
		&endsAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endsAt.Valid {
		c.EndsAt = &endsAt.Time
	}
	c.Progress = models.ComputeProgress(c.RaisedAmount, c.GoalAmount)
	return c, nil
}

// List returns campaigns matching filter along with the total match count
func (r *CampaignRepository) List(ctx context.Context, filter TargetFilter) ([]*models.Campaign, int, error) {
	where, args := filter.whereClause("title")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM campaigns "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM campaigns
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, campaignColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.limit(), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return campaigns, total, nil
}

// GetByID retrieves a campaign by ID
func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, "SELECT "+campaignColumns+" FROM campaigns WHERE id = $1", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("campaign %d: %w", id, models.ErrTargetNotFound)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

// GetBySlug retrieves a campaign by its slug
func (r *CampaignRepository) GetBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, "SELECT "+campaignColumns+" FROM campaigns WHERE slug = $1", slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("campaign %q: %w", slug, models.ErrTargetNotFound)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

// Create inserts a new campaign
func (r *CampaignRepository) Create(ctx context.Context, in *models.CampaignInput) (*models.Campaign, error) {
	query := `
		INSERT INTO campaigns (slug, title, summary, description, goal_amount, status, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + campaignColumns

	c, err := scanCampaign(r.db.QueryRowContext(ctx, query,
		in.Slug,
		in.Title,
		in.Summary,
		in.Description,
		in.GoalAmount,
		in.Status,
		in.EndsAt,
		time.Now(),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("campaign slug %q: %w", in.Slug, models.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return c, nil
}

// Update replaces the editable fields of a campaign
func (r *CampaignRepository) Update(ctx context.Context, id int, in *models.CampaignInput) (*models.Campaign, error) {
	query := `
		UPDATE campaigns
		SET slug = $2, title = $3, summary = $4, description = $5, goal_amount = $6, status = $7, ends_at = $8, updated_at = $9
		WHERE id = $1
		RETURNING ` + campaignColumns

	c, err := scanCampaign(r.db.QueryRowContext(ctx, query,
		id,
		in.Slug,
		in.Title,
		in.Summary,
		in.Description,
		in.GoalAmount,
		in.Status,
		in.EndsAt,
		time.Now(),
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("campaign %d: %w", id, models.ErrTargetNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("campaign slug %q: %w", in.Slug, models.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return c, nil
}

// Delete removes a campaign. Donations keep their reference to it.
func (r *CampaignRepository) Delete(ctx context.Context, id int) error {
	return deleteTarget(ctx, r.db, "campaigns", id)
}

// UpdateImage sets the cover image URL of a campaign
func (r *CampaignRepository) UpdateImage(ctx context.Context, id int, imageURL string) error {
	return updateTargetImage(ctx, r.db, "campaigns", id, imageURL)
}

func deleteTarget(ctx context.Context, db *sql.DB, table string, id int) error {
	result, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return expectOneRow(result, table, id)
}

func updateTargetImage(ctx context.Context, db *sql.DB, table string, id int, imageURL string) error {
	result, err := db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET image_url = $2, updated_at = $3 WHERE id = $1", table),
		id, imageURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update %s image: %w", table, err)
	}
	return expectOneRow(result, table, id)
}

func expectOneRow(result sql.Result, table string, id int) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", table, id, models.ErrTargetNotFound)
	}
	return nil
}
