package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"donation-platform/internal/models"
)

const programColumns = `id, slug, title, description, goal_amount, raised_amount, image_url, status, created_at, updated_at`

// ProgramRepository handles program data operations
type ProgramRepository struct {
	db *sql.DB
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(db *sql.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

func scanProgram(row rowScanner) (*models.Program, error) {
	p := &models.Program{}
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&p.Description,
		&p.GoalAmount,
		&p.RaisedAmount,
		&p.ImageURL,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Progress = models.ComputeProgress(p.RaisedAmount, p.GoalAmount)
	return p, nil
}

// List returns programs matching filter along with the total match count
func (r *ProgramRepository) List(ctx context.Context, filter TargetFilter) ([]*models.Program, int, error) {
	where, args := filter.whereClause("title")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM programs "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count programs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM programs
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, programColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.limit(), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	programs := []*models.Program{}
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating programs: %w", err)
	}

	return programs, total, nil
}

// GetByID retrieves a program by ID
func (r *ProgramRepository) GetByID(ctx context.Context, id int) (*models.Program, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx, "SELECT "+programColumns+" FROM programs WHERE id = $1", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("program %d: %w", id, models.ErrTargetNotFound)
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

// GetBySlug retrieves a program by its slug
func (r *ProgramRepository) GetBySlug(ctx context.Context, slug string) (*models.Program, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx, "SELECT "+programColumns+" FROM programs WHERE slug = $1", slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("program %q: %w", slug, models.ErrTargetNotFound)
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

// Create inserts a new program
func (r *ProgramRepository) Create(ctx context.Context, in *models.ProgramInput) (*models.Program, error) {
	query := `
		INSERT INTO programs (slug, title, description, goal_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + programColumns

	p, err := scanProgram(r.db.QueryRowContext(ctx, query,
		in.Slug, in.Title, in.Description, in.GoalAmount, in.Status, time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("program slug %q: %w", in.Slug, models.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	return p, nil
}

// Update replaces the editable fields of a program
func (r *ProgramRepository) Update(ctx context.Context, id int, in *models.ProgramInput) (*models.Program, error) {
	query := `
		UPDATE programs
		SET slug = $2, title = $3, description = $4, goal_amount = $5, status = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + programColumns

	p, err := scanProgram(r.db.QueryRowContext(ctx, query,
		id, in.Slug, in.Title, in.Description, in.GoalAmount, in.Status, time.Now()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("program %d: %w", id, models.ErrTargetNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("program slug %q: %w", in.Slug, models.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to update program: %w", err)
	}
	return p, nil
}

func (r *ProgramRepository) Delete(ctx context.Context, id int) error {
	return deleteTarget(ctx, r.db, "programs", id)
}

func (r *ProgramRepository) UpdateImage(ctx context.Context, id int, imageURL string) error {
	return updateTargetImage(ctx, r.db, "programs", id, imageURL)
}
