package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"donation-platform/internal/models"
)

const patientColumns = `id, slug, name, age, diagnosis, hospital, story, goal_amount, raised_amount, image_url, status, created_at, updated_at`

// PatientRepository handles patient data operations
type PatientRepository struct {
	db *sql.DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *sql.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	p := &models.Patient{}
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Name,
		&p.Age,
		&p.Diagnosis,
		&p.Hospital,
		&p.Story,
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

// List returns patients matching filter along with the total match count
func (r *PatientRepository) List(ctx context.Context, filter TargetFilter) ([]*models.Patient, int, error) {
	where, args := filter.whereClause("name")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM patients "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM patients
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, patientColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.limit(), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := []*models.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating patients: %w", err)
	}

	return patients, total, nil
}

// GetByID retrieves a patient by ID
func (r *PatientRepository) GetByID(ctx context.Context, id int) (*models.Patient, error) {
	p, err := scanPatient(r.db.QueryRowContext(ctx, "SELECT "+patientColumns+" FROM patients WHERE id = $1", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("patient %d: %w", id, models.ErrTargetNotFound)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

// GetBySlug retrieves a patient by slug
func (r *PatientRepository) GetBySlug(ctx context.Context, slug string) (*models.Patient, error) {
	p, err := scanPatient(r.db.QueryRowContext(ctx, "SELECT "+patientColumns+" FROM patients WHERE slug = $1", slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("patient %q: %w", slug, models.ErrTargetNotFound)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

// Create inserts a new patient
func (r *PatientRepository) Create(ctx context.Context, in *models.PatientInput) (*models.Patient, error) {
	query := `
		INSERT INTO patients (slug, name, age, diagnosis, hospital, story, goal_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + patientColumns

	p, err := scanPatient(r.db.QueryRowContext(ctx, query,
		in.Slug, in.Name, in.Age, in.Diagnosis, in.Hospital, in.Story, in.GoalAmount, in.Status, time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("patient slug %q: %w", in.Slug, models.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return p, nil
}

// Update replaces the editable fields of a patient
func (r *PatientRepository) Update(ctx context.Context, id int, in *models.PatientInput) (*models.Patient, error) {
	query := `
		UPDATE patients
		SET slug = $2, name = $3, age = $4, diagnosis = $5, hospital = $6, story = $7, goal_amount = $8, status = $9, updated_at = $10
		WHERE id = $1
		RETURNING ` + patientColumns

	p, err := scanPatient(r.db.QueryRowContext(ctx, query,
		id, in.Slug, in.Name, in.Age, in.Diagnosis, in.Hospital, in.Story, in.GoalAmount, in.Status, time.Now()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("patient %d: %w", id, models.ErrTargetNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("patient slug %q: %w", in.Slug, models.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return p, nil
}

func (r *PatientRepository) Delete(ctx context.Context, id int) error {
	return deleteTarget(ctx, r.db, "patients", id)
}

func (r *PatientRepository) UpdateImage(ctx context.Context, id int, imageURL string) error {
	return updateTargetImage(ctx, r.db, "patients", id, imageURL)
}
