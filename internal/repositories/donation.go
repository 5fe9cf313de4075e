package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"donation-platform/internal/database"
	"donation-platform/internal/models"
)

const donationColumns = `d.id, d.reference, d.category, d.target_id, d.amount, d.currency, d.donor_name, d.donor_email,
		d.donor_phone, d.message, d.payment_method, d.gateway, d.gateway_token, d.payment_url, d.status,
		d.paid_at, d.created_at, d.updated_at`

// targetTitleJoin resolves the title of the target a donation is earmarked for
const targetTitleJoin = `
		LEFT JOIN campaigns c ON d.category = 'campaign' AND c.id = d.target_id
		LEFT JOIN programs pr ON d.category = 'program' AND pr.id = d.target_id
		LEFT JOIN patients pt ON d.category = 'patient' AND pt.id = d.target_id`

const targetTitleColumn = `COALESCE(c.title, pr.title, pt.name, '')`

// DonationRepository handles donation data operations
type DonationRepository struct {
	db *sql.DB
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func scanDonation(row rowScanner, extra ...interface{}) (*models.Donation, error) {
	d := &models.Donation{}
	var targetID sql.NullInt64
	var paidAt sql.NullTime

	dest := []interface{}{
		&d.ID,
		&d.Reference,
		&d.Category,
		&targetID,
		&d.Amount,
		&d.Currency,
		&d.DonorName,
		&d.DonorEmail,
		&d.DonorPhone,
		&d.Message,
		&d.PaymentMethod,
		&d.Gateway,
		&d.GatewayToken,
		&d.PaymentURL,
		&d.Status,
		&paidAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if targetID.Valid {
		id := int(targetID.Int64)
		d.TargetID = &id
	}
	if paidAt.Valid {
		d.PaidAt = &paidAt.Time
	}
	return d, nil
}

// Create inserts a pending donation. ID and timestamps are filled in on d.
func (r *DonationRepository) Create(ctx context.Context, d *models.Donation) error {
	query := `
		INSERT INTO donations (reference, category, target_id, amount, currency, donor_name, donor_email,
			donor_phone, message, payment_method, gateway, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING id, created_at, updated_at`

	if d.Status == "" {
		d.Status = models.DonationPending
	}

	err := r.db.QueryRowContext(ctx, query,
		d.Reference,
		d.Category,
		d.TargetID,
		d.Amount,
		d.Currency,
		d.DonorName,
		d.DonorEmail,
		d.DonorPhone,
		d.Message,
		d.PaymentMethod,
		d.Gateway,
		d.Status,
		time.Now(),
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("donation reference %s: %w", d.Reference, models.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create donation: %w", err)
	}
	return nil
}

// GetByReference retrieves a donation and its target title by reference
func (r *DonationRepository) GetByReference(ctx context.Context, reference string) (*models.Donation, error) {
	query := "SELECT " + donationColumns + ", " + targetTitleColumn + " FROM donations d" + targetTitleJoin + " WHERE d.reference = $1"

	var title string
	d, err := scanDonation(r.db.QueryRowContext(ctx, query, reference), &title)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("donation %s: %w", reference, models.ErrDonationNotFound)
		}
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	d.TargetTitle = title
	return d, nil
}

// SetPaymentDetails records the gateway's token and redirect URL
func (r *DonationRepository) SetPaymentDetails(ctx context.Context, id int, gateway, token, paymentURL string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE donations
		SET gateway = $2, gateway_token = $3, payment_url = $4, updated_at = $5
		WHERE id = $1`,
		id, gateway, token, paymentURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update donation payment details: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("donation %d: %w", id, models.ErrDonationNotFound)
	}
	return nil
}

// MarkPaid settles a pending donation and adds its amount to the target's
// raised total in one transaction. Donations that are no longer pending are
// returned unchanged with changed == false, so repeated notifications from a
// gateway never count a donation twice.
func (r *DonationRepository) MarkPaid(ctx context.Context, reference string, paidAt time.Time) (donation *models.Donation, changed bool, err error) {
	return r.transition(ctx, reference, models.DonationPaid, paidAt)
}

// MarkStatus moves a pending donation to a final non-paid status
func (r *DonationRepository) MarkStatus(ctx context.Context, reference string, status models.DonationStatus) (*models.Donation, bool, error) {
	if status == models.DonationPaid || status == models.DonationPending || !status.Valid() {
		return nil, false, fmt.Errorf("status %q: %w", status, models.ErrInvalidStatusChange)
	}
	return r.transition(ctx, reference, status, time.Time{})
}

func (r *DonationRepository) transition(ctx context.Context, reference string, to models.DonationStatus, paidAt time.Time) (*models.Donation, bool, error) {
	var donation *models.Donation
	changed := false

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		d, err := scanDonation(tx.QueryRowContext(ctx,
			"SELECT "+donationColumns+" FROM donations d WHERE d.reference = $1 FOR UPDATE", reference))
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("donation %s: %w", reference, models.ErrDonationNotFound)
			}
			return fmt.Errorf("failed to lock donation: %w", err)
		}
		donation = d

		if d.Status != models.DonationPending {
			return nil
		}

		now := time.Now()
		var paid *time.Time
		if to == models.DonationPaid {
			paid = &paidAt
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE donations SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1",
			d.ID, to, paid, now); err != nil {
			return fmt.Errorf("failed to update donation status: %w", err)
		}

		if to == models.DonationPaid && d.TargetID != nil {
			if table := d.Category.TargetTable(); table != "" {
				query := fmt.Sprintf("UPDATE %s SET raised_amount = raised_amount + $2, updated_at = $3 WHERE id = $1", table)
				if _, err := tx.ExecContext(ctx, query, *d.TargetID, d.Amount, now); err != nil {
					return fmt.Errorf("failed to update raised amount: %w", err)
				}
			}
		}

		d.Status = to
		d.PaidAt = paid
		d.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return donation, changed, nil
}

// List returns donations matching filters along with the total match count
func (r *DonationRepository) List(ctx context.Context, filters models.DonationFilters) ([]*models.Donation, int, error) {
	var conditions []string
	var args []interface{}

	if filters.Status != "" {
		args = append(args, filters.Status)
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", len(args)))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		conditions = append(conditions, fmt.Sprintf("d.category = $%d", len(args)))
	}
	if filters.TargetID != nil {
		args = append(args, *filters.TargetID)
		conditions = append(conditions, fmt.Sprintf("d.target_id = $%d", len(args)))
	}
	if filters.DateFrom != nil {
		args = append(args, *filters.DateFrom)
		conditions = append(conditions, fmt.Sprintf("d.created_at >= $%d", len(args)))
	}
	if filters.DateTo != nil {
		args = append(args, *filters.DateTo)
		conditions = append(conditions, fmt.Sprintf("d.created_at < $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM donations d "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count donations: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM donations d %s
		%s
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $%d OFFSET $%d`, donationColumns, targetTitleColumn, targetTitleJoin, where, len(args)+1, len(args)+2)
	args = append(args, limit, filters.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query donations: %w", err)
	}
	defer rows.Close()

	donations := []*models.Donation{}
	for rows.Next() {
		var title string
		d, err := scanDonation(rows, &title)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan donation: %w", err)
		}
		d.TargetTitle = title
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating donations: %w", err)
	}

	return donations, total, nil
}

// ExpirePending marks pending donations created before cutoff as expired
// and returns how many were changed.
func (r *DonationRepository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE donations
		SET status = $1, updated_at = $2
		WHERE status = $3 AND created_at < $4`,
		models.DonationExpired, time.Now(), models.DonationPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending donations: %w", err)
	}
	return result.RowsAffected()
}
