package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donation-platform/internal/models"
)

var donationCols = []string{"id", "reference", "category", "target_id", "amount", "currency", "donor_name", "donor_email",
	"donor_phone", "message", "payment_method", "gateway", "gateway_token", "payment_url", "status",
	"paid_at", "created_at", "updated_at"}

func donationRow(status models.DonationStatus, category models.DonationCategory, targetID interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(donationCols).AddRow(
		7, "DON-20240101-ABC123", string(category), targetID, 50.0, "USD", "Fatima", "fatima@example.com",
		"", "", "online", "mock", "tok", "https://pay.example/tok", string(status),
		nil, now, now)
}

func TestDonationRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)
	now := time.Now()
	id := 4

	d := &models.Donation{
		Reference:     "DON-20240101-ABC123",
		Category:      models.CategoryPatient,
		TargetID:      &id,
		Amount:        50,
		Currency:      "USD",
		DonorName:     "Fatima",
		DonorEmail:    "fatima@example.com",
		PaymentMethod: models.PaymentMethodOnline,
		Gateway:       "mock",
	}

	mock.ExpectQuery(`INSERT INTO donations`).
		WithArgs("DON-20240101-ABC123", "patient", 4, 50.0, "USD", "Fatima", "fatima@example.com",
			"", "", "online", "mock", "pending", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))

	require.NoError(t, repo.Create(context.Background(), d))
	assert.Equal(t, 11, d.ID)
	assert.Equal(t, models.DonationPending, d.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_GetByReference(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)
	now := time.Now()

	cols := append(append([]string{}, donationCols...), "title")
	mock.ExpectQuery(`FROM donations d.*WHERE d.reference = \$1`).
		WithArgs("DON-20240101-ABC123").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			7, "DON-20240101-ABC123", "campaign", 3, 50.0, "USD", "Fatima", "fatima@example.com",
			"", "", "online", "mock", "tok", "https://pay.example/tok", "paid",
			now, now, now, "Clean Water"))

	d, err := repo.GetByReference(context.Background(), "DON-20240101-ABC123")
	require.NoError(t, err)
	assert.Equal(t, "Clean Water", d.TargetTitle)
	require.NotNil(t, d.TargetID)
	assert.Equal(t, 3, *d.TargetID)
	assert.NotNil(t, d.PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_MarkPaidIncrementsTarget(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM donations d WHERE d.reference = \$1 FOR UPDATE`).
		WithArgs("DON-20240101-ABC123").
		WillReturnRows(donationRow(models.DonationPending, models.CategoryPatient, 4))
	mock.ExpectExec(`UPDATE donations SET status = \$2`).
		WithArgs(7, "paid", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE patients SET raised_amount = raised_amount \+ \$2`).
		WithArgs(4, 50.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d, changed, err := repo.MarkPaid(context.Background(), "DON-20240101-ABC123", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.DonationPaid, d.Status)
	assert.NotNil(t, d.PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_MarkPaidGeneralFundSkipsTarget(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(donationRow(models.DonationPending, models.CategoryGeneral, nil))
	mock.ExpectExec(`UPDATE donations SET status = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, changed, err := repo.MarkPaid(context.Background(), "DON-20240101-ABC123", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_MarkPaidIsIdempotent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(donationRow(models.DonationPaid, models.CategoryCampaign, 3))
	mock.ExpectCommit()

	d, changed, err := repo.MarkPaid(context.Background(), "DON-20240101-ABC123", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.DonationPaid, d.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_MarkPaidRollsBackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(donationRow(models.DonationPending, models.CategoryCampaign, 3))
	mock.ExpectExec(`UPDATE donations SET status`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE campaigns SET raised_amount`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, changed, err := repo.MarkPaid(context.Background(), "DON-20240101-ABC123", time.Now())
	require.Error(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_MarkStatusRejectsPaid(t *testing.T) {
	repo := NewDonationRepository(nil)
	_, _, err := repo.MarkStatus(context.Background(), "DON-20240101-ABC123", models.DonationPaid)
	assert.True(t, errors.Is(err, models.ErrInvalidStatusChange))
}

func TestDonationRepository_MarkStatusUnknownReference(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(donationCols))
	mock.ExpectRollback()

	_, _, err := repo.MarkStatus(context.Background(), "DON-20240101-ZZZZZZ", models.DonationExpired)
	assert.True(t, errors.Is(err, models.ErrDonationNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_ListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM donations d WHERE d.status = \$1 AND d.category = \$2`).
		WithArgs("paid", "zakat").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`LIMIT \$3 OFFSET \$4`).
		WithArgs("paid", "zakat", 25, 50).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, donationCols...), "title")))

	donations, total, err := repo.List(context.Background(), models.DonationFilters{
		Status:   models.DonationPaid,
		Category: models.CategoryZakat,
		Limit:    25,
		Offset:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, donations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_ExpirePending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)
	cutoff := time.Now().Add(-24 * time.Hour)

	mock.ExpectExec(`UPDATE donations\s+SET status = \$1`).
		WithArgs("expired", sqlmock.AnyArg(), "pending", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpirePending(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
