package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/halyard-group/halyard-web/internal/models"
)

// InquiryRepository defines the interface for inquiry data access.
type InquiryRepository interface {
	// Create inserts inq and fills in its ID.
	Create(ctx context.Context, inq *models.Inquiry) error
	GetByPublicID(ctx context.Context, publicID string) (*models.Inquiry, error)
	List(ctx context.Context, query *ListQuery) (*ListResult[models.Inquiry], error)

	// Delivery bookkeeping; both count one attempt.
	MarkSent(ctx context.Context, id int64, messageID string, at time.Time) error
	MarkFailed(ctx context.Context, id int64, lastError string) error

	// ListRetryable returns failed inquiries, and pending ones untouched since
	// staleBefore, with fewer than maxAttempts attempts, oldest first. Inside a
	// transaction the rows stay locked and rows locked elsewhere are skipped.
	ListRetryable(ctx context.Context, maxAttempts int, staleBefore time.Time, limit int) ([]models.Inquiry, error)
	// MarkPending claims inquiries for a delivery attempt.
	MarkPending(ctx context.Context, ids []int64) error
}

// inquiryFieldMapping maps API field names to inquiry columns.
var inquiryFieldMapping = FieldMapping{
	"id":         "public_id",
	"name":       "name",
	"email":      "email",
	"topic":      "topic",
	"status":     "status",
	"attempts":   "attempts",
	"created_at": "created_at",
	"sent_at":    "sent_at",
}

var inquirySearchFields = []string{"name", "email", "company", "message"}

const inquiryColumns = `id, public_id, name, email, company, phone, topic, message, origin,
	client_hash, user_agent, status, message_id, attempts, last_error, created_at, updated_at, sent_at`

// inquiryRepository implements InquiryRepository using sqlx.
type inquiryRepository struct {
	db *sqlx.DB
}

// NewInquiryRepository creates a new inquiry repository.
func NewInquiryRepository(db *sqlx.DB) InquiryRepository {
	return &inquiryRepository{db: db}
}

// Create inserts a new inquiry.
func (r *inquiryRepository) Create(ctx context.Context, inq *models.Inquiry) error {
	q := queryable(ctx, r.db)

	if inq.Status == "" {
		inq.Status = models.InquiryStatusPending
	}
	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = time.Now().UTC()
	}
	inq.UpdatedAt = inq.CreatedAt

	result, err := q.NamedExecContext(ctx, `
		INSERT INTO inquiries (public_id, name, email, company, phone, topic, message, origin,
			client_hash, user_agent, status, attempts, created_at, updated_at)
		VALUES (:public_id, :name, :email, :company, :phone, :topic, :message, :origin,
			:client_hash, :user_agent, :status, :attempts, :created_at, :updated_at)`, inq)
	if err != nil {
		return ParseDBError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ParseDBError(err)
	}
	inq.ID = id
	return nil
}

// GetByPublicID retrieves an inquiry by its public UUID.
func (r *inquiryRepository) GetByPublicID(ctx context.Context, publicID string) (*models.Inquiry, error) {
	q := queryable(ctx, r.db)

	var inq models.Inquiry
	err := q.GetContext(ctx, &inq, "SELECT "+inquiryColumns+" FROM inquiries WHERE public_id = ?", publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, ParseDBError(err)
	}
	return &inq, nil
}

// List retrieves a filtered, paginated page of inquiries.
func (r *inquiryRepository) List(ctx context.Context, query *ListQuery) (*ListResult[models.Inquiry], error) {
	if query == nil {
		query = NewListQuery()
	}
	q := queryable(ctx, r.db)

	clauses, err := buildListClauses(query, inquiryFieldMapping, inquirySearchFields, "created_at DESC")
	if err != nil {
		return nil, err
	}

	var total int64
	if err := q.GetContext(ctx, &total, q.Rebind("SELECT COUNT(*) FROM inquiries"+clauses.where), clauses.args...); err != nil {
		return nil, ParseDBError(err)
	}

	sqlText := "SELECT " + inquiryColumns + " FROM inquiries" + clauses.where + clauses.order
	args := clauses.args
	if query.Limit > 0 {
		sqlText += " LIMIT ? OFFSET ?"
		args = append(args, query.Limit, query.Offset)
	}

	data := []models.Inquiry{}
	if err := q.SelectContext(ctx, &data, q.Rebind(sqlText), args...); err != nil {
		return nil, ParseDBError(err)
	}

	return &ListResult[models.Inquiry]{
		Data:   data,
		Total:  total,
		Limit:  query.Limit,
		Offset: query.Offset,
	}, nil
}

// MarkSent records a successful delivery.
func (r *inquiryRepository) MarkSent(ctx context.Context, id int64, messageID string, at time.Time) error {
	q := queryable(ctx, r.db)

	result, err := q.ExecContext(ctx, `
		UPDATE inquiries
		SET status = ?, message_id = ?, sent_at = ?, last_error = NULL,
		    attempts = attempts + 1, updated_at = ?
		WHERE id = ?`,
		models.InquiryStatusSent, messageID, at, at, id)
	return r.checkAffected(result, err)
}

// MarkFailed records a failed delivery attempt.
func (r *inquiryRepository) MarkFailed(ctx context.Context, id int64, lastError string) error {
	q := queryable(ctx, r.db)

	result, err := q.ExecContext(ctx, `
		UPDATE inquiries
		SET status = ?, last_error = ?, attempts = attempts + 1, updated_at = ?
		WHERE id = ?`,
		models.InquiryStatusFailed, truncate(lastError, 1000), time.Now().UTC(), id)
	return r.checkAffected(result, err)
}

// ListRetryable returns inquiries still eligible for another attempt.
func (r *inquiryRepository) ListRetryable(ctx context.Context, maxAttempts int, staleBefore time.Time, limit int) ([]models.Inquiry, error) {
	q := queryable(ctx, r.db)

	data := []models.Inquiry{}
	err := q.SelectContext(ctx, &data, `
		SELECT `+inquiryColumns+`
		FROM inquiries
		WHERE (status = ? OR (status = ? AND updated_at < ?)) AND attempts < ?
		ORDER BY created_at ASC
		LIMIT ?
		FOR UPDATE SKIP LOCKED`,
		models.InquiryStatusFailed, models.InquiryStatusPending, staleBefore, maxAttempts, limit)
	if err != nil {
		return nil, ParseDBError(err)
	}
	return data, nil
}

// MarkPending moves the given inquiries back to pending and touches updated_at.
func (r *inquiryRepository) MarkPending(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	q := queryable(ctx, r.db)

	query, args, err := sqlx.In(`UPDATE inquiries SET status = ?, updated_at = ? WHERE id IN (?)`,
		models.InquiryStatusPending, time.Now().UTC(), ids)
	if err != nil {
		return fmt.Errorf("failed to expand inquiry ids: %w", err)
	}
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return ParseDBError(err)
	}
	return nil
}

func (r *inquiryRepository) checkAffected(result sql.Result, err error) error {
	if err != nil {
		return ParseDBError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return ParseDBError(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// truncate shortens s to at most n characters for VARCHAR(n) columns.
// Invalid UTF-8 is replaced so strict-mode MySQL accepts the value.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
