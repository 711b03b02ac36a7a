package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"confreg/internal/model"
)

var (
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrCertificateNotFound  = errors.New("certificate not found")
	ErrRegistrationNotFound = errors.New("session registration not found")
)

type Repository interface {
	RegisterParticipantTx(ctx context.Context, p *model.Participant, pay *model.Payment) (string, error)
	GetParticipantByRegistrationID(ctx context.Context, regID string) (*model.Participant, error)
	ListParticipants(ctx context.Context) ([]model.ParticipantSummary, error)
	UpdatePaymentStatus(ctx context.Context, regID string, status model.PaymentStatus, transactionID string) error
	CreateCertificate(ctx context.Context, c *model.Certificate) (int64, error)
	TouchCertificateDownload(ctx context.Context, code string) (*model.Certificate, error)
	ListSessions(ctx context.Context) ([]model.ConferenceSession, error)
	CountSessionRegistrations(ctx context.Context, sessionID int64) (int, error)
	CreateSessionRegistration(ctx context.Context, reg *model.SessionRegistration) (int64, error)
	CreateFeedback(ctx context.Context, fb *model.Feedback) (int64, error)
	MarkAttendance(ctx context.Context, sessionID, participantID int64, attended bool) error
	MigrateUp(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

// RegisterParticipantTx creates the participant and its pending payment in a
// single transaction. Either both rows land or neither does.
func (r *repository) RegisterParticipantTx(ctx context.Context, p *model.Participant, pay *model.Payment) (string, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if pr := recover(); pr != nil {
			_ = tx.Rollback()
			panic(pr)
		}
	}()

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM participants WHERE email = $1
	`, p.Email).Scan(&existing)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to check duplicate email: %w", err)
	}
	if existing > 0 {
		_ = tx.Rollback()
		return "", ErrDuplicateEmail
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO participants (
			first_name, last_name, email, phone, organization, job_title,
			membership_number, member_type, dietary_requirements, attendance_type,
			registration_id, registration_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW(), NOW())
		RETURNING id
	`, p.FirstName, p.LastName, p.Email, p.Phone, p.Organization, p.JobTitle,
		p.MembershipNumber, p.MemberType, p.DietaryRequirements, p.AttendanceType,
		p.RegistrationID,
	).Scan(&p.ID)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to create participant: %w", err)
	}

	pay.ParticipantID = p.ID
	pay.Status = model.PaymentPending
	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (participant_id, amount, payment_method, payment_status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`, pay.ParticipantID, pay.Amount, pay.Method, pay.Status).Scan(&pay.ID)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to create payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p.RegistrationID, nil
}

func (r *repository) GetParticipantByRegistrationID(ctx context.Context, regID string) (*model.Participant, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, organization, job_title,
		       membership_number, member_type, dietary_requirements, attendance_type,
		       registration_id, registration_date, created_at, updated_at
		FROM participants
		WHERE registration_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, regID)

	var p model.Participant
	if err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.Organization,
		&p.JobTitle,
		&p.MembershipNumber,
		&p.MemberType,
		&p.DietaryRequirements,
		&p.AttendanceType,
		&p.RegistrationID,
		&p.RegistrationDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, ErrParticipantNotFound
	}

	return &p, nil
}

func (r *repository) ListParticipants(ctx context.Context) ([]model.ParticipantSummary, error) {
	query := `
		SELECT pt.id,
		       pt.first_name || ' ' || pt.last_name AS name,
		       pt.email,
		       pt.registration_id,
		       COALESCE(
		           (SELECT p.payment_status FROM payments p
		            WHERE p.participant_id = pt.id
		            ORDER BY p.id ASC LIMIT 1),
		           'no_payment'
		       ) AS payment_status
		FROM participants pt
		ORDER BY pt.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var out []model.ParticipantSummary
	for rows.Next() {
		var s model.ParticipantSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.RegistrationID, &s.PaymentStatus); err != nil {
			return nil, fmt.Errorf("failed to scan participant summary: %w", err)
		}
		out = append(out, s)
	}

	return out, nil
}

// UpdatePaymentStatus applies the transition unconditionally: any known status
// may replace any other. Targets the participant's first payment, matching the
// admin listing.
func (r *repository) UpdatePaymentStatus(ctx context.Context, regID string, status model.PaymentStatus, transactionID string) error {
	query := `
		UPDATE payments
		SET payment_status = $1, transaction_id = $2, payment_date = NOW()
		WHERE id = (
			SELECT p.id FROM payments p
			JOIN participants pt ON pt.id = p.participant_id
			WHERE pt.registration_id = $3
			ORDER BY p.id ASC LIMIT 1
		)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, status, transactionID, regID).Scan(&id); err != nil {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *repository) CreateCertificate(ctx context.Context, c *model.Certificate) (int64, error) {
	query := `
		INSERT INTO certificates (participant_id, certificate_code, template_version, issue_date, download_count, revoked)
		VALUES ($1, $2, $3, NOW(), 0, FALSE)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, c.ParticipantID, c.Code, c.TemplateVersion).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create certificate: %w", err)
	}
	c.ID = id
	return id, nil
}

// TouchCertificateDownload bumps the download counter and the last-downloaded
// timestamp in one statement. Revoked and missing certificates are
// indistinguishable to the caller.
func (r *repository) TouchCertificateDownload(ctx context.Context, code string) (*model.Certificate, error) {
	query := `
		UPDATE certificates
		SET download_count = download_count + 1, last_downloaded = NOW()
		WHERE certificate_code = $1 AND NOT revoked
		RETURNING id, participant_id, certificate_code, template_version, issue_date,
		          expiry_date, download_count, last_downloaded, revoked
	`
	row := r.db.QueryRowContext(ctx, query, code)

	var c model.Certificate
	if err := row.Scan(
		&c.ID,
		&c.ParticipantID,
		&c.Code,
		&c.TemplateVersion,
		&c.IssueDate,
		&c.ExpiryDate,
		&c.DownloadCount,
		&c.LastDownloaded,
		&c.Revoked,
	); err != nil {
		return nil, ErrCertificateNotFound
	}

	return &c, nil
}

func (r *repository) ListSessions(ctx context.Context) ([]model.ConferenceSession, error) {
	query := `
		SELECT id, title, description, speaker, session_date, start_time, end_time,
		       max_capacity, room_number
		FROM conference_sessions
		ORDER BY session_date ASC, start_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.ConferenceSession
	for rows.Next() {
		var s model.ConferenceSession
		if err := rows.Scan(
			&s.ID,
			&s.Title,
			&s.Description,
			&s.Speaker,
			&s.SessionDate,
			&s.StartTime,
			&s.EndTime,
			&s.MaxCapacity,
			&s.RoomNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}

func (r *repository) CountSessionRegistrations(ctx context.Context, sessionID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM session_registrations
		WHERE session_id = $1
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count session registrations: %w", err)
	}

	return count, nil
}

// CreateSessionRegistration inserts unconditionally. There is no capacity or
// duplicate guard here; available_seats may go negative.
func (r *repository) CreateSessionRegistration(ctx context.Context, reg *model.SessionRegistration) (int64, error) {
	query := `
		INSERT INTO session_registrations (participant_id, session_id, registration_timestamp, attended)
		VALUES ($1, $2, NOW(), FALSE)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, reg.ParticipantID, reg.SessionID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create session registration: %w", err)
	}
	reg.ID = id
	return id, nil
}

func (r *repository) CreateFeedback(ctx context.Context, fb *model.Feedback) (int64, error) {
	query := `
		INSERT INTO feedback (participant_id, session_id, rating, comments, submitted_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, fb.ParticipantID, fb.SessionID, fb.Rating, fb.Comments).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create feedback: %w", err)
	}
	fb.ID = id
	return id, nil
}

func (r *repository) MarkAttendance(ctx context.Context, sessionID, participantID int64, attended bool) error {
	query := `
		UPDATE session_registrations
		SET attended = $1
		WHERE session_id = $2 AND participant_id = $3
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, attended, sessionID, participantID).Scan(&id); err != nil {
		return ErrRegistrationNotFound
	}
	return nil
}
