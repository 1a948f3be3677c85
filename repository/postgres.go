package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"health-intake-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on the schema in database/migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) ListDiseases(ctx context.Context) ([]models.Disease, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id::text, d.name, COALESCE(d.description, ''), COALESCE(d.specialist, ''),
		       ds.symptom_id::text, s.name, ds.present
		FROM diseases d
		LEFT JOIN disease_symptoms ds ON ds.disease_id = d.id
		LEFT JOIN symptoms s ON s.id = ds.symptom_id
		ORDER BY d.name, s.name`)
	if err != nil {
		return nil, fmt.Errorf("query diseases: %w", err)
	}
	defer rows.Close()

	var diseases []models.Disease
	index := make(map[string]int)
	for rows.Next() {
		var (
			d         models.Disease
			symptomID *string
			symptom   *string
			present   *bool
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Specialist, &symptomID, &symptom, &present); err != nil {
			return nil, fmt.Errorf("scan disease: %w", err)
		}
		i, seen := index[d.ID]
		if !seen {
			i = len(diseases)
			index[d.ID] = i
			diseases = append(diseases, d)
		}
		if symptomID != nil && symptom != nil {
			diseases[i].Symptoms = append(diseases[i].Symptoms, models.DiseaseSymptom{
				DiseaseID: d.ID,
				SymptomID: *symptomID,
				Symptom:   *symptom,
				Present:   present != nil && *present,
			})
		}
	}
	return diseases, rows.Err()
}

func (s *PostgresStore) LoadSymptomDataset(ctx context.Context) ([]models.DatasetRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT disease, symptoms FROM symptom_dataset ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close()

	var records []models.DatasetRecord
	for rows.Next() {
		var r models.DatasetRecord
		if err := rows.Scan(&r.Disease, &r.Symptoms); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

const doctorColumns = `id::text, name, specialty, location, COALESCE(chamber, ''), experience_years, COALESCE(consultation_fee, 0)`

func scanDoctor(row pgx.Row) (*models.Doctor, error) {
	var d models.Doctor
	if err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.Location, &d.Chamber, &d.ExperienceYears, &d.ConsultationFee); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+doctorColumns+` FROM doctors`)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, *d)
	}
	return doctors, rows.Err()
}

func (s *PostgresStore) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	d, err := scanDoctor(s.pool.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("doctor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, msg models.ChatMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (owner_id, text, is_from_user, detected_disease, recommended_doctor_id, channel, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)`,
		msg.OwnerID, msg.Text, msg.IsFromUser, msg.DetectedDisease, msg.RecommendedDoctorID, string(msg.Channel), msg.Timestamp)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

const appointmentColumns = `id::text, owner_id, doctor_id, appointment_date, status, amount, paid,
	COALESCE(payment_reference, ''), COALESCE(checkout_reference, ''), created_at`

// uniqueViolation is the SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	var (
		a      models.Appointment
		status string
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.DoctorID, &a.AppointmentDate, &status, &a.Amount, &a.Paid, &a.PaymentReference, &a.CheckoutReference, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Status = models.AppointmentStatus(status)
	return &a, nil
}

func (s *PostgresStore) CreateAppointment(ctx context.Context, a *models.Appointment) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO appointments (id, owner_id, doctor_id, appointment_date, status, amount, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.OwnerID, a.DoctorID, a.AppointmentDate, string(a.Status), a.Amount, a.Paid, a.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert appointment: %w", err)
	}
	return a.ID, nil
}

func (s *PostgresStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) AttachCheckout(ctx context.Context, id, checkoutReference string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments SET checkout_reference = $2
		WHERE id::text = $1 AND paid = FALSE`, id, checkoutReference)
	if err != nil {
		return fmt.Errorf("attach checkout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unpaid appointment %s: %w", id, ErrNotFound)
	}
	return nil
}

// ConfirmPayment locks the appointment row, and marks it paid only if it
// is still unpaid, in a single transaction.
func (s *PostgresStore) ConfirmPayment(ctx context.Context, id, reference string, scheduledAt time.Time) (*models.Appointment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id::text = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock appointment: %w", err)
	}
	if current.Paid {
		return current, nil
	}

	updated, err := scanAppointment(tx.QueryRow(ctx, `
		UPDATE appointments
		SET paid = TRUE, status = $2, payment_reference = $3, appointment_date = $4
		WHERE id::text = $1
		RETURNING `+appointmentColumns,
		id, string(models.AppointmentConfirmed), reference, scheduledAt))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, fmt.Errorf("reference %s: %w", reference, ErrReferenceInUse)
	}
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}
