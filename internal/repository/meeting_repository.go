package repository

import (
	"context"
	"time"

	"hu-tracker/internal/models"
)

// MeetingRepository handles committee meeting database operations
type MeetingRepository struct {
	db DBTX
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db DBTX) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `id, date, time, type, status, attendees, decisions, minutes, created_at`

func scanMeeting(row scanner) (models.Meeting, error) {
	var m models.Meeting
	err := row.Scan(
		&m.ID,
		&m.Date,
		&m.Time,
		&m.Type,
		&m.Status,
		&m.Attendees,
		&m.Decisions,
		&m.Minutes,
		&m.CreatedAt,
	)
	return m, err
}

// List returns meetings, most recent date first
func (r *MeetingRepository) List(ctx context.Context, status models.MeetingStatus) ([]models.Meeting, error) {
	var w where
	if status != "" {
		w.add("status = $%d", status)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings`+w.String()+` ORDER BY date DESC NULLS LAST, id DESC`, w.args...)
	if err != nil {
		return nil, mapError("list meetings", err)
	}
	list, err := collect(rows, scanMeeting)
	if err != nil {
		return nil, mapError("scan meetings", err)
	}
	return list, nil
}

// Upcoming returns planned meetings dated from onwards
func (r *MeetingRepository) Upcoming(ctx context.Context, from time.Time) ([]models.Meeting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE date >= $1 AND status = $2 ORDER BY date, time, id`,
		dateOnly(&from), models.MeetingPlanned)
	if err != nil {
		return nil, mapError("list upcoming meetings", err)
	}
	list, err := collect(rows, scanMeeting)
	if err != nil {
		return nil, mapError("scan meetings", err)
	}
	return list, nil
}

// GetByID retrieves a meeting by ID
func (r *MeetingRepository) GetByID(ctx context.Context, id uint) (*models.Meeting, error) {
	m, err := scanMeeting(r.db.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get meeting", "meeting", id, err)
	}
	return &m, nil
}

// Create inserts a meeting
func (r *MeetingRepository) Create(ctx context.Context, m *models.Meeting) error {
	if m.Status == "" {
		m.Status = models.MeetingPlanned
	}
	query := `
		INSERT INTO meetings (date, time, type, status, attendees, decisions, minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		dateOnly(m.Date), m.Time, m.Type, m.Status, m.Attendees, m.Decisions, m.Minutes,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return mapError("create meeting", err)
	}
	return nil
}

// Update writes every field of the meeting
func (r *MeetingRepository) Update(ctx context.Context, m *models.Meeting) error {
	query := `
		UPDATE meetings
		SET date = $1, time = $2, type = $3, status = $4, attendees = $5, decisions = $6, minutes = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		dateOnly(m.Date), m.Time, m.Type, m.Status, m.Attendees, m.Decisions, m.Minutes, m.ID)
	if err != nil {
		return mapError("update meeting", err)
	}
	return expectAffected(res, "update meeting", "meeting", m.ID)
}

func (r *MeetingRepository) delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return mapError("delete meeting", err)
	}
	return expectAffected(res, "delete meeting", "meeting", id)
}
