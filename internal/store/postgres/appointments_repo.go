package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"turnero/internal/domain"
	"turnero/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	err := r.inBusinessTransaction(ctx, appt.BusinessID, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			return mapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r *AppointmentRepo) Update(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	err := r.inBusinessTransaction(ctx, appt.BusinessID, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(&m).
			Column(
				"service_id", "date", "start_time", "duration_minutes",
				"state", "client_notes", "business_notes", "updated_at",
				"cancelled_at", "cancelled_by", "cancellation_reason",
			).
			WherePK().
			Exec(ctx)
		if err != nil {
			return mapWriteError(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepo) ListBusy(ctx context.Context, businessID int64, date time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		Where("date = ?", domain.DateOf(date)).
		Where("state IN (?)", bun.In([]domain.AppointmentState{domain.AppointmentPending, domain.AppointmentConfirmed})).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) ListPage(ctx context.Context, filter store.AppointmentFilter, page, pageSize int) (store.Page[domain.Appointment], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var rows []domain.Appointment
	q := r.db.NewSelect().Model(&rows)

	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	if filter.BusinessID != nil {
		q = q.Where("business_id = ?", *filter.BusinessID)
	}
	if filter.ServiceID != nil {
		q = q.Where("service_id = ?", *filter.ServiceID)
	}
	if filter.State != nil {
		q = q.Where("state = ?", *filter.State)
	}
	if filter.DateFrom != nil {
		q = q.Where("date >= ?", domain.DateOf(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		q = q.Where("date <= ?", domain.DateOf(*filter.DateTo))
	}

	total, err := q.
		OrderExpr("date DESC, start_time DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		ScanAndCount(ctx)
	if err != nil {
		return store.Page[domain.Appointment]{}, err
	}

	return store.NewPage(rows, page, pageSize, total), nil
}

// inBusinessTransaction serializes writes per business with an advisory
// lock. The lock narrows the race window; the appointments_no_overlap
// constraint is still what makes the second overlapping write fail when
// another process bypasses the lock.
func (r *AppointmentRepo) inBusinessTransaction(ctx context.Context, businessID int64, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(?)", businessID).Exec(ctx); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

// mapWriteError turns constraint violations into the typed conflict the
// booking engine expects: 23P01 is the exclusion constraint rejecting an
// overlapping window, 23505 a duplicate key on retry.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01":
			if pgErr.ConstraintName == "appointments_no_overlap" {
				return store.ErrConflict
			}
		case "23505":
			return store.ErrConflict
		}
	}
	return err
}
