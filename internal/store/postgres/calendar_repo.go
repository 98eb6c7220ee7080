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

type CalendarRepo struct {
	db *bun.DB
}

func NewCalendarRepo(db *bun.DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

func (r *CalendarRepo) BusinessExists(ctx context.Context, businessID int64) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*domain.Business)(nil)).
		Where("id = ?", businessID).
		Where("active").
		Exists(ctx)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *CalendarRepo) GetService(ctx context.Context, serviceID int64) (domain.Service, error) {
	var svc domain.Service
	err := r.db.NewSelect().
		Model(&svc).
		Where("id = ?", serviceID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, store.ErrNotFound
		}
		return domain.Service{}, err
	}
	return svc, nil
}

func (r *CalendarRepo) ListActiveServices(ctx context.Context, businessID int64) ([]domain.Service, error) {
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		Where("active").
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CalendarRepo) ActiveHoursForWeekday(ctx context.Context, businessID int64, weekday time.Weekday) (domain.BusinessHours, error) {
	var hours domain.BusinessHours
	err := r.db.NewSelect().
		Model(&hours).
		Where("business_id = ?", businessID).
		Where("weekday = ?", weekday).
		Where("active").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BusinessHours{}, store.ErrNotFound
		}
		return domain.BusinessHours{}, err
	}
	return hours, nil
}

func (r *CalendarRepo) ListHours(ctx context.Context, businessID int64, onlyActive bool) ([]domain.BusinessHours, error) {
	var rows []domain.BusinessHours
	q := r.db.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID)
	if onlyActive {
		q = q.Where("active")
	}
	err := q.OrderExpr("weekday ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CalendarRepo) CreateHours(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error) {
	m := hours
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.BusinessHours{}, mapHoursError(err)
	}
	return m, nil
}

func (r *CalendarRepo) UpdateHours(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error) {
	m := hours
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("weekday", "open_minute", "close_minute", "active").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.BusinessHours{}, mapHoursError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.BusinessHours{}, err
	}
	if affected == 0 {
		return domain.BusinessHours{}, store.ErrNotFound
	}
	return m, nil
}

func (r *CalendarRepo) GetBlock(ctx context.Context, id uuid.UUID) (domain.Block, error) {
	var block domain.Block
	err := r.db.NewSelect().
		Model(&block).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Block{}, store.ErrNotFound
		}
		return domain.Block{}, err
	}
	return block, nil
}

func (r *CalendarRepo) ListBlocksInRange(ctx context.Context, businessID int64, dateFrom, dateTo time.Time) ([]domain.Block, error) {
	var rows []domain.Block
	err := r.db.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		Where("active").
		Where("date_start <= ?", domain.DateOf(dateTo)).
		Where("date_end >= ?", domain.DateOf(dateFrom)).
		OrderExpr("date_start ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CalendarRepo) CreateBlock(ctx context.Context, block domain.Block) (domain.Block, error) {
	m := block
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Block{}, err
	}
	return m, nil
}

func (r *CalendarRepo) UpdateBlock(ctx context.Context, block domain.Block) (domain.Block, error) {
	m := block
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("date_start", "date_end", "time_start", "time_end", "reason", "kind", "active").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Block{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Block{}, err
	}
	if affected == 0 {
		return domain.Block{}, store.ErrNotFound
	}
	return m, nil
}

// mapHoursError reports the business_hours_active_weekday unique index as
// a conflict: the business already has an active row for that weekday.
func mapHoursError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrConflict
	}
	return err
}
