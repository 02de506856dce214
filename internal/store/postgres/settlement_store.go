package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/logiflow/dispatch-backend/internal/store"
	"github.com/logiflow/dispatch-backend/types"
)

var (
	_ store.SettlementStore = (*SettlementStore)(nil)
	_ store.AuditStore      = (*SettlementStore)(nil)
)

// SettlementStore persists settlements, their items and the audit trail.
// Every write runs in a single transaction.
type SettlementStore struct {
	db DBTX
}

func NewSettlementStore(db DBTX) *SettlementStore {
	return &SettlementStore{db: db}
}

const settlementColumns = `id, driver_id, year_month, source, status, total_trips,
		total_base_fare, total_deductions, total_additions, final_amount, notes,
		created_by, confirmed_by, confirmed_at, paid_at, created_at, updated_at`

func scanSettlement(row interface{ Scan(dest ...interface{}) error }, extra ...interface{}) (*types.Settlement, error) {
	s := &types.Settlement{}
	dest := []interface{}{
		&s.ID,
		&s.DriverID,
		&s.YearMonth,
		&s.Source,
		&s.Status,
		&s.TotalTrips,
		&s.TotalBaseFare,
		&s.TotalDeductions,
		&s.TotalAdditions,
		&s.FinalAmount,
		&s.Notes,
		&s.CreatedBy,
		&s.ConfirmedBy,
		&s.ConfirmedAt,
		&s.PaidAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSettlement writes the settlement, its items and the audit row atomically.
func (s *SettlementStore) CreateSettlement(ctx context.Context, st *types.Settlement, audit types.AuditLogEntry) (*types.Settlement, error) {
	var created *types.Settlement
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO settlements (driver_id, year_month, source, status, total_trips,
			                         total_base_fare, total_deductions, total_additions,
			                         final_amount, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING ` + settlementColumns

		row := tx.QueryRow(ctx, query,
			st.DriverID,
			st.YearMonth,
			st.Source,
			types.SettlementStatusDraft,
			st.TotalTrips,
			st.TotalBaseFare,
			st.TotalDeductions,
			st.TotalAdditions,
			st.FinalAmount,
			st.Notes,
			st.CreatedBy,
		)
		var err error
		created, err = scanSettlement(row)
		if err != nil {
			return mapError(err)
		}

		if err := insertItems(ctx, tx, created.ID, st.Items); err != nil {
			return err
		}
		created.Items, err = listItems(ctx, tx, created.ID)
		if err != nil {
			return err
		}

		audit.EntityType = types.AuditEntitySettlement
		audit.EntityID = created.ID
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetSettlement loads a settlement with its items.
func (s *SettlementStore) GetSettlement(ctx context.Context, id string) (*types.Settlement, error) {
	return getSettlement(ctx, s.db, `id = $1`, id)
}

// FindSettlement loads the settlement of a driver for a month.
func (s *SettlementStore) FindSettlement(ctx context.Context, driverID, yearMonth string) (*types.Settlement, error) {
	return getSettlement(ctx, s.db, `driver_id = $1 AND year_month = $2`, driverID, yearMonth)
}

func getSettlement(ctx context.Context, q querier, where string, args ...interface{}) (*types.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE ` + where
	st, err := scanSettlement(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	st.Items, err = listItems(ctx, q, st.ID)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListSettlements returns one page of settlements without items, plus the
// total number of matching rows.
func (s *SettlementStore) ListSettlements(ctx context.Context, filter types.SettlementFilter) ([]types.Settlement, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.DriverID != "" {
		args = append(args, filter.DriverID)
		conds = append(conds, "driver_id = $"+strconv.Itoa(len(args)))
	}
	if filter.YearMonth != "" {
		args = append(args, filter.YearMonth)
		conds = append(conds, "year_month = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + settlementColumns + `, COUNT(*) OVER() AS total FROM settlements`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY year_month DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		settlements []types.Settlement
		total       int
	)
	for rows.Next() {
		st, err := scanSettlement(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		settlements = append(settlements, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

// ApplyTransition runs the guarded state change and its audit row as one unit.
func (s *SettlementStore) ApplyTransition(ctx context.Context, t types.SettlementTransition) (*types.Settlement, error) {
	var result *types.Settlement
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		var current types.SettlementStatus
		err := tx.QueryRow(ctx, `SELECT status FROM settlements WHERE id = $1 FOR UPDATE`, t.SettlementID).Scan(&current)
		if err != nil {
			return mapError(err)
		}
		if !statusIn(current, t.ExpectedStatus) {
			return &store.StatusMismatchError{Current: string(current)}
		}

		audit := t.Audit
		audit.EntityType = types.AuditEntitySettlement
		audit.EntityID = t.SettlementID
		if audit.PriorStatus == "" {
			audit.PriorStatus = string(current)
		}

		if t.Delete {
			if _, err := tx.Exec(ctx, `DELETE FROM settlements WHERE id = $1`, t.SettlementID); err != nil {
				return err
			}
			return insertAudit(ctx, tx, audit)
		}

		if err := updateSettlement(ctx, tx, t.SettlementID, t.Patch); err != nil {
			return err
		}
		if t.Patch.Result != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM settlement_items WHERE settlement_id = $1`, t.SettlementID); err != nil {
				return err
			}
			if err := insertItems(ctx, tx, t.SettlementID, t.Patch.Result.Items); err != nil {
				return err
			}
		}
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}

		result, err = getSettlement(ctx, tx, `id = $1`, t.SettlementID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func updateSettlement(ctx context.Context, tx pgx.Tx, id string, p types.SettlementPatch) error {
	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.Notes != nil {
		set("notes", *p.Notes)
	}
	if p.ClearConfirmation {
		sets = append(sets, "confirmed_by = NULL", "confirmed_at = NULL")
	} else {
		if p.ConfirmedBy != nil {
			set("confirmed_by", *p.ConfirmedBy)
		}
		if p.ConfirmedAt != nil {
			set("confirmed_at", *p.ConfirmedAt)
		}
	}
	if p.PaidAt != nil {
		set("paid_at", *p.PaidAt)
	}
	if r := p.Result; r != nil {
		set("total_trips", r.TotalTrips)
		set("total_base_fare", r.TotalBaseFare)
		set("total_deductions", r.TotalDeductions)
		set("total_additions", r.TotalAdditions)
		set("final_amount", r.FinalAmount)
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := "UPDATE settlements SET " + strings.Join(sets, ", ") + " WHERE id = $" + strconv.Itoa(len(args))
	_, err := tx.Exec(ctx, query, args...)
	return err
}

func insertItems(ctx context.Context, tx pgx.Tx, settlementID string, items []types.SettlementItem) error {
	query := `
		INSERT INTO settlement_items (settlement_id, position, item_type, description,
		                              amount, item_date, trip_id, charter_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i, item := range items {
		_, err := tx.Exec(ctx, query,
			settlementID,
			i,
			item.Type,
			item.Description,
			item.Amount,
			item.Date,
			item.TripID,
			item.CharterID,
		)
		if err != nil {
			return fmt.Errorf("insert settlement item %d: %w", i, err)
		}
	}
	return nil
}

func listItems(ctx context.Context, q querier, settlementID string) ([]types.SettlementItem, error) {
	query := `
		SELECT id, settlement_id, item_type, description, amount, item_date, trip_id, charter_id
		FROM settlement_items
		WHERE settlement_id = $1
		ORDER BY position ASC`

	rows, err := q.Query(ctx, query, settlementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []types.SettlementItem{}
	for rows.Next() {
		var item types.SettlementItem
		err := rows.Scan(
			&item.ID,
			&item.SettlementID,
			&item.Type,
			&item.Description,
			&item.Amount,
			&item.Date,
			&item.TripID,
			&item.CharterID,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func insertAudit(ctx context.Context, q querier, e types.AuditLogEntry) error {
	if e.ActorID == "" {
		return errors.New("audit entry requires an actor")
	}
	query := `
		INSERT INTO audit_logs (actor_id, entity_type, entity_id, action, prior_status,
		                        new_status, reason, is_emergency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := q.Exec(ctx, query,
		e.ActorID,
		e.EntityType,
		e.EntityID,
		e.Action,
		e.PriorStatus,
		e.NewStatus,
		e.Reason,
		e.IsEmergency,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns the audit trail of an entity, oldest first.
func (s *SettlementStore) ListAuditLogs(ctx context.Context, entityType, entityID string) ([]types.AuditLogEntry, error) {
	query := `
		SELECT id, actor_id, entity_type, entity_id, action, prior_status,
		       new_status, reason, is_emergency, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC`

	rows, err := s.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []types.AuditLogEntry{}
	for rows.Next() {
		var e types.AuditLogEntry
		err := rows.Scan(
			&e.ID,
			&e.ActorID,
			&e.EntityType,
			&e.EntityID,
			&e.Action,
			&e.PriorStatus,
			&e.NewStatus,
			&e.Reason,
			&e.IsEmergency,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func statusIn(s types.SettlementStatus, allowed []types.SettlementStatus) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
