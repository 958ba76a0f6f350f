// Package repository implements the data access layer for the application.
//
// Every mutating method touches a single row or a single filtered set and
// commits on its own; callers compose them into cascades.
package repository

import (
	"context"
	"errors"
	"strings"

	"scribe/internal/database"
	"scribe/internal/models"
	"scribe/internal/observability"

	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}

// wrapErr maps storage errors onto AppError codes.
func wrapErr(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	if isDuplicateKey(err) {
		return models.NewConflictError(resource + " already exists")
	}
	return models.NewInternalError(err)
}

// increment applies col = col + delta for each non-zero delta on one row.
// Decrements stop at zero. It reports whether the row existed.
func increment(ctx context.Context, db *gorm.DB, model interface{}, id uint, deltas map[string]int) (bool, error) {
	updates := make(map[string]interface{}, len(deltas))
	for col, d := range deltas {
		if d == 0 {
			continue
		}
		if d > 0 {
			updates[col] = gorm.Expr(col+" + ?", d)
		} else {
			updates[col] = gorm.Expr("CASE WHEN "+col+" >= ? THEN "+col+" - ? ELSE 0 END", -d, -d)
		}
		observability.CounterAdjustments.WithLabelValues(col).Inc()
	}
	if len(updates) == 0 {
		return true, nil
	}
	res := db.WithContext(ctx).Model(model).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// deleteByID removes one row and reports whether it was present.
func deleteByID(ctx context.Context, db *gorm.DB, model interface{}, id uint) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func deleteWhere(ctx context.Context, db *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	res := db.WithContext(ctx).Where(query, args...).Delete(model)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
