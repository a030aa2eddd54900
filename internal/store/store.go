package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smallholder-irrigation/survey-merge/internal/db"
	"github.com/smallholder-irrigation/survey-merge/internal/merge"
)

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// Migrate creates the schema and tables.
func Migrate(gdb *gorm.DB) error {
	if err := db.EnsureSchema(gdb, Schema); err != nil {
		return fmt.Errorf("create %s schema: %w", Schema, err)
	}
	if err := gdb.AutoMigrate(&Run{}, &RunRow{}, &RunIssue{}); err != nil {
		return fmt.Errorf("auto-migrate %s tables: %w", Schema, err)
	}
	return nil
}

// Save stores res, replacing any earlier run with the same id. The run, its
// issues and its rows are written in one transaction on a single connection,
// so readers never see a run without its rows.
func Save(ctx context.Context, gdb *gorm.DB, res *merge.Result) error {
	start := time.Now()
	run := NewRun(res)
	issues := NewRunIssues(res)
	rows := NewRunRows(res)

	err := gdb.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		sqlConn, ok := conn.Statement.ConnPool.(*sql.Conn)
		if !ok {
			return fmt.Errorf("unexpected connection pool %T", conn.Statement.ConnPool)
		}
		return conn.Transaction(func(tx *gorm.DB) error {
			if err := deleteRun(tx, run.ID); err != nil {
				return err
			}
			if err := tx.Create(&run).Error; err != nil {
				return fmt.Errorf("insert run: %w", err)
			}
			if len(issues) > 0 {
				if err := tx.CreateInBatches(&issues, 500).Error; err != nil {
					return fmt.Errorf("insert run issues: %w", err)
				}
			}
			return copyRows(ctx, sqlConn, rows)
		})
	})
	if err != nil {
		return err
	}

	log.Printf("[store] saved run %s: %d rows, %d issues in %dms",
		run.ID, run.RowCount, run.IssueCount, time.Since(start).Milliseconds())
	return nil
}

func deleteRun(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("run_id = ?", id).Delete(&RunRow{}).Error; err != nil {
		return fmt.Errorf("delete run rows: %w", err)
	}
	if err := tx.Where("run_id = ?", id).Delete(&RunIssue{}).Error; err != nil {
		return fmt.Errorf("delete run issues: %w", err)
	}
	if err := tx.Where("id = ?", id).Delete(&Run{}).Error; err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// ListRuns returns the newest runs first.
func ListRuns(ctx context.Context, gdb *gorm.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []Run
	err := gdb.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// GetRun loads one run summary.
func GetRun(ctx context.Context, gdb *gorm.DB, id uuid.UUID) (*Run, error) {
	var run Run
	err := gdb.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Issues returns the issues of a run in report order.
func Issues(ctx context.Context, gdb *gorm.DB, id uuid.UUID) ([]RunIssue, error) {
	var issues []RunIssue
	err := gdb.WithContext(ctx).Where("run_id = ?", id).Order("seq").Find(&issues).Error
	return issues, err
}

// Rows returns the merged rows of a run in survey order.
func Rows(ctx context.Context, gdb *gorm.DB, id uuid.UUID) ([]RunRow, error) {
	var rows []RunRow
	err := gdb.WithContext(ctx).Where("run_id = ?", id).Order("row_index").Find(&rows).Error
	return rows, err
}
