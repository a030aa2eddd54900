package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

var runRowColumns = []string{
	"run_id", "row_index", "internal_id", "site_id", "irrigation",
	"percent_coverage", "percent_coverage_hc",
	"poly_avg_size", "poly_avg_size_hc", "poly_min_size", "poly_min_size_hc",
	"category_hc", "cells",
}

// copyRows streams rows into merge.run_rows with COPY on conn. Survey files
// run to tens of thousands of rows, which row-by-row INSERTs handle poorly.
// When conn has an open transaction the rows join it.
func copyRows(ctx context.Context, conn *sql.Conn, rows []RunRow) error {
	if len(rows) == 0 {
		return nil
	}

	src := make([][]any, 0, len(rows))
	for _, r := range rows {
		src = append(src, []any{
			r.RunID, r.RowIndex, r.InternalID, r.SiteID, r.Irrigation,
			r.PercentCoverage, r.PercentCoverageHC,
			r.PolyAvgSize, r.PolyAvgSizeHC, r.PolyMinSize, r.PolyMinSizeHC,
			[]float64(r.CategoryHC), []string(r.Cells),
		})
	}

	return conn.Raw(func(driverConn any) error {
		direct, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected postgres driver %T", driverConn)
		}
		n, err := direct.Conn().CopyFrom(
			ctx,
			pgx.Identifier{Schema, "run_rows"},
			runRowColumns,
			pgx.CopyFromRows(src),
		)
		if err != nil {
			return fmt.Errorf("copy run rows: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy run rows: wrote %d of %d", n, len(rows))
		}
		return nil
	})
}
