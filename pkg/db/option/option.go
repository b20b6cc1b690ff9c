// Package option carries composable query modifiers applied on top of
// a GORM statement by repositories.
package option

import (
	"time"

	"github.com/smallbiznis/licenta/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type paginationOption struct {
	page      pagination.Pagination
	keyColumn string
}

// ApplyPagination translates a cursor page request into a keyset
// condition on (created_at, keyColumn) plus a limit of page size + 1,
// so the caller can detect whether more rows remain. keyColumn is the
// tie-breaker column, "id" for surrogate keys, "pesel"/"krs" for the
// client tables.
func ApplyPagination(page pagination.Pagination, keyColumn string) QueryOption {
	if keyColumn == "" {
		keyColumn = "id"
	}
	return paginationOption{page: page, keyColumn: keyColumn}
}

func (o paginationOption) Apply(stmt *gorm.DB) *gorm.DB {
	limit := o.page.PageSize
	if limit <= 0 {
		limit = 10
	}

	if o.page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(o.page.PageToken)
		if err == nil && cursor != nil {
			// Bind as time.Time so the comparison works the same on
			// every dialect; a malformed token just yields page one.
			createdAt, perr := time.Parse(time.RFC3339, cursor.CreatedAt)
			if perr == nil {
				stmt = stmt.Where(
					"(created_at < ? OR (created_at = ? AND "+o.keyColumn+" < ?))",
					createdAt,
					createdAt,
					cursor.ID,
				)
			}
		}
	}

	return stmt.Limit(limit + 1)
}
