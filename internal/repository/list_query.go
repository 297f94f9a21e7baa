package repository

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// FieldMapping maps API field names to database column names for security.
type FieldMapping map[string]string

// SortDirection represents ascending or descending sort order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortField represents a field to sort by with direction.
type SortField struct {
	Field     string
	Direction SortDirection
}

// FilterOperator represents comparison operators for filtering.
type FilterOperator string

const (
	FilterEquals      FilterOperator = "eq"
	FilterNotEquals   FilterOperator = "neq"
	FilterGreaterOrEq FilterOperator = "gte"
	FilterLessOrEq    FilterOperator = "lte"
	FilterIn          FilterOperator = "in"
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string
	Operator FilterOperator
	Value    any
}

// ListQuery contains parameters for listing entities.
type ListQuery struct {
	Limit   int
	Offset  int
	Sort    []SortField
	Filters []FilterCondition
	Search  string
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Data   []T
	Total  int64
	Limit  int
	Offset int
}

// NewListQuery creates a ListQuery with sensible defaults.
func NewListQuery() *ListQuery {
	return &ListQuery{Limit: 20}
}

// listClauses holds the SQL fragments built from a ListQuery.
type listClauses struct {
	where string
	order string
	args  []any
}

// buildListClauses turns query into WHERE and ORDER BY fragments. Field names
// are resolved through mapping; unknown fields are ignored so callers can
// never inject column names.
func buildListClauses(query *ListQuery, mapping FieldMapping, searchFields []string, defaultSort string) (listClauses, error) {
	var conditions []string
	var args []any

	if query.Search != "" && len(searchFields) > 0 {
		var ors []string
		pattern := "%" + query.Search + "%"
		for _, f := range searchFields {
			ors = append(ors, f+" LIKE ?")
			args = append(args, pattern)
		}
		conditions = append(conditions, "("+strings.Join(ors, " OR ")+")")
	}

	for _, f := range query.Filters {
		column, ok := mapping[f.Field]
		if !ok {
			continue
		}
		switch f.Operator {
		case FilterEquals:
			conditions = append(conditions, column+" = ?")
		case FilterNotEquals:
			conditions = append(conditions, column+" != ?")
		case FilterGreaterOrEq:
			conditions = append(conditions, column+" >= ?")
		case FilterLessOrEq:
			conditions = append(conditions, column+" <= ?")
		case FilterIn:
			conditions = append(conditions, column+" IN (?)")
		default:
			continue
		}
		args = append(args, f.Value)
	}

	var where string
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
		// Expand IN (?) placeholders for slice arguments
		expanded, expandedArgs, err := sqlx.In(where, args...)
		if err != nil {
			return listClauses{}, fmt.Errorf("failed to expand list filters: %w", err)
		}
		where, args = expanded, expandedArgs
	}

	var orders []string
	for _, s := range query.Sort {
		column, ok := mapping[s.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if s.Direction == SortDesc {
			dir = "DESC"
		}
		orders = append(orders, column+" "+dir)
	}
	order := defaultSort
	if len(orders) > 0 {
		order = strings.Join(orders, ", ")
	}
	if order != "" {
		order = " ORDER BY " + order
	}

	return listClauses{where: where, order: order, args: args}, nil
}
