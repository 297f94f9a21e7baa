package utils

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/halyard-group/halyard-web/internal/repository"
)

// ParseListQuery extracts pagination, sorting, filtering and search from the request.
//
//	?limit=20&offset=40
//	?sort=-created_at,name  or  ?sort=created_at:desc
//	?filter[topic]=academy  ?filter[status][in]=failed,pending  ?filter[created_at][gte]=2026-01-01
//	?search=acme
//
// Field names are resolved against a repository's mapping later, so unknown
// fields pass through here and are dropped there.
func ParseListQuery(c *gin.Context) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Limit, query.Offset = GetPagination(c)
	query.Sort = parseSorting(c.Query("sort"))
	query.Filters = parseFilters(c)
	query.Search = strings.TrimSpace(c.Query("search"))
	return query
}

// parseSorting handles both sorting formats:
// - created_at:desc,name:asc
// - -created_at,+name (or just -created_at,name)
func parseSorting(sortParam string) []repository.SortField {
	if sortParam == "" {
		return nil
	}

	parts := strings.Split(sortParam, ",")
	sortFields := make([]repository.SortField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field, direction := part, repository.SortAsc
		switch {
		case strings.HasPrefix(part, "-"):
			field, direction = part[1:], repository.SortDesc
		case strings.HasPrefix(part, "+"):
			field = part[1:]
		case strings.Contains(part, ":"):
			before, after, _ := strings.Cut(part, ":")
			field = strings.TrimSpace(before)
			if strings.EqualFold(strings.TrimSpace(after), "desc") {
				direction = repository.SortDesc
			}
		}

		if field != "" {
			sortFields = append(sortFields, repository.SortField{Field: field, Direction: direction})
		}
	}

	return sortFields
}

// filterOperators maps query-string operator names to repository operators.
var filterOperators = map[string]repository.FilterOperator{
	"":    repository.FilterEquals,
	"eq":  repository.FilterEquals,
	"ne":  repository.FilterNotEquals,
	"neq": repository.FilterNotEquals,
	"gte": repository.FilterGreaterOrEq,
	"lte": repository.FilterLessOrEq,
	"in":  repository.FilterIn,
}

// parseFilters handles filtering with nested parameters
// ?filter[field]=value
// ?filter[created_at][gte]=2026-01-01
// ?filter[status][in]=failed,pending
func parseFilters(c *gin.Context) []repository.FilterCondition {
	var filters []repository.FilterCondition

	for key, values := range c.Request.URL.Query() {
		if !strings.HasPrefix(key, "filter[") || len(values) == 0 {
			continue
		}

		field, operator := parseFilterKey(key)
		if field == "" {
			continue
		}
		op, ok := filterOperators[operator]
		if !ok {
			continue
		}

		var value any = values[0]
		if op == repository.FilterIn {
			parts := strings.Split(values[0], ",")
			in := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					in = append(in, p)
				}
			}
			if len(in) == 0 {
				continue
			}
			value = in
		}

		filters = append(filters, repository.FilterCondition{Field: field, Operator: op, Value: value})
	}

	return filters
}

// parseFilterKey extracts field name and operator from filter key
// Examples:
// filter[name] -> field: "name", operator: ""
// filter[created_at][gte] -> field: "created_at", operator: "gte"
func parseFilterKey(key string) (field, operator string) {
	content, found := strings.CutPrefix(key, "filter[")
	if !found {
		return "", ""
	}
	content, found = strings.CutSuffix(content, "]")
	if !found {
		return "", ""
	}

	if before, after, found := strings.Cut(content, "]["); found {
		return before, after
	}
	return content, ""
}
