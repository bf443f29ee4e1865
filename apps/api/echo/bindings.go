package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/syllabus"
)

var orderingParam = "ordering"

// Ordering binds the `ordering` query param, eg. `?ordering=name,-createdAt`.
// Only the fields of the whitelist are accepted; they map to DB columns.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context, columns map[string]string) error {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		column, ok := columns[field]
		if !ok {
			return core.NewValidationError(nil, core.FieldError{Field: orderingParam, Error: "cannot order by " + strconv.Quote(field)})
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: column, Ascending: !descending})
	}
	return nil
}

// intParam parses the path param name. Malformed addresses are reported as not found.
func intParam(ctx echo.Context, name string) (int, error) {
	n, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, syllabus.ErrNotFound
	}
	return n, nil
}

func bindTopicAddress(ctx echo.Context) (weekNumber, topicIndex int, err error) {
	if weekNumber, err = intParam(ctx, "weekNumber"); err != nil {
		return 0, 0, err
	}
	if topicIndex, err = intParam(ctx, "topicIndex"); err != nil {
		return 0, 0, err
	}
	return weekNumber, topicIndex, nil
}

func bindRef(ctx echo.Context) (syllabus.Ref, error) {
	var ref syllabus.Ref
	var err error
	if ref.WeekNumber, ref.TopicIndex, err = bindTopicAddress(ctx); err != nil {
		return ref, err
	}
	if ref.SubtopicIndex, err = intParam(ctx, "subtopicIndex"); err != nil {
		return ref, err
	}
	return ref, nil
}
