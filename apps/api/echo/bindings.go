package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/uwezocare/uwezo/core"
)

var orderingParam = "ordering"

// orderableFields lists the columns a client may sort by. Anything else in
// the ordering param is dropped before it reaches a repository query.
var orderableFields = map[string]bool{
	"title":           true,
	"status":          true,
	"due_date":        true,
	"start_date":      true,
	"completion_date": true,
	"created_at":      true,
	"updated_at":      true,
}

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !orderableFields[field] {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
