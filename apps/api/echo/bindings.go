package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	limitParam  = "limit"
	offsetParam = "offset"
)

// Pagination is bound from the limit & offset query params. Invalid values are ignored.
type Pagination struct {
	Limit  int
	Offset int
}

func (p *Pagination) Bind(ctx echo.Context) {
	if v, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil {
		p.Limit = v
	}
	if v, err := strconv.Atoi(ctx.QueryParam(offsetParam)); err == nil {
		p.Offset = v
	}
}

type CheckInRequest struct {
	Token string `json:"token" validate:"required,notblank"`
}
