package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/njitshpe/shpe-app-sub007/core/checkin"
)

type checkInApi struct {
	svc      *checkin.Service
	validate *validator.Validate
}

func registerCheckInAPI(fg, v1 *echo.Group, svc *checkin.Service, validate *validator.Validate) {
	api := checkInApi{svc: svc, validate: validate}

	fg.POST("/validate-check-in", api.validateCheckIn)

	eg := v1.Group("/events")
	eg.POST("", api.createEvent, officerMiddleware)
	eg.GET("/:id", api.retrieveEvent)
	eg.POST("/:id/check-in-token", api.issueToken, officerMiddleware)
}

// Handlers

func (api *checkInApi) validateCheckIn(ctx echo.Context) error {
	memberID, err := getContextMemberID(ctx)
	if err != nil {
		return err
	}

	var data CheckInRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckInRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	res, err := api.svc.ValidateCheckIn(ctx.Request().Context(), memberID, data.Token)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *checkInApi) createEvent(ctx echo.Context) error {
	var data checkin.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	ev, err := api.svc.CreateEvent(ctx.Request().Context(), data, api.validate)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *checkInApi) retrieveEvent(ctx echo.Context) error {
	ev, err := api.svc.GetEvent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *checkInApi) issueToken(ctx echo.Context) error {
	token, err := api.svc.IssueToken(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, token)
}
