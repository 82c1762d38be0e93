package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/njitshpe/shpe-app-sub007/core/member"
)

type memberApi struct {
	svc      *member.Service
	validate *validator.Validate
}

func registerMemberAPI(v1 *echo.Group, svc *member.Service, validate *validator.Validate) {
	api := memberApi{svc: svc, validate: validate}

	v1.GET("/me", api.profile)
	v1.PUT("/me/push-token", api.registerPushToken)
	v1.GET("/leaderboard", api.leaderboard)
}

// Handlers

func (api *memberApi) profile(ctx echo.Context) error {
	memberID, err := getContextMemberID(ctx)
	if err != nil {
		return err
	}
	prof, err := api.svc.Profile(ctx.Request().Context(), memberID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *memberApi) registerPushToken(ctx echo.Context) error {
	memberID, err := getContextMemberID(ctx)
	if err != nil {
		return err
	}
	var data member.PushTokenUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PushTokenUpdate")
	}
	mbr, err := api.svc.RegisterPushToken(ctx.Request().Context(), memberID, data, api.validate)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, PushTokenResponse{
		Registered:           mbr.PushToken.Valid,
		NotificationsEnabled: mbr.NotificationsEnabled,
	})
}

func (api *memberApi) leaderboard(ctx echo.Context) error {
	var page Pagination
	page.Bind(ctx)

	entries, err := api.svc.Leaderboard(ctx.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}

type PushTokenResponse struct {
	Registered           bool `json:"registered"`
	NotificationsEnabled bool `json:"notifications_enabled"`
}
