package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/njitshpe/shpe-app-sub007/core/notification"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(fg, v1 *echo.Group, svc *notification.Service) {
	api := notificationApi{svc: svc}

	fg.POST("/push-notifications", api.send, officerMiddleware)
	v1.GET("/me/notifications", api.feed)
}

// Handlers

func (api *notificationApi) send(ctx echo.Context) error {
	var data notification.Request
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to notification.Request")
	}
	report, err := api.svc.Send(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *notificationApi) feed(ctx echo.Context) error {
	memberID, err := getContextMemberID(ctx)
	if err != nil {
		return err
	}
	var page Pagination
	page.Bind(ctx)

	ns, err := api.svc.Feed(ctx.Request().Context(), memberID, page.Limit)
	if err != nil {
		return err
	}
	resp := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		resp = append(resp, NotificationResponse{Notification: n, Data: n.DataMap()})
	}
	return ctx.JSON(http.StatusOK, resp)
}

type NotificationResponse struct {
	notification.Notification
	Data map[string]string `json:"data"`
}
