package pushsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"golang.org/x/sync/errgroup"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/notification"
)

const (
	sendPath         = "/--/api/v2/push/send"
	maxChunkSize     = 100 // Expo rejects bigger batches
	errRequestFailed = "RequestFailed"
)

type (
	expoTicket struct {
		Status  string `json:"status"`
		ID      string `json:"id"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	}

	expoError struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	expoResponse struct {
		Data   []expoTicket `json:"data"`
		Errors []expoError  `json:"errors"`
	}
)

// ExpoPusher sends push notifications through the Expo push service.
type ExpoPusher struct {
	client      *rest.Client
	baseURL     string
	accessToken string
	chunkSize   int
	concurrency int
	logger      core.Logger
}

var _ notification.Pusher = (*ExpoPusher)(nil)

func NewExpoPusher(conf core.PushConfig, logger core.Logger) *ExpoPusher {
	chunkSize := conf.ChunkSize
	if chunkSize <= 0 || chunkSize > maxChunkSize {
		chunkSize = maxChunkSize
	}
	concurrency := conf.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ExpoPusher{
		client:      &rest.Client{HTTPClient: &http.Client{Timeout: conf.Timeout}},
		baseURL:     strings.TrimRight(conf.BaseURL, "/"),
		accessToken: conf.AccessToken,
		chunkSize:   chunkSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Push sends msgs in chunks, concurrently. A failed chunk marks its tickets as errors
// instead of failing the whole batch.
func (p *ExpoPusher) Push(ctx context.Context, msgs []notification.PushMessage) ([]notification.PushTicket, error) {
	tickets := make([]notification.PushTicket, len(msgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for start := 0; start < len(msgs); start += p.chunkSize {
		start := start
		end := start + p.chunkSize
		if end > len(msgs) {
			end = len(msgs)
		}
		g.Go(func() error {
			chunk, err := p.send(gctx, msgs[start:end])
			if err != nil {
				p.logger.Error(fmt.Sprintf("pushing notifications %d-%d: %v", start, end, err), err)
				for i := range chunk {
					chunk[i] = notification.PushTicket{Status: notification.StatusError, Message: err.Error(), Error: errRequestFailed}
				}
			}
			copy(tickets[start:end], chunk)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

// send always returns len(msgs) tickets.
func (p *ExpoPusher) send(ctx context.Context, msgs []notification.PushMessage) ([]notification.PushTicket, error) {
	tickets := make([]notification.PushTicket, len(msgs))

	body, err := json.Marshal(msgs)
	if err != nil {
		return tickets, errors.Wrap(err, "encoding push messages")
	}
	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	if p.accessToken != "" {
		headers["Authorization"] = "Bearer " + p.accessToken
	}
	req := rest.Request{
		Method:  rest.Post,
		BaseURL: p.baseURL + sendPath,
		Headers: headers,
		Body:    body,
	}

	res, err := p.client.SendWithContext(ctx, req)
	if err != nil {
		return tickets, errors.Wrap(err, "calling push service")
	}

	var parsed expoResponse
	if err = json.Unmarshal([]byte(res.Body), &parsed); err != nil {
		return tickets, errors.Wrapf(err, "decoding push service response (status %d)", res.StatusCode)
	}
	if res.StatusCode >= http.StatusBadRequest || len(parsed.Errors) > 0 {
		msg := fmt.Sprintf("push service status %d", res.StatusCode)
		if len(parsed.Errors) > 0 {
			msg += ": " + parsed.Errors[0].Code + " " + parsed.Errors[0].Message
		}
		return tickets, errors.New(msg)
	}
	if len(parsed.Data) != len(msgs) {
		return tickets, errors.Errorf("push service returned %d tickets for %d messages", len(parsed.Data), len(msgs))
	}

	for i, t := range parsed.Data {
		tickets[i] = notification.PushTicket{
			Status:  t.Status,
			ID:      t.ID,
			Message: t.Message,
			Error:   t.Details.Error,
		}
	}
	return tickets, nil
}
