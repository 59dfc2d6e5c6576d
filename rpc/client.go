package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls a remote topic service.
type Client struct {
	post *connect.Client[wrapperspb.StringValue, emptypb.Empty]
	get  *connect.Client[emptypb.Empty, wrapperspb.StringValue]

	maxRetries    int
	retryInterval time.Duration
}

// NewClient creates a Client for the service at baseURL. A nil httpClient
// uses one with cfg.Timeout.
func NewClient(httpClient connect.HTTPClient, baseURL string, cfg *Config, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		post:          connect.NewClient[wrapperspb.StringValue, emptypb.Empty](httpClient, baseURL+PostMessageProcedure, opts...),
		get:           connect.NewClient[emptypb.Empty, wrapperspb.StringValue](httpClient, baseURL+GetUpdateProcedure, opts...),
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
	}
}

// PostMessage posts msg to the remote topic. Unavailable responses are
// retried with exponential backoff up to the configured retry count; any
// other failure is returned immediately.
func (c *Client) PostMessage(ctx context.Context, msg string) error {
	operation := func() error {
		_, err := c.post.CallUnary(ctx, connect.NewRequest(wrapperspb.String(msg)))
		if err == nil {
			return nil
		}
		if connect.CodeOf(err) == connect.CodeUnavailable {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(operation, c.newBackOff(ctx))
}

// GetUpdate pulls the current message from the remote topic. The bool is
// false when nothing has been posted yet.
func (c *Client) GetUpdate(ctx context.Context) (string, bool, error) {
	resp, err := c.get.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		var connectErr *connect.Error
		if errors.As(err, &connectErr) && connectErr.Code() == connect.CodeNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return resp.Msg.GetValue(), true, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if c.retryInterval > 0 {
		exp.InitialInterval = c.retryInterval
	}

	retries := c.maxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}
