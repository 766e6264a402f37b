package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/classpulse/notification-engine/pkg/logger"
)

const DefaultSendTimeout = 5 * time.Second

type Config struct {
	URL       string
	Timeout   time.Duration // per-call bound; an expired call is a retryable failure
	MaxConns  int
	UserAgent string
}

// Client delivers through the notification provider's HTTP API. Implements
// Sender.
type Client struct {
	config Config
	http   *fasthttp.Client
}

func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("provider url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultSendTimeout
	}
	if config.MaxConns <= 0 {
		config.MaxConns = 512
	}
	return &Client{
		config: config,
		http: &fasthttp.Client{
			MaxConnsPerHost: config.MaxConns,
			ReadTimeout:     config.Timeout,
			WriteTimeout:    config.Timeout,
		},
	}, nil
}

type providerResponse struct {
	Status      string     `json:"status"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	Response    string     `json:"provider_response,omitempty"`
	Events      []string   `json:"events,omitempty"`
	ErrorCode   string     `json:"error_code,omitempty"`
	ErrorMsg    string     `json:"error_message,omitempty"`
}

func (c *Client) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(c.config.URL + "/api/v1/send")
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	if c.config.UserAgent != "" {
		httpReq.Header.SetUserAgent(c.config.UserAgent)
	}
	httpReq.SetBody(body)

	// honor the tighter of our per-call bound and the caller's deadline
	timeout := c.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := c.http.DoTimeout(httpReq, httpResp, timeout); err != nil {
		logger.Warn("provider call failed", "channel", req.Channel, "error", err)
		return nil, &SendError{Code: "PROVIDER_UNREACHABLE", Message: err.Error()}
	}

	if httpResp.StatusCode() >= 500 {
		return nil, &SendError{
			Code:    "PROVIDER_ERROR",
			Message: fmt.Sprintf("provider returned status %d", httpResp.StatusCode()),
		}
	}

	var pr providerResponse
	if err := json.Unmarshal(httpResp.Body(), &pr); err != nil {
		return nil, &SendError{Code: "BAD_PROVIDER_RESPONSE", Message: err.Error()}
	}

	if httpResp.StatusCode() >= 400 || pr.ErrorCode != "" {
		msg := pr.ErrorMsg
		if msg == "" {
			msg = fmt.Sprintf("provider returned status %d", httpResp.StatusCode())
		}
		return nil, &SendError{Code: pr.ErrorCode, Message: msg}
	}

	resp := &SendResponse{
		Status:           pr.Status,
		ProviderResponse: pr.Response,
		Events:           pr.Events,
	}
	if pr.DeliveredAt != nil {
		resp.DeliveredAt = *pr.DeliveredAt
	} else {
		resp.DeliveredAt = time.Now()
	}
	return resp, nil
}
