// Package sms delivers transactional notifications to the operator phone
// through the SMS.ir gateway. Every dispatch is a single stateless attempt:
// no retry, no backoff, no queue.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"barbari/pkg/domain"
)

// Strategy selects which gateway endpoint carries the notification.
type Strategy string

const (
	// StrategyVerify sends through the templated verification endpoint
	// with named NAME/PHONE/REQUEST parameters.
	StrategyVerify Strategy = "verify"
	// StrategyBulk sends a fully composed message body through the bulk
	// endpoint with a sender line number.
	StrategyBulk Strategy = "bulk"
)

const (
	defaultBaseURL    = "https://api.sms.ir"
	defaultLineNumber = "30007732"
	defaultTimeout    = 10 * time.Second
)

// Config carries the gateway settings. It is built once at process start and
// injected so tests can fabricate configuration without touching the
// environment.
type Config struct {
	APIKey     string
	AdminPhone string
	TemplateID int64  // required for StrategyVerify, must be positive
	LineNumber string // optional for StrategyBulk, has a fallback
	Strategy   Strategy
	BaseURL    string // defaults to the SMS.ir API root
	HTTPClient *http.Client
}

// ResultKind classifies a dispatch attempt.
type ResultKind string

const (
	ResultSent           ResultKind = "sent"
	ResultNotConfigured  ResultKind = "not_configured"
	ResultAuthError      ResultKind = "auth_error"
	ResultRateLimited    ResultKind = "rate_limited"
	ResultGatewayError   ResultKind = "gateway_error"
	ResultTransportError ResultKind = "transport_error"
)

// Result is the outcome of one dispatch attempt. Callers treat every kind
// other than ResultSent identically: log it and move on.
type Result struct {
	Kind   ResultKind
	Status int    // HTTP status for gateway-classified results
	Body   string // raw gateway response body, when one was read
	Err    error  // underlying cause for not_configured / transport_error
}

// Sent reports whether the gateway accepted the message.
func (r Result) Sent() bool { return r.Kind == ResultSent }

// Dispatcher issues notification calls against the gateway.
type Dispatcher struct {
	cfg     Config
	baseURL string
	client  *http.Client
}

// New builds a dispatcher from explicit configuration.
func New(cfg Config) *Dispatcher {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyVerify
	}
	return &Dispatcher{cfg: cfg, baseURL: baseURL, client: client}
}

type verifyPayload struct {
	Mobile     string            `json:"mobile"`
	TemplateID int64             `json:"templateId"`
	Parameters []verifyParameter `json:"parameters"`
}

type verifyParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type bulkPayload struct {
	LineNumber  string   `json:"lineNumber"`
	MessageText string   `json:"messageText"`
	Mobiles     []string `json:"mobiles"`
}

// Dispatch sends one notification. Configuration problems surface as
// ResultNotConfigured before any network call is attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.NotificationRequest) Result {
	if strings.TrimSpace(d.cfg.APIKey) == "" || strings.TrimSpace(d.cfg.AdminPhone) == "" {
		return Result{Kind: ResultNotConfigured, Err: fmt.Errorf("sms gateway api key and admin phone are required")}
	}

	var path string
	var payload any
	switch d.cfg.Strategy {
	case StrategyBulk:
		line := strings.TrimSpace(d.cfg.LineNumber)
		if line == "" {
			line = defaultLineNumber
		}
		path = "/v1/send/bulk"
		payload = bulkPayload{
			LineNumber:  line,
			MessageText: composeMessage(n),
			Mobiles:     []string{d.cfg.AdminPhone},
		}
	default:
		if d.cfg.TemplateID <= 0 {
			return Result{Kind: ResultNotConfigured, Err: fmt.Errorf("sms template id must be a positive number, got %d", d.cfg.TemplateID)}
		}
		path = "/v1/send/verify"
		payload = verifyPayload{
			Mobile:     d.cfg.AdminPhone,
			TemplateID: d.cfg.TemplateID,
			Parameters: []verifyParameter{
				{Name: "NAME", Value: n.Name},
				{Name: "PHONE", Value: n.Phone},
				{Name: "REQUEST", Value: n.RequestType},
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Kind: ResultTransportError, Err: fmt.Errorf("marshal gateway payload: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Result{Kind: ResultTransportError, Err: fmt.Errorf("build gateway request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", d.cfg.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{Kind: ResultTransportError, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Result{Kind: ResultSent, Status: resp.StatusCode, Body: string(respBody)}
	case resp.StatusCode == http.StatusUnauthorized:
		return Result{Kind: ResultAuthError, Status: resp.StatusCode, Body: string(respBody)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{Kind: ResultRateLimited, Status: resp.StatusCode, Body: string(respBody)}
	default:
		return Result{Kind: ResultGatewayError, Status: resp.StatusCode, Body: string(respBody)}
	}
}

// composeMessage builds the freeform Persian message used by StrategyBulk.
func composeMessage(n domain.NotificationRequest) string {
	var b strings.Builder
	if n.FormType == domain.FormContact {
		b.WriteString("پیام جدید از سایت باربری")
	} else {
		b.WriteString("درخواست جدید باربری")
	}
	b.WriteString("\nنام: ")
	b.WriteString(n.Name)
	b.WriteString("\nتلفن: ")
	b.WriteString(n.Phone)
	b.WriteString("\nدرخواست: ")
	b.WriteString(n.RequestType)
	if strings.TrimSpace(n.Details) != "" {
		b.WriteString("\nجزئیات: ")
		b.WriteString(n.Details)
	}
	return b.String()
}
