// Package desk365 is a minimal client for the Desk365 ticket API.
package desk365

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Ticket fields fixed by the ERP support desk.
const (
	StatusOpen     = "open"
	PriorityLow    = 1
	GroupERP       = "ERP Team"
	CategoryERP    = "ERP"
	DueTimeField   = "cf_Due Time"
	ScreenshotName = "error_screenshot.png"
)

// Ticket is the ticket_object sent to create_with_attachment.
type Ticket struct {
	Email        string            `json:"email"`
	Subject      string            `json:"subject"`
	Description  string            `json:"description"`
	Status       string            `json:"status"`
	Priority     int               `json:"priority"`
	Group        string            `json:"group"`
	Category     string            `json:"category"`
	CustomFields map[string]string `json:"custom_fields"`
}

// Attachment is a file uploaded with the ticket.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Response is a successful API reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// APIError is returned when Desk365 answers with a status other than 200 or 201.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Desk365 ticket creation failed (%d)", e.StatusCode)
}

// Client posts tickets to a single create_with_attachment endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
}

type Config struct {
	Endpoint string
	// Timeout bounds a single request. Zero means no client-side timeout.
	Timeout time.Duration
	Debug   bool
}

func NewClient(cfg Config) *Client {
	rc := resty.New().
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	if cfg.Debug {
		rc.SetDebug(true)
	}
	return &Client{http: rc, endpoint: cfg.Endpoint}
}

// CreateTicket submits ticket once. The JSON ticket travels in the
// ticket_object query parameter; the attachment, when present, is sent as the
// multipart field "file", otherwise that field is an empty string.
func (c *Client) CreateTicket(ctx context.Context, token string, ticket *Ticket, file *Attachment) (*Response, error) {
	raw, err := json.Marshal(ticket)
	if err != nil {
		return nil, fmt.Errorf("encode ticket: %w", err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", token).
		SetQueryParam("ticket_object", string(raw))

	if file != nil && len(file.Data) > 0 {
		req.SetMultipartField("file", file.FileName, file.ContentType, bytes.NewReader(file.Data))
	} else {
		req.SetMultipartFormData(map[string]string{"file": ""})
	}

	resp, err := req.Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("desk365 request: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
	default:
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
}

// DecodeBody returns the response body as JSON, wrapping it as {"raw": text}
// when it is not valid JSON.
func (r *Response) DecodeBody() json.RawMessage {
	if len(r.Body) > 0 && json.Valid(r.Body) {
		return json.RawMessage(r.Body)
	}
	wrapped, _ := json.Marshal(map[string]string{"raw": string(r.Body)})
	return wrapped
}
