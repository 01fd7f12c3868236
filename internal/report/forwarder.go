package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mobilityp/errorsender/internal/desk365"
	"github.com/mobilityp/errorsender/internal/metrics"
	"github.com/mobilityp/errorsender/internal/model"
)

const logCategory = "send_error_report"

// ErrMissingCredentials is returned when the settings record has no Desk365 token.
var ErrMissingCredentials = errors.New("desk365 api token is not configured")

type SettingsLoader interface {
	Load(ctx context.Context) (*model.IntegrationSettings, error)
}

type FileSaver interface {
	Save(ctx context.Context, name string, data []byte, private bool) (*model.File, error)
}

type TicketCreator interface {
	CreateTicket(ctx context.Context, token string, ticket *desk365.Ticket, file *desk365.Attachment) (*desk365.Response, error)
}

// Result is returned to the client after a ticket was created.
type Result struct {
	Success         bool            `json:"success"`
	Desk365Response json.RawMessage `json:"desk365_response"`
}

// Forwarder sends error reports to Desk365. Each call submits exactly one
// ticket; nothing is retried or deduplicated.
type Forwarder struct {
	logger   *slog.Logger
	settings SettingsLoader
	files    FileSaver
	tickets  TicketCreator
	now      func() time.Time
}

func NewForwarder(logger *slog.Logger, settings SettingsLoader, files FileSaver, tickets TicketCreator) *Forwarder {
	return &Forwarder{
		logger:   logger,
		settings: settings,
		files:    files,
		tickets:  tickets,
		now:      time.Now,
	}
}

// Send forwards r. Screenshot and traceback problems are logged and
// swallowed; missing credentials and a rejected ticket are returned as errors.
// A rejection is a *desk365.APIError.
func (f *Forwarder) Send(ctx context.Context, r *ErrorReport) (*Result, error) {
	attachment := f.attachScreenshot(ctx, r.Screenshot)

	email := ParseIdentity(r.User, r.SessionUser).Address()
	f.logger.Info("error report received", "category", logCategory, "email", email, "context", r.Context)

	tb := ParseTraceback(r.Traceback)

	settings, err := f.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load desk365 credentials: %w", err)
	}
	if settings.APIToken == "" {
		return nil, ErrMissingCredentials
	}

	ticket, err := BuildTicket(r, email, tb, DueDate(f.now(), settings.DueInBusinessDays))
	if err != nil {
		return nil, fmt.Errorf("build ticket: %w", err)
	}

	start := time.Now()
	resp, err := f.tickets.CreateTicket(ctx, settings.APIToken, ticket, attachment)
	metrics.RemoteLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		var apiErr *desk365.APIError
		if errors.As(err, &apiErr) {
			metrics.Tickets.WithLabelValues("rejected").Inc()
			f.logger.Error("desk365 rejected ticket", "category", logCategory, "status", apiErr.StatusCode, "body", apiErr.Body)
			return nil, err
		}
		metrics.Tickets.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("submit ticket: %w", err)
	}

	metrics.Tickets.WithLabelValues("created").Inc()
	f.logger.Info("desk365 ticket created", "category", logCategory, "status", resp.StatusCode, "email", email)
	return &Result{Success: true, Desk365Response: resp.DecodeBody()}, nil
}

// attachScreenshot decodes and stores the screenshot. It returns nil when
// there is nothing to attach. A storage failure still attaches the image.
func (f *Forwarder) attachScreenshot(ctx context.Context, dataURI string) *desk365.Attachment {
	if dataURI == "" {
		return nil
	}

	data, err := DecodeScreenshot(dataURI)
	if err != nil {
		metrics.Screenshots.WithLabelValues("decode_failed").Inc()
		f.logger.Warn("screenshot decode error", "category", logCategory, "err", err)
		return nil
	}

	if _, err := f.files.Save(ctx, desk365.ScreenshotName, data, true); err != nil {
		metrics.Screenshots.WithLabelValues("store_failed").Inc()
		f.logger.Warn("screenshot store error", "category", logCategory, "err", err)
	} else {
		metrics.Screenshots.WithLabelValues("attached").Inc()
	}

	return &desk365.Attachment{
		FileName:    desk365.ScreenshotName,
		ContentType: "image/png",
		Data:        data,
	}
}
