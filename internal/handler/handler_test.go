package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilityp/errorsender/internal/desk365"
	appmw "github.com/mobilityp/errorsender/internal/middleware"
	"github.com/mobilityp/errorsender/internal/model"
	"github.com/mobilityp/errorsender/internal/report"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSender struct {
	got *report.ErrorReport
	res *report.Result
	err error
}

func (f *fakeSender) Send(_ context.Context, r *report.ErrorReport) (*report.Result, error) {
	f.got = r
	return f.res, f.err
}

type staticSessions string

func (s staticSessions) CurrentUser(context.Context, string) (string, error) {
	return string(s), nil
}

func okResult() *report.Result {
	return &report.Result{Success: true, Desk365Response: json.RawMessage(`{"id":42}`)}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestReportJSONBody(t *testing.T) {
	sender := &fakeSender{res: okResult()}
	h := NewReportHandler(testLogger, sender, 1<<20)

	body := `{"title":"Boom","doctype":"Sales Invoice","user":{"email":"a@b.com"},"traceback":["frame1","frame2"],"message":null}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := serve(http.HandlerFunc(h.Send), req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"message":{"success":true,"desk365_response":{"id":42}}}`, rr.Body.String())

	require.NotNil(t, sender.got)
	assert.Equal(t, "Boom", sender.got.Title)
	assert.Equal(t, "Sales Invoice", sender.got.Doctype)
	assert.JSONEq(t, `{"email":"a@b.com"}`, sender.got.User)
	assert.JSONEq(t, `["frame1","frame2"]`, sender.got.Traceback)
	assert.Empty(t, sender.got.Message)
}

func TestReportFormBody(t *testing.T) {
	sender := &fakeSender{res: okResult()}
	h := NewReportHandler(testLogger, sender, 1<<20)

	form := url.Values{
		"title":       {"Boom"},
		"report_name": {"General Ledger"},
		"page_link":   {"http://example.com/app"},
		"screenshot":  {"data:image/png;base64,AAAA"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serve(http.HandlerFunc(h.Send), req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "General Ledger", sender.got.ReportName)
	assert.Equal(t, "http://example.com/app", sender.got.PageLink)
	assert.Equal(t, "data:image/png;base64,AAAA", sender.got.Screenshot)
}

func TestReportMultipartBody(t *testing.T) {
	sender := &fakeSender{res: okResult()}
	h := NewReportHandler(testLogger, sender, 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("docname", "SINV-0001"))
	require.NoError(t, mw.WriteField("domain", "erp.mobilityp.com"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := serve(http.HandlerFunc(h.Send), req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "SINV-0001", sender.got.Docname)
	assert.Equal(t, "erp.mobilityp.com", sender.got.Domain)
}

func TestReportCarriesSessionUser(t *testing.T) {
	sender := &fakeSender{res: okResult()}
	h := appmw.Session(staticSessions("clerk@mobilityp.com"), "sid")(http.HandlerFunc(NewReportHandler(testLogger, sender, 0).Send))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	rr := serve(h, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "clerk@mobilityp.com", sender.got.SessionUser)
}

func TestReportErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "remote rejection",
			err:      &desk365.APIError{StatusCode: 500, Body: "server error"},
			wantCode: http.StatusBadGateway,
			wantBody: `{"error":"Desk365 ticket creation failed (500)"}`,
		},
		{
			name:     "missing credentials",
			err:      report.ErrMissingCredentials,
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"the server encountered a problem and could not process your request"}`,
		},
		{
			name:     "transport",
			err:      errors.New("submit ticket: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"the server encountered a problem and could not process your request"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewReportHandler(testLogger, &fakeSender{err: tt.err}, 0)
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			rr := serve(http.HandlerFunc(h.Send), req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestReportBadJSON(t *testing.T) {
	sender := &fakeSender{res: okResult()}
	h := NewReportHandler(testLogger, sender, 0)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	rr := serve(http.HandlerFunc(h.Send), req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, sender.got)
}

func TestReportBodyTooLarge(t *testing.T) {
	sender := &fakeSender{res: okResult()}
	h := NewReportHandler(testLogger, sender, 16)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"`+strings.Repeat("x", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := serve(http.HandlerFunc(h.Send), req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "larger than 16 bytes")
	assert.Nil(t, sender.got)
}

type memSettings struct {
	s model.IntegrationSettings
}

func (m *memSettings) Load(context.Context) (*model.IntegrationSettings, error) {
	s := m.s
	return &s, nil
}

func (m *memSettings) Save(_ context.Context, s *model.IntegrationSettings) error {
	m.s = *s
	return nil
}

func TestSettingsGetMasksToken(t *testing.T) {
	h := NewSettingsHandler(testLogger, &memSettings{s: model.IntegrationSettings{APIToken: "secret", DueInBusinessDays: true}})

	rr := serve(http.HandlerFunc(h.Get), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"settings":{"apiToken":"********","dueInBusinessDays":true}}`, rr.Body.String())
}

func TestSettingsUpdate(t *testing.T) {
	store := &memSettings{s: model.IntegrationSettings{APIToken: "old"}}
	h := NewSettingsHandler(testLogger, store)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"apiToken":"","dueInBusinessDays":true}`))
	rr := serve(http.HandlerFunc(h.Update), req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.IntegrationSettings{APIToken: "old", DueInBusinessDays: true}, store.s)

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"apiToken":"new"}`))
	rr = serve(http.HandlerFunc(h.Update), req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "new", store.s.APIToken)
	assert.NotContains(t, rr.Body.String(), "new")
}

func TestSettingsUpdateRejectsUnknownFields(t *testing.T) {
	store := &memSettings{s: model.IntegrationSettings{APIToken: "old"}}
	h := NewSettingsHandler(testLogger, store)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"smtpPass":"x"}`))
	rr := serve(http.HandlerFunc(h.Update), req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "old", store.s.APIToken)
}

func TestHealth(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("unreachable") }

	rr := serve(Health(map[string]Check{"database": up}), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"up"}}`, rr.Body.String())

	rr = serve(Health(map[string]Check{"database": up, "redis": down}), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"database":"up","redis":"down"}}`, rr.Body.String())
}
