package desk365

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	authorization string
	accept        string
	contentType   string
	ticket        Ticket
	fileName      string
	fileType      string
	fileData      []byte
	hasFile       bool
}

func newTestServer(t *testing.T, status int, body string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		got.authorization = r.Header.Get("Authorization")
		got.accept = r.Header.Get("Accept")
		got.contentType = r.Header.Get("Content-Type")

		if err := json.Unmarshal([]byte(r.URL.Query().Get("ticket_object")), &got.ticket); err != nil {
			t.Errorf("ticket_object is not JSON: %v", err)
		}

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		} else if files := r.MultipartForm.File["file"]; len(files) == 1 {
			got.hasFile = true
			got.fileName = files[0].Filename
			got.fileType = files[0].Header.Get("Content-Type")
			if f, err := files[0].Open(); err == nil {
				got.fileData, _ = io.ReadAll(f)
				f.Close()
			}
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sampleTicket() *Ticket {
	return &Ticket{
		Email:        "a@b.com",
		Subject:      "Error Report from Frappe",
		Description:  "<pre>x</pre>",
		Status:       StatusOpen,
		Priority:     PriorityLow,
		Group:        GroupERP,
		Category:     CategoryERP,
		CustomFields: map[string]string{DueTimeField: "2026-01-07"},
	}
}

func TestCreateTicketSendsHeadersAndTicketObject(t *testing.T) {
	var got captured
	srv := newTestServer(t, http.StatusCreated, `{"id":42}`, &got)

	c := NewClient(Config{Endpoint: srv.URL})
	resp, err := c.CreateTicket(context.Background(), "tok-123", sampleTicket(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":42}`, string(resp.DecodeBody()))

	assert.Equal(t, "tok-123", got.authorization)
	assert.Equal(t, "application/json", got.accept)
	assert.True(t, strings.HasPrefix(got.contentType, "multipart/form-data"), "content type %q", got.contentType)
	assert.Equal(t, *sampleTicket(), got.ticket)
	assert.False(t, got.hasFile, "no file part expected without a screenshot")
}

func TestCreateTicketAttachesScreenshot(t *testing.T) {
	var got captured
	srv := newTestServer(t, http.StatusOK, `{}`, &got)

	png := []byte("\x89PNG\r\n\x1a\nimage-bytes")
	c := NewClient(Config{Endpoint: srv.URL})
	_, err := c.CreateTicket(context.Background(), "tok", sampleTicket(), &Attachment{
		FileName:    ScreenshotName,
		ContentType: "image/png",
		Data:        png,
	})
	require.NoError(t, err)

	require.True(t, got.hasFile)
	assert.Equal(t, ScreenshotName, got.fileName)
	assert.Equal(t, "image/png", got.fileType)
	assert.Equal(t, png, got.fileData)
}

func TestCreateTicketRemoteFailure(t *testing.T) {
	var got captured
	srv := newTestServer(t, http.StatusInternalServerError, "server error", &got)

	c := NewClient(Config{Endpoint: srv.URL})
	resp, err := c.CreateTicket(context.Background(), "tok", sampleTicket(), nil)
	require.Error(t, err)
	assert.Nil(t, resp)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "server error", apiErr.Body)
	assert.Contains(t, err.Error(), "500")
}

func TestCreateTicketTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{Endpoint: url})
	_, err := c.CreateTicket(context.Background(), "tok", sampleTicket(), nil)
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json object", `{"id":42}`, `{"id":42}`},
		{"plain text", "created", `{"raw":"created"}`},
		{"empty", "", `{"raw":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Response{StatusCode: http.StatusOK, Body: []byte(tt.body)}
			assert.JSONEq(t, tt.want, string(r.DecodeBody()))
		})
	}
}
