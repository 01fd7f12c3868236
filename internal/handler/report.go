package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/mobilityp/errorsender/internal/desk365"
	appmw "github.com/mobilityp/errorsender/internal/middleware"
	"github.com/mobilityp/errorsender/internal/report"
)

type reportSender interface {
	Send(ctx context.Context, r *report.ErrorReport) (*report.Result, error)
}

// ReportHandler accepts error reports from the browser client.
type ReportHandler struct {
	BaseHandler
	sender reportSender
}

func NewReportHandler(logger *slog.Logger, sender reportSender, maxBodyBytes int64) *ReportHandler {
	return &ReportHandler{
		BaseHandler: BaseHandler{Logger: logger, MaxBodyBytes: maxBodyBytes},
		sender:      sender,
	}
}

// Send forwards the submitted report and wraps the result in the "message"
// envelope read by the client.
func (h *ReportHandler) Send(w http.ResponseWriter, r *http.Request) {
	params, err := h.readParams(w, r)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	rep := &report.ErrorReport{
		Context:     params["context"],
		Doctype:     params["doctype"],
		Title:       params["title"],
		Docname:     params["docname"],
		ReportName:  params["report_name"],
		PageLink:    params["page_link"],
		Message:     params["message"],
		Traceback:   params["traceback"],
		User:        params["user"],
		Domain:      params["domain"],
		Screenshot:  params["screenshot"],
		SessionUser: appmw.UserFromContext(r.Context()),
	}

	res, err := h.sender.Send(r.Context(), rep)
	if err != nil {
		var apiErr *desk365.APIError
		if errors.As(err, &apiErr) {
			h.errorResponse(w, r, http.StatusBadGateway, apiErr.Error())
			return
		}
		h.serverErrorResponse(w, r, err)
		return
	}

	if err := h.writeJSON(w, http.StatusOK, envelope{"message": res}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

var reportParams = []string{
	"context", "doctype", "title", "docname", "report_name", "page_link",
	"message", "traceback", "user", "domain", "screenshot",
}

// readParams collects the report parameters from a JSON object or from
// form/query values. JSON values that are not strings are kept as their JSON
// text.
func (h *ReportHandler) readParams(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	params := make(map[string]string, len(reportParams))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body map[string]json.RawMessage
		if err := h.decodeJSON(w, r, &body, false); err != nil {
			return nil, err
		}
		for _, name := range reportParams {
			params[name] = jsonText(body[name])
		}
		return params, nil

	case "multipart/form-data":
		if h.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, err
		}
		defer r.MultipartForm.RemoveAll()

	default:
		if h.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
		}
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	}

	for _, name := range reportParams {
		params[name] = r.FormValue(name)
	}
	return params, nil
}

func jsonText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
