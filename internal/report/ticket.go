package report

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mobilityp/errorsender/internal/desk365"
)

// DefaultSubject is used when the report has no title.
const DefaultSubject = "Error Report from Frappe"

//go:embed templates/description.tmpl
var templateFS embed.FS

var descriptionTmpl = template.Must(template.ParseFS(templateFS, "templates/description.tmpl"))

// messagePolicy keeps the inline formatting the desk produces in its
// messages and drops everything else.
var messagePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "br", "p", "span", "div", "code", "ul", "ol", "li")
	p.AllowElements("a")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	return p
}()

type descriptionData struct {
	Doctype    string
	Docname    string
	ReportName string
	PageLink   string
	Domain     string
	Message    template.HTML
	Traceback  string
}

// Description renders the preformatted ticket body. Context fields and the
// traceback are HTML-escaped; the message keeps safe inline markup.
func Description(r *ErrorReport, tb Traceback) (string, error) {
	message := template.HTML("-")
	if strings.TrimSpace(r.Message) != "" {
		message = template.HTML(messagePolicy.Sanitize(r.Message))
	}

	data := descriptionData{
		Doctype:    dash(r.Doctype),
		Docname:    dash(r.Docname),
		ReportName: dash(r.ReportName),
		PageLink:   dash(r.PageLink),
		Domain:     dash(r.Domain),
		Message:    message,
		Traceback:  dash(tb.Text()),
	}

	var buf bytes.Buffer
	if err := descriptionTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// BuildTicket assembles the Desk365 ticket for a report.
func BuildTicket(r *ErrorReport, email string, tb Traceback, due string) (*desk365.Ticket, error) {
	description, err := Description(r, tb)
	if err != nil {
		return nil, err
	}

	subject := r.Title
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}

	return &desk365.Ticket{
		Email:        email,
		Subject:      subject,
		Description:  description,
		Status:       desk365.StatusOpen,
		Priority:     desk365.PriorityLow,
		Group:        desk365.GroupERP,
		Category:     desk365.CategoryERP,
		CustomFields: map[string]string{desk365.DueTimeField: due},
	}, nil
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
