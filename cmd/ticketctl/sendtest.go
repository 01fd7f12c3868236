package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mobilityp/errorsender/internal/config"
	"github.com/mobilityp/errorsender/internal/desk365"
	"github.com/mobilityp/errorsender/internal/report"
)

var sendTestCmd = &cobra.Command{
	Use:   "send-test",
	Short: "Create a sample ticket in Desk365",
	Long: `Send a sample error report ticket to Desk365 using the same payload the
service builds, then print the status code and response body.

The API token is read from --token or DESK365_API_TOKEN.`,
	RunE: runSendTest,
}

var (
	tokenFlag        string
	emailFlag        string
	screenshotFlag   string
	urlFlag          string
	businessDaysFlag bool
	timeoutFlag      time.Duration
)

func init() {
	sendTestCmd.Flags().StringVar(&tokenFlag, "token", "", "Desk365 API token (defaults to DESK365_API_TOKEN)")
	sendTestCmd.Flags().StringVar(&emailFlag, "email", report.DefaultEmail, "Reporter email on the ticket")
	sendTestCmd.Flags().StringVar(&screenshotFlag, "screenshot", "", "PNG file to attach")
	sendTestCmd.Flags().StringVar(&urlFlag, "url", config.DefaultDesk365URL, "Ticket creation endpoint")
	sendTestCmd.Flags().BoolVar(&businessDaysFlag, "business-days", false, "Count the due date in business days")
	sendTestCmd.Flags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Request timeout")
}

func sampleReport() *report.ErrorReport {
	return &report.ErrorReport{
		Doctype:    "Example",
		Docname:    "Example",
		ReportName: "Example",
		PageLink:   "http://example.com",
		Domain:     "http://example.com",
		Message:    "Error message",
	}
}

func runSendTest(cmd *cobra.Command, args []string) error {
	token := tokenFlag
	if token == "" {
		token = os.Getenv("DESK365_API_TOKEN")
	}
	if token == "" {
		return errors.New("no API token: pass --token or set DESK365_API_TOKEN")
	}

	var attachment *desk365.Attachment
	if screenshotFlag != "" {
		data, err := os.ReadFile(screenshotFlag)
		if err != nil {
			return fmt.Errorf("read screenshot: %w", err)
		}
		attachment = &desk365.Attachment{
			FileName:    desk365.ScreenshotName,
			ContentType: "image/png",
			Data:        data,
		}
	}

	ticket, err := report.BuildTicket(sampleReport(), emailFlag, report.Single(""), report.DueDate(time.Now(), businessDaysFlag))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	client := desk365.NewClient(desk365.Config{Endpoint: urlFlag})
	resp, err := client.CreateTicket(ctx, token, ticket, attachment)

	var apiErr *desk365.APIError
	switch {
	case errors.As(err, &apiErr):
		printResponse(cmd.OutOrStdout(), &desk365.Response{StatusCode: apiErr.StatusCode, Body: []byte(apiErr.Body)})
		return err
	case err != nil:
		return err
	}

	printResponse(cmd.OutOrStdout(), resp)
	return nil
}

func printResponse(w io.Writer, resp *desk365.Response) {
	fmt.Fprintln(w, "Status Code:", resp.StatusCode)
	fmt.Fprintln(w, "Response:", string(resp.DecodeBody()))
}
