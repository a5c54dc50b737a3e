package alerts

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// EmailNotifier delivers alerts over SMTP, one message per recipient so
// a single bad address does not sink the rest.
type EmailNotifier struct {
	host       string
	port       int
	account    string
	authCode   string
	recipients []string

	// send is swappable for tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier creates an SMTP notifier. authCode is the SMTP
// authorization code (not the mailbox password) used by providers such
// as QQ Mail.
func NewEmailNotifier(host string, port int, account, authCode string, recipients []string) *EmailNotifier {
	return &EmailNotifier{
		host:       host,
		port:       port,
		account:    account,
		authCode:   authCode,
		recipients: recipients,
		send:       smtp.SendMail,
	}
}

func (n *EmailNotifier) Name() string { return "email" }

// Send mails the alert to every configured recipient. The error is
// non-nil only when every delivery failed.
func (n *EmailNotifier) Send(ctx context.Context, alert Alert) (DeliveryReport, error) {
	var report DeliveryReport

	body, err := renderEmailBody(alert)
	if err != nil {
		return report, fmt.Errorf("render alert email: %w", err)
	}

	subject := fmt.Sprintf("Low energy alert: %.2f kWh remaining", alert.Reading.RemainingEnergy)
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.account, n.authCode, n.host)

	for _, rcpt := range n.recipients {
		rcpt = strings.TrimSpace(rcpt)
		if rcpt == "" {
			continue
		}
		if ctx.Err() != nil {
			report.Failed = append(report.Failed, rcpt)
			continue
		}

		msg := buildMessage(n.account, rcpt, subject, body)
		if err := n.send(addr, auth, n.account, []string{rcpt}, msg); err != nil {
			report.Failed = append(report.Failed, rcpt)
			continue
		}
		report.Delivered = append(report.Delivered, rcpt)
	}

	if report.AllFailed() {
		return report, fmt.Errorf("email: delivery failed for all %d recipients", len(report.Failed))
	}
	return report, nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes()
}

var emailTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h2 style="color: #d63031;">&#9888; Low Energy Alert</h2>
  <p>The meter dropped to or below the configured threshold. Please recharge.</p>
  <table border="1" cellpadding="8" style="border-collapse: collapse;">
    <tr><th align="left">Remaining Energy</th><td><b>{{printf "%.2f" .Reading.RemainingEnergy}} kWh</b></td></tr>
    <tr><th align="left">Remaining Amount</th><td>{{printf "%.2f" .Reading.RemainingAmount}}</td></tr>
    <tr><th align="left">Total Consumption</th><td>{{printf "%.2f" .Reading.TotalConsumption}} kWh</td></tr>
    <tr><th align="left">Price</th><td>{{printf "%.4f" .Reading.Price}} per kWh</td></tr>
    {{if .Reading.MeterStatus}}<tr><th align="left">Meter Status</th><td>{{.Reading.MeterStatus}}</td></tr>{{end}}
    <tr><th align="left">Source Update Time</th><td>{{.Reading.SourceUpdateTime}}</td></tr>
    <tr><th align="left">Threshold</th><td>{{printf "%.1f" .Threshold}} kWh</td></tr>
    <tr><th align="left">Estimated Days Remaining</th><td>{{printf "%.1f" .DaysRemaining}}</td></tr>
  </table>
</body>
</html>`))

func renderEmailBody(alert Alert) (string, error) {
	var b strings.Builder
	if err := emailTemplate.Execute(&b, alert); err != nil {
		return "", err
	}
	return b.String(), nil
}
