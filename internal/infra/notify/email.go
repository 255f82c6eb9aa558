package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"storefront/internal/domain/model"
)

// mailSender is satisfied by *gomail.Dialer.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

// EmailNotifier mails an order summary to the shop inbox.
type EmailNotifier struct {
	sender mailSender
	from   string
	to     string
	logger *zap.Logger
}

// NewEmailNotifier returns a notifier that only logs when no SMTP host is set.
func NewEmailNotifier(cfg EmailConfig, logger *zap.Logger) *EmailNotifier {
	n := &EmailNotifier{from: cfg.From, to: cfg.To, logger: logger}
	if n.from == "" {
		n.from = cfg.User
	}
	if cfg.Host == "" {
		logger.Info("smtp not configured, order emails disabled")
		return n
	}
	n.sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return n
}

func (n *EmailNotifier) NotifyOrderPlaced(ctx context.Context, order model.Order) error {
	if n.sender == nil {
		n.logger.Info("order email skipped", zap.Int64("order_id", order.ID))
		return nil
	}

	body, err := renderOrderEmail(order)
	if err != nil {
		return fmt.Errorf("render order email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Reply-To", order.CustomerEmail)
	m.SetHeader("Subject", fmt.Sprintf("New order #%d from %s", order.ID, order.CustomerName))
	m.SetBody("text/html", body)

	// gomail has no context support; give up early if the caller already did
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send order email: %w", err)
	}

	n.logger.Info("order email sent", zap.Int64("order_id", order.ID), zap.String("to", n.to))
	return nil
}

var orderEmailTmpl = template.Must(template.New("order").Parse(`
<h2>New order #{{.ID}}</h2>
<p><b>{{.CustomerName}}</b><br>{{.CustomerEmail}}<br>{{.CustomerPhone}}</p>
{{if .CustomerAddress}}<p>Delivery address: {{.CustomerAddress}}</p>{{end}}
{{if .Notes}}<p>Notes: {{.Notes}}</p>{{end}}
<table border="1" cellpadding="4">
<tr><th>Product</th><th>Qty</th><th>Unit price</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price.StringFixed 2}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal.StringFixed 2}}<br>
Delivery: {{.DeliveryFee.StringFixed 2}}<br>
<b>Total: {{.TotalAmount.StringFixed 2}}</b></p>
`))

func renderOrderEmail(order model.Order) (string, error) {
	var buf bytes.Buffer
	if err := orderEmailTmpl.Execute(&buf, order); err != nil {
		return "", err
	}
	return buf.String(), nil
}
