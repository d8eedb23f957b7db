package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abdallaazouz/handy-man-sub000/internal/i18n"
	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"gopkg.in/telebot.v4"
)

// ErrNotConnected is returned by send operations while the gateway has no
// live Telegram connection.
var ErrNotConnected = errors.New("telegram bot is not connected")

// renderTask builds the task message sent to a technician. Client identity is
// deliberately absent; it travels separately via the client-info message.
func renderTask(loc *i18n.Localizer, lang string, task models.Task) string {
	var b strings.Builder

	b.WriteString(loc.GetWithData(lang, "task.header", map[string]interface{}{"number": task.TaskNumber}))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s: %s\n", loc.Get(lang, "task.title"), task.Title)
	if task.Description != "" {
		fmt.Fprintf(&b, "%s: %s\n", loc.Get(lang, "task.description"), task.Description)
	}
	fmt.Fprintf(&b, "%s: %s\n", loc.Get(lang, "task.address"), task.Address)
	if task.MapURL != "" {
		fmt.Fprintf(&b, "%s: %s\n", loc.Get(lang, "task.map"), task.MapURL)
	}
	if task.ScheduledDate != "" {
		fmt.Fprintf(&b, "%s: %s %s-%s\n",
			loc.Get(lang, "task.schedule"), task.ScheduledDate, task.StartTime, task.EndTime)
	}
	fmt.Fprintf(&b, "%s: %s", loc.Get(lang, "task.payment"), task.PaymentStatus)

	return b.String()
}

// renderClientInfo builds the confidential client message for an accepted task.
func renderClientInfo(loc *i18n.Localizer, lang string, task models.Task) string {
	var b strings.Builder

	b.WriteString(loc.GetWithData(lang, "client.header", map[string]interface{}{"number": task.TaskNumber}))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s: %s\n", loc.Get(lang, "client.name"), task.ClientName)
	fmt.Fprintf(&b, "%s: %s\n", loc.Get(lang, "client.phone"), task.ClientPhone)
	b.WriteString("\n")
	b.WriteString(loc.Get(lang, "client.confidential"))

	return b.String()
}

// renderInvoice builds the invoice message sent to a technician.
func renderInvoice(loc *i18n.Localizer, lang, currency string, inv models.Invoice) string {
	var b strings.Builder

	b.WriteString(loc.GetWithData(lang, "invoice.header", map[string]interface{}{"number": inv.InvoiceNumber}))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s: %.2f %s\n", loc.Get(lang, "invoice.amount"), inv.Amount, currency)
	fmt.Fprintf(&b, "%s: %s\n", loc.Get(lang, "invoice.status"), inv.Status)
	if inv.DueDate != "" {
		fmt.Fprintf(&b, "%s: %s\n", loc.Get(lang, "invoice.due"), inv.DueDate)
	}
	if len(inv.PaymentMethods) > 0 {
		fmt.Fprintf(&b, "%s: %s", loc.Get(lang, "invoice.methods"), strings.Join(inv.PaymentMethods, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

// SendTask delivers the task message with accept/reject buttons. It
// implements the lifecycle sender contract.
func (g *Gateway) SendTask(ctx context.Context, task models.Task, tech models.Technician) error {
	bot := g.current()
	if bot == nil {
		return ErrNotConnected
	}

	lang := g.language(ctx)
	data := strconv.FormatInt(task.ID, 10)

	accept := btnAcceptTask
	accept.Text = g.localizer.Get(lang, "btn.accept")
	accept.Data = data
	reject := btnRejectTask
	reject.Text = g.localizer.Get(lang, "btn.reject")
	reject.Data = data
	markup := &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{{accept, reject}}}

	if _, err := bot.Send(telebot.ChatID(tech.TelegramID), renderTask(g.localizer, lang, task), markup); err != nil {
		return fmt.Errorf("failed to send task message: %w", err)
	}

	g.metrics.MessagesSent.WithLabelValues("task").Inc()
	return nil
}

// SendClientInfo delivers the confidential client message with a complete
// button. It implements the lifecycle sender contract.
func (g *Gateway) SendClientInfo(ctx context.Context, task models.Task, tech models.Technician) error {
	bot := g.current()
	if bot == nil {
		return ErrNotConnected
	}

	lang := g.language(ctx)

	complete := btnCompleteTask
	complete.Text = g.localizer.Get(lang, "btn.complete")
	complete.Data = strconv.FormatInt(task.ID, 10)
	markup := &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{{complete}}}

	if _, err := bot.Send(telebot.ChatID(tech.TelegramID), renderClientInfo(g.localizer, lang, task), markup); err != nil {
		return fmt.Errorf("failed to send client info message: %w", err)
	}

	g.metrics.MessagesSent.WithLabelValues("client_info").Inc()
	return nil
}

// SendInvoiceToTechnician sends the invoice as a text message to its
// technician. It returns false, never an error, when the invoice or
// technician cannot be resolved or the underlying send fails; the invoice
// record is never mutated.
func (g *Gateway) SendInvoiceToTechnician(ctx context.Context, invoiceID int64) bool {
	inv, err := g.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		g.log.WarnContext(ctx, "cannot send invoice: not found", "invoice", invoiceID, "error", err)
		return false
	}

	tech, err := g.store.GetTechnician(ctx, inv.TechnicianID)
	if err != nil {
		g.log.WarnContext(ctx, "cannot send invoice: technician not found",
			"invoice", invoiceID, "technician", inv.TechnicianID, "error", err)
		return false
	}
	if tech.TelegramID == 0 {
		g.log.WarnContext(ctx, "cannot send invoice: technician has no telegram chat",
			"invoice", invoiceID, "technician", tech.ID)
		return false
	}

	bot := g.current()
	if bot == nil {
		g.log.WarnContext(ctx, "cannot send invoice: bot not connected", "invoice", invoiceID)
		return false
	}

	settings, err := g.store.GetSystemSettings(ctx)
	if err != nil {
		g.log.WarnContext(ctx, "failed to load system settings for invoice send", "error", err)
		settings.Language = i18n.DefaultLanguage
		settings.Currency = "USD"
	}
	lang := i18n.NormalizeLanguageCode(settings.Language)

	text := renderInvoice(g.localizer, lang, settings.Currency, inv)
	if _, err = bot.Send(telebot.ChatID(tech.TelegramID), text); err != nil {
		g.log.ErrorContext(ctx, "failed to send invoice message", "invoice", invoiceID, "error", err)
		return false
	}

	g.metrics.MessagesSent.WithLabelValues("invoice").Inc()
	if _, err = g.relay.Publish(ctx, models.Notification{
		Type:    "invoice_sent",
		Message: fmt.Sprintf("Invoice %s was sent to %s", inv.InvoiceNumber, tech.Name),
	}); err != nil {
		g.log.ErrorContext(ctx, "failed to record invoice notification", "error", err)
	}
	return true
}

// SendInvoicePDF delivers a rendered invoice document to a technician chat.
// It returns false when the gateway is disconnected or the send fails.
func (g *Gateway) SendInvoicePDF(ctx context.Context, technicianChatID int64, file []byte, fileName, caption string) bool {
	bot := g.current()
	if bot == nil {
		g.log.WarnContext(ctx, "cannot send invoice PDF: bot not connected", "chat", technicianChatID)
		return false
	}

	doc := &telebot.Document{
		File:     telebot.FromReader(bytes.NewReader(file)),
		FileName: fileName,
		Caption:  caption,
	}
	if _, err := bot.Send(telebot.ChatID(technicianChatID), doc); err != nil {
		g.log.ErrorContext(ctx, "failed to send invoice PDF", "chat", technicianChatID, "error", err)
		return false
	}

	g.metrics.MessagesSent.WithLabelValues("invoice_pdf").Inc()
	if _, err := g.relay.Publish(ctx, models.Notification{
		Type:    "invoice_pdf_sent",
		Message: fmt.Sprintf("Invoice document %s was sent", fileName),
	}); err != nil {
		g.log.ErrorContext(ctx, "failed to record invoice pdf notification", "error", err)
	}
	return true
}
