package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abdallaazouz/handy-man-sub000/internal/lifecycle"
	"github.com/abdallaazouz/handy-man-sub000/internal/models"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"gopkg.in/telebot.v4"
)

const handlerTimeout = 5 * time.Second

// startHandler registers the sender as a technician. Registration is
// idempotent: a second /start from the same chat returns the existing record
// unchanged.
func (g *Gateway) startHandler(tCtx telebot.Context) error {
	sender := tCtx.Sender()
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	g.log.Info("Technician started the bot", "id", sender.ID, "username", sender.Username)
	g.metrics.CallbacksReceived.WithLabelValues("start").Inc()

	tech, err := g.store.GetTechnicianByTelegramID(ctx, sender.ID)
	if err == nil {
		g.metrics.MessagesSent.WithLabelValues("text").Inc()
		return tCtx.Send(g.tWithData(ctx, "start.known", map[string]interface{}{"name": tech.Name}))
	}
	if !errors.Is(err, storage.ErrNotFound) {
		g.log.ErrorContext(ctx, "failed to look up technician", "error", err, "telegram_id", sender.ID)
		g.metrics.MessagesSent.WithLabelValues("error").Inc()
		return tCtx.Send(g.t(ctx, "error.internal"))
	}

	name := strings.TrimSpace(sender.FirstName + " " + sender.LastName)
	tech, err = g.store.CreateTechnician(ctx, models.Technician{
		TelegramID: sender.ID,
		Name:       name,
		Username:   sender.Username,
		IsActive:   true,
	})
	if err != nil {
		// A concurrent /start may have won the insert; reuse its record.
		if errors.Is(err, storage.ErrConflict) {
			tech, err = g.store.GetTechnicianByTelegramID(ctx, sender.ID)
		}
		if err != nil {
			g.log.ErrorContext(ctx, "failed to register technician", "error", err, "telegram_id", sender.ID)
			g.metrics.MessagesSent.WithLabelValues("error").Inc()
			return tCtx.Send(g.t(ctx, "error.internal"))
		}
		g.metrics.MessagesSent.WithLabelValues("text").Inc()
		return tCtx.Send(g.tWithData(ctx, "start.known", map[string]interface{}{"name": tech.Name}))
	}

	g.metrics.NewTechnicians.Inc()
	if _, err = g.relay.Publish(ctx, models.Notification{
		Type:    "technician_registered",
		Message: fmt.Sprintf("Technician %s registered via Telegram", tech.Name),
	}); err != nil {
		g.log.ErrorContext(ctx, "failed to record registration notification", "error", err)
	}

	g.metrics.MessagesSent.WithLabelValues("text").Inc()
	return tCtx.Send(g.tWithData(ctx, "start.welcome", map[string]interface{}{"name": tech.Name}))
}

// textHandler answers free-text messages with a generic help message.
func (g *Gateway) textHandler(tCtx telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	g.metrics.MessagesSent.WithLabelValues("reply").Inc()
	return tCtx.Reply(g.t(ctx, "help.unknown"))
}

func (g *Gateway) acceptHandler(tCtx telebot.Context) error {
	return g.transitionHandler(tCtx, "accept_task", "reply.accepted",
		func(ctx context.Context, taskID int64, tech models.Technician) (models.Task, error) {
			return g.controller.Accept(ctx, taskID, tech)
		})
}

func (g *Gateway) rejectHandler(tCtx telebot.Context) error {
	return g.transitionHandler(tCtx, "reject_task", "reply.rejected",
		func(ctx context.Context, taskID int64, tech models.Technician) (models.Task, error) {
			return g.controller.Reject(ctx, taskID, tech)
		})
}

func (g *Gateway) completeHandler(tCtx telebot.Context) error {
	return g.transitionHandler(tCtx, "complete_task", "reply.completed",
		func(ctx context.Context, taskID int64, tech models.Technician) (models.Task, error) {
			return g.controller.Complete(ctx, taskID, tech)
		})
}

// transitionHandler resolves the pressed button into a lifecycle transition.
// When the task or technician cannot be resolved the transition is abandoned
// and a localized error is sent back to the originating chat.
func (g *Gateway) transitionHandler(
	tCtx telebot.Context,
	action, successKey string,
	transition func(ctx context.Context, taskID int64, tech models.Technician) (models.Task, error),
) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	g.metrics.CallbacksReceived.WithLabelValues(action).Inc()
	defer func() { _ = tCtx.Respond() }()

	taskID, err := strconv.ParseInt(strings.TrimSpace(tCtx.Data()), 10, 64)
	if err != nil {
		// Malformed payloads are ignored silently.
		g.log.WarnContext(ctx, "ignoring malformed callback payload", "action", action, "data", tCtx.Data())
		return nil
	}

	tech, err := g.store.GetTechnicianByTelegramID(ctx, tCtx.Sender().ID)
	if err != nil {
		g.metrics.MessagesSent.WithLabelValues("error").Inc()
		return tCtx.Send(g.t(ctx, "error.not_registered"))
	}

	task, err := transition(ctx, taskID, tech)
	if err != nil {
		g.metrics.MessagesSent.WithLabelValues("error").Inc()
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return tCtx.Send(g.t(ctx, "error.task_not_found"))
		case errors.Is(err, lifecycle.ErrInvalidTransition):
			return tCtx.Send(g.t(ctx, "error.invalid_transition"))
		default:
			g.log.ErrorContext(ctx, "failed to apply transition", "action", action, "task", taskID, "error", err)
			return tCtx.Send(g.t(ctx, "error.internal"))
		}
	}

	g.metrics.MessagesSent.WithLabelValues("text").Inc()
	return tCtx.Send(g.tWithData(ctx, successKey, map[string]interface{}{"number": task.TaskNumber}))
}
