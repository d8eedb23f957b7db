// Package bot implements the Telegram gateway: it translates domain events
// into outbound chat messages and inbound button callbacks into task
// lifecycle transitions.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abdallaazouz/handy-man-sub000/internal/i18n"
	"github.com/abdallaazouz/handy-man-sub000/internal/lifecycle"
	"github.com/abdallaazouz/handy-man-sub000/internal/metrics"
	"github.com/abdallaazouz/handy-man-sub000/internal/relay"
	"github.com/abdallaazouz/handy-man-sub000/internal/storage"
	"gopkg.in/telebot.v4"
)

// Inline button actions routed back into the task lifecycle.
var (
	btnAcceptTask   = telebot.InlineButton{Unique: "accept_task"}
	btnRejectTask   = telebot.InlineButton{Unique: "reject_task"}
	btnCompleteTask = telebot.InlineButton{Unique: "complete_task"}
)

// Gateway wraps a telebot instance whose lifetime is controlled at runtime:
// the bot is started from the persisted bot settings and can be re-initialized
// with a new token without restarting the server. There is one Gateway per
// process.
type Gateway struct {
	store      storage.Store
	relay      *relay.Relay
	controller *lifecycle.Controller
	localizer  *i18n.Localizer
	metrics    *metrics.Metrics
	log        *slog.Logger
	poller     time.Duration

	mu  sync.Mutex
	bot *telebot.Bot
}

// NewGateway creates a disconnected Gateway. Call Initialize with a token to
// connect it.
func NewGateway(
	store storage.Store,
	rel *relay.Relay,
	controller *lifecycle.Controller,
	localizer *i18n.Localizer,
	appMetrics *metrics.Metrics,
	log *slog.Logger,
	poller time.Duration,
) *Gateway {
	return &Gateway{
		store:      store,
		relay:      rel,
		controller: controller,
		localizer:  localizer,
		metrics:    appMetrics,
		log:        log,
		poller:     poller,
	}
}

// Initialize connects the gateway using the given token, replacing any prior
// connection. An invalid token is reported as an error and leaves the gateway
// in its previous state.
func (g *Gateway) Initialize(token string) error {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: g.poller},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	g.registerRoutes(bot)

	g.mu.Lock()
	prev := g.bot
	g.bot = bot
	g.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}

	go bot.Start()
	g.log.Info("Telegram bot connected", "account", bot.Me.Username)
	return nil
}

// Stop tears down the connection. It is safe to call when not connected.
func (g *Gateway) Stop() {
	g.mu.Lock()
	bot := g.bot
	g.bot = nil
	g.mu.Unlock()

	if bot != nil {
		bot.Stop()
		g.log.Info("Telegram bot stopped")
	}
}

// Status reports whether the gateway is connected and, if so, the bot
// account username.
func (g *Gateway) Status() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.bot == nil {
		return false, ""
	}
	return true, g.bot.Me.Username
}

// current returns the live bot instance or nil when disconnected.
func (g *Gateway) current() *telebot.Bot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bot
}

// registerRoutes configures commands and callback handlers.
func (g *Gateway) registerRoutes(bot *telebot.Bot) {
	bot.Handle("/start", g.startHandler)
	bot.Handle(telebot.OnText, g.textHandler)

	bot.Handle(&btnAcceptTask, g.acceptHandler)
	bot.Handle(&btnRejectTask, g.rejectHandler)
	bot.Handle(&btnCompleteTask, g.completeHandler)
}

// language resolves the display language from the system settings at
// time-of-send, so admin changes apply to the next message.
func (g *Gateway) language(ctx context.Context) string {
	settings, err := g.store.GetSystemSettings(ctx)
	if err != nil {
		g.log.WarnContext(ctx, "failed to load system settings, using default language", "error", err)
		return i18n.DefaultLanguage
	}
	return i18n.NormalizeLanguageCode(settings.Language)
}

// t is a shorthand for a translated message.
func (g *Gateway) t(ctx context.Context, key string) string {
	return g.localizer.Get(g.language(ctx), key)
}

// tWithData is a shorthand for a translated message with placeholder data.
func (g *Gateway) tWithData(ctx context.Context, key string, data map[string]interface{}) string {
	return g.localizer.GetWithData(g.language(ctx), key, data)
}
