package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-survey-bot/internal/application"
	"telegram-survey-bot/internal/config"
	"telegram-survey-bot/internal/domain/ports/adapter"
	"telegram-survey-bot/internal/infra/i18n"
	"telegram-survey-bot/internal/infra/logging"
	red "telegram-survey-bot/internal/infra/redis"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates to
// BotFacade. Updates fan out to a fixed set of workers; the per-user
// serialization lives below this layer, in the conversation lock.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.MessageLimiter
	tr          *i18n.Translator
	log         *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	facade *application.BotFacade,
	rateLimiter *red.MessageLimiter,
	tr *i18n.Translator,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		rateLimiter:   rateLimiter,
		tr:            tr,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendMessage implements the adapter port.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(tgID, text)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil {
		return nil
	}
	tgUser := update.Message.From
	if tgUser == nil {
		return nil
	}
	tgID := tgUser.ID
	text := update.Message.Text

	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithTgID(ctx, tgID)

	// Basic rate limiting per user per command
	command := "message"
	if fields := strings.Fields(text); len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		command = fields[0]
	}
	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, tgID, command)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			return r.SendMessage(ctx, tgID, r.tr.T("rate_limited"))
		}
	}

	reply := r.replyTo(ctx, tgID, tgUser.UserName, command, text)
	if reply == "" {
		return nil
	}
	return r.SendMessage(ctx, tgID, reply)
}

// replyTo routes one inbound text to the facade and returns the outbound
// reply. Whitespace-only text is still text and goes to the engine, which
// answers with the stage's re-prompt; only updates with no text at all
// (stickers, photos) produce no reply.
func (r *RealTelegramBotAdapter) replyTo(ctx context.Context, tgID int64, username, command, text string) string {
	switch command {
	case "/start":
		reply, err := r.facade.HandleStart(ctx, tgID, username)
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("start handling failed")
			return r.tr.T("internal_error")
		}
		return reply

	case "/cancel":
		reply, err := r.facade.HandleCancel(ctx, tgID)
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("cancel handling failed")
			return r.tr.T("internal_error")
		}
		return reply

	case "/help":
		return r.facade.HandleHelp()

	default:
		if text == "" {
			return ""
		}
		reply, err := r.facade.HandleText(ctx, tgID, username, text)
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("message handling failed")
			return r.tr.T("internal_error")
		}
		return reply
	}
}
