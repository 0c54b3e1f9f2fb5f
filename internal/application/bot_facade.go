package application

import (
	"context"

	"telegram-survey-bot/internal/infra/i18n"
	"telegram-survey-bot/internal/usecase"
)

// BotFacade composes the conversation use case into high-level bot commands.
// Facade methods return strings so the Telegram adapter just forwards them
// to the chat.
type BotFacade struct {
	ConvUC usecase.ConversationUseCase
	tr     *i18n.Translator
}

func NewBotFacade(convUC usecase.ConversationUseCase, tr *i18n.Translator) *BotFacade {
	return &BotFacade{ConvUC: convUC, tr: tr}
}

// HandleStart resolves first contact into registration or survey selection.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, username string) (string, error) {
	return b.ConvUC.HandleStart(ctx, tgID, username)
}

// HandleText feeds a plain text message into the conversation.
func (b *BotFacade) HandleText(ctx context.Context, tgID int64, username, text string) (string, error) {
	return b.ConvUC.HandleMessage(ctx, tgID, username, text)
}

// HandleCancel resets the user's conversation.
func (b *BotFacade) HandleCancel(ctx context.Context, tgID int64) (string, error) {
	return b.ConvUC.HandleCancel(ctx, tgID)
}

// HandleHelp lists the available commands.
func (b *BotFacade) HandleHelp() string {
	return b.tr.T("help")
}
