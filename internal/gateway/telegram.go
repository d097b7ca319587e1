package gateway

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/campaigner/internal/agent"
)

// telegramLimit is Telegram's maximum message length.
const telegramLimit = 4096

type TelegramGateway struct {
	Bot   *tgbotapi.BotAPI
	Brain agent.Brain
	// Allowed restricts which chats are served. Empty allows everyone.
	Allowed map[int64]bool
}

func NewTelegramGateway(token string, brain agent.Brain, allowed []int64) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	tg := &TelegramGateway{
		Bot:     bot,
		Brain:   brain,
		Allowed: make(map[int64]bool, len(allowed)),
	}
	for _, id := range allowed {
		tg.Allowed[id] = true
	}
	return tg, nil
}

func (tg *TelegramGateway) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		chat := update.Message.Chat.ID
		if len(tg.Allowed) > 0 && !tg.Allowed[chat] {
			log.Printf("[telegram] ignoring chat %d", chat)
			continue
		}

		log.Printf("[telegram] %s: %s", update.Message.From.UserName, update.Message.Text)

		response := respond(context.Background(), tg.Brain, strconv.FormatInt(chat, 10), update.Message.Text)
		for _, part := range Chunk(response, telegramLimit) {
			if _, err := tg.Bot.Send(tgbotapi.NewMessage(chat, part)); err != nil {
				log.Printf("[telegram] send failed: %v", err)
			}
		}
	}
	return nil
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	for _, part := range Chunk(text, telegramLimit) {
		if _, err := tg.Bot.Send(tgbotapi.NewMessage(id, part)); err != nil {
			return err
		}
	}
	return nil
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}
