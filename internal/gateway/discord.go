package gateway

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/rahul/campaigner/internal/agent"
)

// discordLimit is Discord's maximum message length.
const discordLimit = 2000

// DiscordGateway answers direct messages and messages that mention the bot.
type DiscordGateway struct {
	Session *discordgo.Session
	Brain   agent.Brain

	done     chan struct{}
	stopOnce sync.Once
}

func NewDiscordGateway(token string, brain agent.Brain) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	dg := &DiscordGateway{
		Session: session,
		Brain:   brain,
		done:    make(chan struct{}),
	}
	session.AddHandler(dg.onMessage)
	return dg, nil
}

// Start opens the websocket and blocks until Stop is called.
func (dg *DiscordGateway) Start() error {
	if err := dg.Session.Open(); err != nil {
		return err
	}
	log.Printf("Authorized on Discord as %s", dg.Session.State.User.Username)
	<-dg.done
	return nil
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	text, ok := addressedText(m.Content, m.GuildID == "", s.State.User.ID)
	if !ok {
		return
	}

	log.Printf("[discord] %s: %s", m.Author.Username, text)

	// one wizard per channel so DMs and guild threads keep separate drafts
	response := respond(context.Background(), dg.Brain, "discord-"+m.ChannelID, text)
	if err := dg.Send(m.ChannelID, response); err != nil {
		log.Printf("[discord] send failed: %v", err)
	}
}

// addressedText returns the message text meant for the bot. Direct messages
// are always addressed; guild messages only when they mention botID.
func addressedText(content string, direct bool, botID string) (string, bool) {
	if direct {
		return strings.TrimSpace(content), true
	}
	for _, mention := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		if strings.Contains(content, mention) {
			return strings.TrimSpace(strings.ReplaceAll(content, mention, "")), true
		}
	}
	return "", false
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	for _, part := range Chunk(text, discordLimit) {
		if _, err := dg.Session.ChannelMessageSend(chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (dg *DiscordGateway) Stop() error {
	dg.stopOnce.Do(func() { close(dg.done) })
	return dg.Session.Close()
}
