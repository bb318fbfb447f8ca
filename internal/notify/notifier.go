package notify

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Notifier is the outbound message sink. Implementations are best-effort:
// delivery failure is the caller's signal to log, never to abort.
type Notifier interface {
	DMUser(userID, content string) error
	SendToChannel(channelID, content string) error
	SendEmbedToChannel(channelID string, embed *discordgo.MessageEmbed) error
}

// DiscordNotifier sends messages through a live gateway session.
type DiscordNotifier struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewDiscordNotifier creates the notifier.
func NewDiscordNotifier(session *discordgo.Session, logger *zap.Logger) *DiscordNotifier {
	return &DiscordNotifier{session: session, logger: logger}
}

// DMUser opens (or reuses) a DM channel and sends content. Users with DMs
// disabled surface an error here; callers treat that as a warning.
func (n *DiscordNotifier) DMUser(userID, content string) error {
	channel, err := n.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = n.session.ChannelMessageSend(channel.ID, content)
	return err
}

// SendToChannel posts plain content into a channel.
func (n *DiscordNotifier) SendToChannel(channelID, content string) error {
	_, err := n.session.ChannelMessageSend(channelID, content)
	return err
}

// SendEmbedToChannel posts an embed into a channel.
func (n *DiscordNotifier) SendEmbedToChannel(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := n.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}
