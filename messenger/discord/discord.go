package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/TeamStorm/storm/messenger"
	"github.com/TeamStorm/storm/stream"
)

type Messenger struct {
	s *discordgo.Session
}

func NewMessenger(s *discordgo.Session) messenger.Messenger {
	return &Messenger{
		s: s,
	}
}

func (m *Messenger) MessageStream(c context.Context, roomID string, s *stream.Stream) error {
	title := fmt.Sprintf("%s Went Live!", s.DisplayName)
	if !strings.EqualFold(s.Name, s.DisplayName) {
		title = fmt.Sprintf("%s (%s) Went Live!",
			strings.Replace(s.DisplayName, "_", "\\_", -1),
			strings.Replace(s.Name, "_", "\\_", -1))
	}

	fields := make([]*discordgo.MessageEmbedField, 0, 2)
	if s.Game != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Playing",
			Value:  s.Game.Name,
			Inline: true,
		})
	}
	if s.ViewersCount != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Viewers",
			Value:  fmt.Sprintf("%d", *s.ViewersCount),
			Inline: true,
		})
	}

	_, err := m.s.ChannelMessageSendEmbed(roomID, &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("[%s](%s)", s.URI.Host, s.URI),
		Fields:      fields,
		Color:       0x00aa00,
		Author: &discordgo.MessageEmbedAuthor{
			Name: s.Provider.String(),
			URL:  s.URI.String(),
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Live since",
		},
	})

	return err
}

func (m *Messenger) MessageStreamList(c context.Context, roomID string, ss []*stream.Stream) error {
	fields := make([]*discordgo.MessageEmbedField, 0)
	for _, s := range ss {
		value := fmt.Sprintf("[%s](%s)", s.Provider, s.URI)
		if s.Game != nil {
			value = fmt.Sprintf("[%s — %s](%s)", s.Provider, s.Game.Name, s.URI)
		}

		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  s.DisplayName,
			Value: value,
		})
	}

	_, err := m.s.ChannelMessageSendEmbed(roomID, &discordgo.MessageEmbed{
		Title:  "Currently Live",
		Fields: fields,
	})

	return err
}

func (m *Messenger) MessageText(c context.Context, roomID, text string) error {
	_, err := m.s.ChannelMessageSend(roomID, text)

	return err
}
