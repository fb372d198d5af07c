package storm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/TeamStorm/storm/commands"
	"github.com/TeamStorm/storm/config"
	"github.com/TeamStorm/storm/db"
	"github.com/TeamStorm/storm/messenger/discord"
	"github.com/TeamStorm/storm/stream"
	"github.com/TeamStorm/storm/stream/chaturbate"
	"github.com/TeamStorm/storm/stream/kick"
	"github.com/TeamStorm/storm/stream/mixer"
	"github.com/TeamStorm/storm/stream/mixlr"
	"github.com/TeamStorm/storm/stream/twitch"
	"github.com/TeamStorm/storm/tracker"
	"github.com/TeamStorm/storm/update"
	"github.com/TeamStorm/storm/watcher"
)

// Run is the main entry point that starts the tracker's interaction with
// the world. It manages cancellation through the c context parameter,
// i.e. Run will return when c.Done() is closed.
func Run(c context.Context, config *config.Config) error {
	db.Setup(c)

	streams, err := loadStreams(config)
	if err != nil {
		return err
	}

	dg, err := discordgo.New("Bot " + config.DiscordAPI)
	if err != nil {
		return fmt.Errorf("failed to create Discord client instance: %w", err)
	}

	m := discord.NewMessenger(dg)

	updaters, err := buildUpdaters(c, config)
	if err != nil {
		return err
	}

	co := update.NewCoordinator(streams, updaters)
	w := watcher.Periodic(co, time.Duration(config.PollIntervalSeconds)*time.Second)
	t := tracker.NewTracker(w, m, streams)
	h := commands.NewHandler(t)

	dg.AddHandler(func(s *discordgo.Session, mc *discordgo.MessageCreate) {
		if mc.Author.ID == s.State.User.ID {
			return
		}

		if mentionsBot(s, mc.Mentions) {
			h.Handle(c, mc.ChannelID, mc.Content, m)
		}
	})

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open a WebSocket connection: %w", err)
	}

	t.Track(c)

	return dg.Close()
}

// loadStreams reads the urls file and classifies its lines into the
// tracked stream set.
func loadStreams(config *config.Config) ([]*stream.Stream, error) {
	contents, err := os.ReadFile(config.URLsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read urls file: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(contents), "\r\n", "\n"), "\n")

	return stream.ClassifyMany(lines, config.CommentPrefix), nil
}

func buildUpdaters(c context.Context, config *config.Config) (map[stream.Provider]stream.Updater, error) {
	// The HTTP client is shared by every updater; each call threads its
	// own context through it.
	client := &http.Client{Timeout: 30 * time.Second}

	twitchOptions := func() twitch.Options {
		return twitch.Options{
			GraphQLAPI:           config.Twitch.GraphQLAPI,
			Headers:              config.Twitch.Headers,
			CommonHeaders:        config.CommonHeaders,
			UnwantedGameIDs:      config.Twitch.UnwantedGameIDs,
			UnwantedTopicIDs:     config.Twitch.UnwantedTopicIDs,
			EmbeddedPlayerFormat: config.Twitch.EmbeddedPlayerFormat,
		}
	}

	updaters := map[stream.Provider]stream.Updater{
		stream.Twitch:     twitch.NewUpdater(client, twitchOptions),
		stream.Chaturbate: chaturbate.NewUpdater(client),
		stream.Mixer:      mixer.NewUpdater(client),
		stream.Mixlr:      mixlr.NewUpdater(client),
	}

	if config.Kick.ClientID != "" {
		kickUpdater, err := kick.NewUpdater(c, kick.Options{
			ClientID:     config.Kick.ClientID,
			ClientSecret: config.Kick.ClientSecret,
		})
		if err != nil {
			return nil, err
		}

		updaters[stream.Kick] = kickUpdater
	}

	return updaters, nil
}

func mentionsBot(s *discordgo.Session, ms []*discordgo.User) bool {
	for _, u := range ms {
		if u.ID == s.State.User.ID {
			return true
		}
	}

	return false
}
