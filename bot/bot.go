/*
bot.go - Discord gateway lifecycle

PURPOSE:
  Owns the discordgo session: connect, register commands, route
  interaction events, disconnect. All sale semantics live in the wizard
  engine and ledger; this layer is transport.

CONCURRENCY:
  discordgo dispatches each gateway event on its own goroutine. Handlers
  therefore share nothing mutable except the engine's session registry
  and the roster cache, both of which guard themselves.

SEE ALSO:
  - handlers.go: the interaction router
  - cmd/salesbison: startup and shutdown ordering
*/
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/bisonhq/salesbison/config"
	"github.com/bisonhq/salesbison/ledger"
	"github.com/bisonhq/salesbison/roster"
	"github.com/bisonhq/salesbison/wizard"
)

// opTimeout bounds the sheet I/O behind a single interaction. Discord
// keeps an interaction token usable for fifteen minutes; anything this
// slow is already failed from the user's point of view.
const opTimeout = 15 * time.Second

// Options wires the bot's collaborators. Everything but Logger is
// required.
type Options struct {
	Conf   *config.Config
	Engine *wizard.Engine
	Ledger *ledger.Ledger
	Roster *roster.Cache
	Logger *slog.Logger // defaults to slog.Default()
}

// Bot is one gateway connection serving the command surface.
type Bot struct {
	session *discordgo.Session
	gate    *Gate
	engine  *wizard.Engine
	ledger  *ledger.Ledger
	roster  *roster.Cache
	conf    *config.Config
	log     *slog.Logger
}

// New builds the bot and its gateway session without connecting.
func New(opts Options) (*Bot, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	session, err := discordgo.New("Bot " + opts.Conf.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	b := &Bot{
		session: session,
		gate:    NewGate(opts.Conf),
		engine:  opts.Engine,
		ledger:  opts.Ledger,
		roster:  opts.Roster,
		conf:    opts.Conf,
		log:     opts.Logger,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Start connects to the gateway and pushes the command set.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening gateway: %w", err)
	}
	if err := RegisterCommands(b.session, b.conf.DiscordAppID, b.conf.DevGuildID); err != nil {
		b.session.Close()
		return err
	}
	return nil
}

// Stop disconnects from the gateway.
func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	sync := "global sync"
	if b.conf.DevGuildID != "" {
		sync = "guild sync"
	}
	b.log.Info(fmt.Sprintf("Bot is live as %s (%s)", r.User.Username, sync))
}

// opCtx bounds one interaction's backend work.
func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}
