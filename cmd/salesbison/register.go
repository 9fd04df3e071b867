/*
register.go - One-shot slash-command registration

PURPOSE:
  Pushes the command set to Discord over REST and exits, without
  opening a gateway connection. serve re-registers on every boot, so
  this exists for CI and for flipping between guild and global
  registration.
*/
package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/bisonhq/salesbison/bot"
	"github.com/bisonhq/salesbison/config"
)

type registerOptions struct {
	root   *rootOptions
	global bool
}

func newRegisterCommand(root *rootOptions) *cobra.Command {
	opts := &registerOptions{root: root}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Push the slash-command set to Discord and exit",
		Long: `register overwrites the application's slash commands over REST. By
default it targets DEV_GUILD_ID when set (instant propagation);
--global registers globally instead, which Discord can take up to an
hour to propagate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.global, "global", false, "register globally even when DEV_GUILD_ID is set")

	return cmd
}

func runRegister(opts *registerOptions) error {
	cfg, err := config.Load(opts.root.configFile)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, opts.root)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("creating discord session: %w", err)
	}

	guildID := cfg.DevGuildID
	if opts.global {
		guildID = ""
	}

	if err := bot.RegisterCommands(session, cfg.DiscordAppID, guildID); err != nil {
		return err
	}

	scope := "globally"
	if guildID != "" {
		scope = "to guild " + guildID
	}
	logger.Info("commands registered", "count", len(bot.Commands()), "scope", scope)
	return nil
}
