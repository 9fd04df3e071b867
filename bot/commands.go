/*
commands.go - Slash command definitions and registration

PURPOSE:
  The command surface, declared once and pushed with a bulk overwrite so
  removed commands disappear instead of lingering. With a dev guild ID
  the overwrite targets that guild and takes effect immediately; global
  registration can take up to an hour to propagate.
*/
package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Commands returns every slash command this bot serves.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "sale", Description: "Log a new sale (#sales or #managers)"},
		{Name: "bulksale", Description: "Log a batch of dealer sales (dealer channels only)"},
		{Name: "leaderboard", Description: "Show leaderboard: Daily, Monthly, or YTD (#sales or #managers)"},
		{Name: "managerboard", Description: "Show manager leaderboard: Daily, Monthly, or YTD (#sales or #managers)"},
		{Name: "mysales", Description: "View your sales: Daily, Monthly, YTD (#sales or #managers)"},
		{Name: "totals", Description: "Global sales totals (#managers, admin only)"},
		{Name: "whoami", Description: "Show the Discord ID the roster needs for you"},
		{Name: "reset", Description: "Reset bot (admin only) — does NOT delete Google Sheet rows"},
	}
}

// RegisterCommands bulk-overwrites the command set for one guild, or
// globally when guildID is empty.
func RegisterCommands(s *discordgo.Session, appID, guildID string) error {
	if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, Commands()); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	return nil
}
