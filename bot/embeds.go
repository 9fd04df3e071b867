/*
embeds.go - Reply formatting

PURPOSE:
  Every embed and message body the bot sends, built as pure functions so
  formatting is testable without a gateway connection. Wording and field
  layout here are load-bearing: the sales team reads these all day.

SEE ALSO:
  - handlers.go: chooses which embed answers which interaction
*/
package bot

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/bisonhq/salesbison/ledger"
	"github.com/bisonhq/salesbison/roster"
	"github.com/bisonhq/salesbison/wizard"
)

// MaxLeaderboardRows caps how many ranks one leaderboard embed lists.
const MaxLeaderboardRows = 25

// Embed colors. Discord renders these as the side stripe.
const (
	colorBlurple = 0x5865F2
	colorGreen   = 0x2ECC71
	colorGold    = 0xF1C40F
	colorBlue    = 0x3498DB
	colorRed     = 0xE74C3C
)

var medals = []string{"🥇", "🥈", "🥉"}

// CustomerReceivedEmbed acknowledges the customer name and asks for the
// provider.
func CustomerReceivedEmbed(customer string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Customer received",
		Description: fmt.Sprintf("**%s**\n\nSelect ISP:", customer),
		Color:       colorBlurple,
	}
}

// ISPSelectedEmbed acknowledges the provider and asks for the plan.
func ISPSelectedEmbed(isp string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "ISP selected",
		Description: fmt.Sprintf("**%s**\n\nChoose plan:", isp),
		Color:       colorGreen,
	}
}

// CountReceivedEmbed acknowledges the bulk quantity and asks for the
// provider.
func CountReceivedEmbed(count int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Count received",
		Description: fmt.Sprintf("**%d** sales\n\nSelect ISP:", count),
		Color:       colorBlurple,
	}
}

// SaleLoggedEmbed is the public confirmation after a committed sale.
// The daily count comes from a fresh sheet read; when that read failed
// the sale still landed and the count shows as n/a.
func SaleLoggedEmbed(rec ledger.SaleRecord, daily int, countKnown bool) *discordgo.MessageEmbed {
	today := "n/a"
	if countKnown {
		today = strconv.Itoa(daily)
	}
	return &discordgo.MessageEmbed{
		Title: "✅ Sale Logged!",
		Color: colorGold,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rep", Value: rec.RepName, Inline: false},
			{Name: "Customer", Value: rec.Customer, Inline: false},
			{Name: "ISP", Value: rec.ISP, Inline: true},
			{Name: "Plan", Value: rec.Plan, Inline: true},
			{Name: "Today's Sales", Value: today, Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Logged to Google Sheets"},
	}
}

// BulkLoggedEmbed is the public confirmation after a committed dealer
// batch.
func BulkLoggedEmbed(res wizard.BulkResult) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "✅ Bulk Sales Logged!",
		Color: colorGold,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Count", Value: strconv.Itoa(res.Count), Inline: true},
			{Name: "ISP", Value: res.ISP, Inline: true},
			{Name: "Dealer Group", Value: res.DealerLabel, Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Logged to Google Sheets"},
	}
}

// LeaderboardPromptEmbed asks for a timeframe before any sheet read.
func LeaderboardPromptEmbed(title string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: "Pick a timeframe:",
		Color:       colorBlurple,
	}
}

// LeaderboardTitle names a board for one window. Manager boards get
// their own wording so a screenshot is unambiguous.
func LeaderboardTitle(w ledger.Window, manager bool) string {
	var frame string
	switch w {
	case ledger.WindowDaily:
		frame = "Daily"
	case ledger.WindowMonthly:
		frame = "Monthly"
	case ledger.WindowYTD:
		frame = "YTD"
	default:
		frame = "All-Time"
	}
	if manager {
		return fmt.Sprintf("🏆 %s Manager Leaderboard", frame)
	}
	return fmt.Sprintf("🏆 %s Leaderboard", frame)
}

// LeaderboardEmbed renders ranked groups with medals for the top three
// and #n beyond. Callers pass groups already ranked and capped.
func LeaderboardEmbed(title string, ranked []ledger.GroupCount) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  title,
		Color:  colorGold,
		Footer: &discordgo.MessageEmbedFooter{Text: "Counts pulled from Google Sheets"},
	}
	for idx, g := range ranked {
		icon := fmt.Sprintf("#%d", idx+1)
		if idx < len(medals) {
			icon = medals[idx]
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s %s", icon, g.Label),
			Value:  fmt.Sprintf("**%d** sales", g.Count),
			Inline: false,
		})
	}
	return embed
}

// MySalesEmbed is the caller's private daily/monthly/ytd summary.
func MySalesEmbed(daily, monthly, ytd int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📊 Your Sales",
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Daily", Value: strconv.Itoa(daily), Inline: true},
			{Name: "Monthly", Value: strconv.Itoa(monthly), Inline: true},
			{Name: "YTD", Value: strconv.Itoa(ytd), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Counts pulled from Google Sheets"},
	}
}

// TotalsEmbed is the org-wide rollup for managers, dealer rows included.
func TotalsEmbed(daily, monthly, ytd, allTime int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📈 Sales Totals",
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Today", Value: strconv.Itoa(daily), Inline: true},
			{Name: "This Month", Value: strconv.Itoa(monthly), Inline: true},
			{Name: "Year to Date", Value: strconv.Itoa(ytd), Inline: true},
			{Name: "All Time", Value: strconv.Itoa(allTime), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Counts pulled from Google Sheets"},
	}
}

// ResetEmbed confirms an admin reset. The wording spells out what was
// NOT touched because that is the question every admin asks.
func ResetEmbed(dropped int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🧹 Reset complete",
		Description: "Bot state reset. Google Sheet data was NOT changed.",
		Color:       colorRed,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d open entries discarded", dropped)},
	}
}

// WhoamiMessage reports the invoker's raw Discord ID for roster
// provisioning, plus their roster standing when known.
func WhoamiMessage(userID string, entry roster.Entry, found bool) string {
	head := fmt.Sprintf("Your Discord ID: `%s`", userID)
	if !found {
		return head + "\nYou're not on the roster yet. Give this ID to a manager to be added."
	}
	manager := entry.Manager
	if manager == "" {
		manager = ledger.ManagerUnassigned
	}
	if !entry.Active {
		return head + fmt.Sprintf("\nRoster: %s (manager: %s), currently marked **inactive**.", entry.RepName, manager)
	}
	return head + fmt.Sprintf("\nRoster: %s (manager: %s).", entry.RepName, manager)
}

// NoSalesMessage is the empty-leaderboard reply.
const NoSalesMessage = "No sales found for that timeframe."
