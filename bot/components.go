/*
components.go - Interactive component builders

PURPOSE:
  The buttons, select menus, and modals that drive the wizards. Each
  component's custom ID carries its step and session so the handler can
  route a click back to the right wizard without message-side state.

  Choice sets come straight from the ledger package. Adding a provider
  there adds its button here.
*/
package bot

import (
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/bisonhq/salesbison/ledger"
	"github.com/bisonhq/salesbison/wizard"
)

// Discord allows at most five buttons per action row.
const buttonsPerRow = 5

// ProviderButtons renders one button per provider, chunked into rows,
// each carrying its provider in the custom ID.
func ProviderButtons(step, sessionID string) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var current []discordgo.MessageComponent
	for _, isp := range ledger.Providers {
		current = append(current, discordgo.Button{
			Label:    isp,
			Style:    discordgo.PrimaryButton,
			CustomID: CustomID{Step: step, Session: sessionID, Value: isp}.String(),
		})
		if len(current) == buttonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: current})
			current = nil
		}
	}
	if len(current) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: current})
	}
	return rows
}

// PlanSelect renders the plan menu for the final sale step.
func PlanSelect(sessionID string) []discordgo.MessageComponent {
	one := 1
	options := make([]discordgo.SelectMenuOption, 0, len(ledger.Plans))
	for _, plan := range ledger.Plans {
		options = append(options, discordgo.SelectMenuOption{Label: plan, Value: plan})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    CustomID{Step: StepSalePlan, Session: sessionID}.String(),
				Placeholder: "Choose a plan…",
				MinValues:   &one,
				MaxValues:   1,
				Options:     options,
			},
		}},
	}
}

// WindowSelect renders the leaderboard timeframe menu. The step decides
// rep vs. manager grouping; the selected value decides the window.
func WindowSelect(step string) []discordgo.MessageComponent {
	one := 1
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    CustomID{Step: step}.String(),
				Placeholder: "Choose leaderboard timeframe…",
				MinValues:   &one,
				MaxValues:   1,
				Options: []discordgo.SelectMenuOption{
					{Label: "Daily", Value: string(ledger.WindowDaily), Description: "Today only"},
					{Label: "Monthly", Value: string(ledger.WindowMonthly), Description: "This month"},
					{Label: "YTD", Value: string(ledger.WindowYTD), Description: "Year-to-date"},
				},
			},
		}},
	}
}

// CustomerModal is the free-text step that opens a sale.
func CustomerModal(sessionID string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: CustomID{Step: StepSaleCustomer, Session: sessionID}.String(),
		Title:    "Enter Customer Name",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    "customer_name",
					Label:       "Customer Name",
					Style:       discordgo.TextInputShort,
					Placeholder: "John Doe",
					Required:    true,
					MaxLength:   ledger.MaxCustomerLen,
				},
			}},
		},
	}
}

// CountModal is the quantity step that opens a dealer bulk entry.
func CountModal(sessionID string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: CustomID{Step: StepBulkCount, Session: sessionID}.String(),
		Title:    "Enter Sale Count",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    "count",
					Label:       "Number of Sales",
					Style:       discordgo.TextInputShort,
					Placeholder: "25",
					Required:    true,
					MaxLength:   len(strconv.Itoa(wizard.MaxBulkCount)),
				},
			}},
		},
	}
}
