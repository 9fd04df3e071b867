/*
customid.go - Component custom ID codec

PURPOSE:
  Discord hands interaction components back to us identified only by a
  custom ID string. Every wizard step encodes which step it is and which
  session it belongs to in that ID, so a click can be routed without any
  message-side state. Stateless components (the leaderboard timeframe
  selects) encode just the step.

FORMAT:
  step[:session[:value]]     e.g.  sale-isp:0f0c.../...:Astound

  Session IDs are UUIDs and values are fixed choice labels, so neither
  ever contains a colon.
*/
package bot

import (
	"fmt"
	"strings"
)

// Wizard steps as they appear in component custom IDs.
const (
	StepSaleCustomer = "sale-customer" // customer name modal
	StepSaleISP      = "sale-isp"      // provider buttons, value = provider
	StepSalePlan     = "sale-plan"     // plan select menu
	StepBulkCount    = "bulk-count"    // bulk count modal
	StepBulkISP      = "bulk-isp"      // provider buttons, value = provider
	StepBoardRep     = "board-rep"     // rep leaderboard timeframe select
	StepBoardManager = "board-mgr"     // manager leaderboard timeframe select
)

// CustomID is the decoded form of a component custom ID.
type CustomID struct {
	Step    string
	Session string // wizard session, empty for stateless components
	Value   string // embedded choice for buttons; selects carry values separately
}

func (c CustomID) String() string {
	switch {
	case c.Value != "":
		return c.Step + ":" + c.Session + ":" + c.Value
	case c.Session != "":
		return c.Step + ":" + c.Session
	default:
		return c.Step
	}
}

// ParseCustomID decodes a component custom ID. IDs from other bots or
// stale message history that don't match the format are an error, not a
// panic.
func ParseCustomID(raw string) (CustomID, error) {
	if raw == "" {
		return CustomID{}, fmt.Errorf("empty custom id")
	}
	parts := strings.SplitN(raw, ":", 3)
	id := CustomID{Step: parts[0]}
	if len(parts) > 1 {
		id.Session = parts[1]
	}
	if len(parts) > 2 {
		id.Value = parts[2]
	}
	if id.Step == "" {
		return CustomID{}, fmt.Errorf("custom id %q has no step", raw)
	}
	return id, nil
}
