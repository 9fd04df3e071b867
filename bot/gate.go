/*
gate.go - Channel and permission checks

PURPOSE:
  Every command and every wizard step passes through the gate before any
  work happens. Commands are restricted to configured channels; a wizard
  step re-checks even though the originating command already passed,
  because the originating check happened steps (and possibly minutes)
  earlier.

GATE CLASSES:
  General  - #sales or #managers (most commands)
  Dealer   - configured dealer channels only (bulk logging)
  Managers - #managers only (totals)
  Admin    - Discord administrator permission (reset, totals)

SEE ALSO:
  - config: the channel sets and dealer labels
  - handlers.go: where each command picks its gate class
*/
package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/bisonhq/salesbison/config"
	"github.com/bisonhq/salesbison/ledger"
)

// GateError carries the exact corrective line shown to the user.
type GateError struct {
	Msg string
}

func (e *GateError) Error() string { return e.Msg }

func (e *GateError) Unwrap() error { return ledger.ErrAccessDenied }

// Gate evaluates channel and permission restrictions against the loaded
// configuration.
type Gate struct {
	conf *config.Config
}

func NewGate(conf *config.Config) *Gate {
	return &Gate{conf: conf}
}

// General admits #sales and #managers.
func (g *Gate) General(channelID string) error {
	if g.conf.GeneralChannel(channelID) {
		return nil
	}
	return &GateError{Msg: "This bot only works in **#sales** or **#managers**."}
}

// Dealer admits configured dealer channels and returns the channel's
// dealer-group label.
func (g *Gate) Dealer(channelID string) (string, error) {
	if label, ok := g.conf.DealerLabel(channelID); ok {
		return label, nil
	}
	return "", &GateError{Msg: "Bulk logging only works in a dealer channel."}
}

// Managers admits #managers only.
func (g *Gate) Managers(channelID string) error {
	if channelID == g.conf.ManagersChannelID {
		return nil
	}
	return &GateError{Msg: "This command only works in **#managers**."}
}

// Admin checks the invoker's permission bits for Administrator.
func (g *Gate) Admin(permissions int64) error {
	if permissions&discordgo.PermissionAdministrator != 0 {
		return nil
	}
	return &GateError{Msg: "Admin only."}
}
