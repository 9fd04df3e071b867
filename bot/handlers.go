/*
handlers.go - Interaction routing

PURPOSE:
  Routes every InteractionCreate event to the right command, component,
  or modal handler, and maps domain errors onto user replies. Handlers
  hold no sale logic: they gate, translate the event into an engine or
  ledger call, and render the result.

COMMAND SURFACE:
  /sale          modal -> provider buttons -> plan select -> public confirmation
  /bulksale      count modal -> provider buttons -> public confirmation
  /leaderboard   timeframe select -> per-rep ranking, dealer rows excluded
  /managerboard  timeframe select -> per-manager ranking, all rows
  /mysales       private daily/monthly/ytd for the caller
  /totals        managers channel + admin, org-wide counts
  /whoami        private raw Discord ID for roster provisioning
  /reset         admin, drops wizard sessions, sheet untouched

ERROR MAPPING:
  User-caused failures (wrong channel, bad input, expired session,
  unknown rep) answer with a short ephemeral corrective line. Backend
  failures log with detail and answer with a retry hint; the wizard
  engine keeps the session alive for those, so "pick the last option
  again" is literal.

SEE ALSO:
  - gate.go:   the channel/permission checks applied here
  - embeds.go: the reply bodies
*/
package bot

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/bisonhq/salesbison/ledger"
)

// =============================================================================
// ROUTER
// =============================================================================

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var err error
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		err = b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		err = b.handleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		err = b.handleModal(s, i)
	default:
		return
	}
	if err != nil {
		b.replyErr(s, i, err)
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	name := i.ApplicationCommandData().Name
	b.log.Debug("command received", "command", name, "channel", i.ChannelID)

	switch name {
	case "sale":
		return b.cmdSale(s, i)
	case "bulksale":
		return b.cmdBulkSale(s, i)
	case "leaderboard":
		return b.cmdLeaderboard(s, i, false)
	case "managerboard":
		return b.cmdLeaderboard(s, i, true)
	case "mysales":
		return b.cmdMySales(s, i)
	case "totals":
		return b.cmdTotals(s, i)
	case "whoami":
		return b.cmdWhoami(s, i)
	case "reset":
		return b.cmdReset(s, i)
	default:
		b.log.Warn("unknown command", "command", name)
		return nil
	}
}

func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	cid, err := ParseCustomID(i.MessageComponentData().CustomID)
	if err != nil {
		b.log.Warn("unroutable component", "custom_id", i.MessageComponentData().CustomID)
		return nil
	}

	switch cid.Step {
	case StepSaleISP:
		return b.saleProvider(s, i, cid)
	case StepSalePlan:
		return b.salePlan(s, i, cid)
	case StepBulkISP:
		return b.bulkProvider(s, i, cid)
	case StepBoardRep:
		return b.boardSelect(s, i, false)
	case StepBoardManager:
		return b.boardSelect(s, i, true)
	default:
		return nil
	}
}

func (b *Bot) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()
	cid, err := ParseCustomID(data.CustomID)
	if err != nil {
		b.log.Warn("unroutable modal", "custom_id", data.CustomID)
		return nil
	}

	switch cid.Step {
	case StepSaleCustomer:
		return b.saleCustomer(s, i, cid, modalValue(data))
	case StepBulkCount:
		return b.bulkCount(s, i, cid, modalValue(data))
	default:
		return nil
	}
}

// =============================================================================
// SALE FLOW
// =============================================================================

func (b *Bot) cmdSale(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := b.gate.General(i.ChannelID); err != nil {
		return err
	}
	_, uid, err := invoker(i)
	if err != nil {
		return err
	}

	sess := b.engine.StartSale(uid, displayName(i), i.ChannelID)
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: CustomerModal(sess.ID),
	})
}

func (b *Bot) saleCustomer(s *discordgo.Session, i *discordgo.InteractionCreate, cid CustomID, text string) error {
	if err := b.gate.General(i.ChannelID); err != nil {
		return err
	}
	_, uid, err := invoker(i)
	if err != nil {
		return err
	}

	sess, err := b.engine.SubmitCustomer(cid.Session, uid, text)
	if err != nil {
		return err
	}
	return respond(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{CustomerReceivedEmbed(sess.Customer)},
		Components: ProviderButtons(StepSaleISP, sess.ID),
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) saleProvider(s *discordgo.Session, i *discordgo.InteractionCreate, cid CustomID) error {
	if err := b.gate.General(i.ChannelID); err != nil {
		return err
	}
	_, uid, err := invoker(i)
	if err != nil {
		return err
	}

	sess, err := b.engine.ChooseProvider(cid.Session, uid, cid.Value)
	if err != nil {
		return err
	}
	return respond(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{ISPSelectedEmbed(sess.ISP)},
		Components: PlanSelect(sess.ID),
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) salePlan(s *discordgo.Session, i *discordgo.InteractionCreate, cid CustomID) error {
	if err := b.gate.General(i.ChannelID); err != nil {
		return err
	}
	_, uid, err := invoker(i)
	if err != nil {
		return err
	}
	plan, err := selectedValue(i)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	res, err := b.engine.CommitSale(ctx, cid.Session, uid, plan)
	if err != nil {
		return err
	}

	// Public on purpose: the team sees each other's sales land.
	return respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{SaleLoggedEmbed(res.Record, res.DailyCount, res.CountKnown)},
	})
}

// =============================================================================
// BULK FLOW
// =============================================================================

func (b *Bot) cmdBulkSale(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	label, err := b.gate.Dealer(i.ChannelID)
	if err != nil {
		return err
	}
	_, uid, err := invoker(i)
	if err != nil {
		return err
	}

	sess := b.engine.StartBulk(uid, displayName(i), i.ChannelID, label)
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: CountModal(sess.ID),
	})
}

func (b *Bot) bulkCount(s *discordgo.Session, i *discordgo.InteractionCreate, cid CustomID, text string) error {
	if _, err := b.gate.Dealer(i.ChannelID); err != nil {
		return err
	}
	_, uid, err := invoker(i)
	if err != nil {
		return err
	}

	sess, err := b.engine.SubmitCount(cid.Session, uid, text)
	if err != nil {
		return err
	}
	return respond(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{CountReceivedEmbed(sess.Count)},
		Components: ProviderButtons(StepBulkISP, sess.ID),
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) bulkProvider(s *discordgo.Session, i *discordgo.InteractionCreate, cid CustomID) error {
	if _, err := b.gate.Dealer(i.ChannelID); err != nil {
		return err
	}
	_, uid, err := invoker(i)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	res, err := b.engine.CommitBulk(ctx, cid.Session, uid, cid.Value)
	if err != nil {
		return err
	}
	return respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{BulkLoggedEmbed(res)},
	})
}

// =============================================================================
// LEADERBOARDS
// =============================================================================

func (b *Bot) cmdLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate, manager bool) error {
	if err := b.gate.General(i.ChannelID); err != nil {
		return err
	}

	title, step := "Leaderboard", StepBoardRep
	if manager {
		title, step = "Manager Leaderboard", StepBoardManager
	}
	return respond(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{LeaderboardPromptEmbed(title)},
		Components: WindowSelect(step),
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) boardSelect(s *discordgo.Session, i *discordgo.InteractionCreate, manager bool) error {
	if err := b.gate.General(i.ChannelID); err != nil {
		return err
	}
	raw, err := selectedValue(i)
	if err != nil {
		return err
	}
	window, err := ledger.ParseWindow(raw)
	if err != nil {
		return err
	}

	// Defer before touching the sheet; the gateway only waits 3 seconds.
	if err := deferPublic(s, i); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	q := ledger.CountQuery{
		Now:     time.Now(),
		Window:  window,
		GroupBy: ledger.GroupByRep,
		Exclude: ledger.IsDealerRow,
	}
	if manager {
		q.GroupBy = ledger.GroupByManager
		q.Exclude = nil
	}
	counts, err := b.ledger.Counts(ctx, q)
	if err != nil {
		return err
	}

	ranked := counts.Top(MaxLeaderboardRows)
	if len(ranked) == 0 {
		_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: NoSalesMessage,
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		return err
	}

	embed := LeaderboardEmbed(LeaderboardTitle(window, manager), ranked)
	_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	return err
}

// =============================================================================
// PERSONAL AND GLOBAL COUNTS
// =============================================================================

func (b *Bot) cmdMySales(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := b.gate.General(i.ChannelID); err != nil {
		return err
	}
	_, uid, err := invoker(i)
	if err != nil {
		return err
	}

	if err := deferEphemeral(s, i); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()

	// Legacy rows are keyed by sheet name, so prefer the roster spelling
	// of this rep's name over whatever Discord shows today.
	name := displayName(i)
	if entry, found, err := b.roster.Resolve(ctx, uid); err == nil && found {
		name = entry.RepName
	}

	recs, err := b.ledger.Records(ctx)
	if err != nil {
		return err
	}
	pc := ledger.RepCounts(recs, time.Now(), uid, name)

	embed := MySalesEmbed(pc.Daily, pc.Monthly, pc.YTD)
	_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	return err
}

func (b *Bot) cmdTotals(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := b.gate.Managers(i.ChannelID); err != nil {
		return err
	}
	if err := b.gate.Admin(permissions(i)); err != nil {
		return err
	}

	if err := deferEphemeral(s, i); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	recs, err := b.ledger.Records(ctx)
	if err != nil {
		return err
	}
	g := ledger.GlobalTotals(recs, time.Now())

	embed := TotalsEmbed(g.Daily, g.Monthly, g.YTD, g.AllTime)
	_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	return err
}

// =============================================================================
// PROVISIONING AND RESET
// =============================================================================

func (b *Bot) cmdWhoami(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := b.gate.General(i.ChannelID); err != nil {
		return err
	}
	user, uid, err := invoker(i)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	entry, found, err := b.roster.Resolve(ctx, uid)
	if err != nil {
		// The ID alone is still useful when the roster read fails.
		b.log.Debug("roster lookup failed during whoami", "error", err)
		found = false
	}

	return respond(s, i, &discordgo.InteractionResponseData{
		Content: WhoamiMessage(user.ID, entry, found),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) cmdReset(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := b.gate.General(i.ChannelID); err != nil {
		return err
	}
	if err := b.gate.Admin(permissions(i)); err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()
	dropped, err := b.engine.Reset(ctx)
	if err != nil {
		// Sessions are gone either way; a failed roster refresh fixes
		// itself on the next TTL expiry.
		b.log.Warn("roster refresh during reset failed", "error", err)
	}

	return respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{ResetEmbed(dropped)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

// =============================================================================
// REPLY HELPERS
// =============================================================================

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func deferPublic(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

// replyErr turns a handler error into a user reply. If the interaction
// was already acknowledged (a deferred reply), the message goes out as a
// followup instead.
func (b *Bot) replyErr(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	msg := UserMessage(err)
	if ledger.IsUserError(err) {
		b.log.Debug("interaction rejected", "reason", err)
	} else {
		b.log.Error("interaction failed", "error", err)
	}

	respErr := respond(s, i, &discordgo.InteractionResponseData{
		Content: msg,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if respErr != nil {
		_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		})
	}
}

// UserMessage picks the corrective line for an error.
func UserMessage(err error) string {
	var gerr *GateError
	if errors.As(err, &gerr) {
		return gerr.Msg
	}
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("Invalid %s: %s.", verr.Field, verr.Reason)
	}
	switch {
	case errors.Is(err, ledger.ErrSessionExpired):
		return "That entry timed out. Start over with /sale or /bulksale."
	case errors.Is(err, ledger.ErrNoSession):
		return "That step is no longer active. Start over with /sale or /bulksale."
	case errors.Is(err, ledger.ErrIdentityUnresolved):
		return "You're not on the sales roster (or marked inactive). Ask a manager to fix the Roster tab, then try again."
	case errors.Is(err, ledger.ErrStoreUnavailable):
		return "Couldn't reach Google Sheets. Nothing was lost: pick the last option again to retry."
	default:
		return "Something went wrong on our side. Try again in a minute."
	}
}

// =============================================================================
// INTERACTION FIELD HELPERS
// =============================================================================

// invoker returns the interaction's user and their ID parsed as the
// numeric rep identity.
func invoker(i *discordgo.InteractionCreate) (*discordgo.User, int64, error) {
	u := i.User
	if i.Member != nil {
		u = i.Member.User
	}
	if u == nil {
		return nil, 0, fmt.Errorf("interaction carries no user")
	}
	id, err := strconv.ParseInt(u.ID, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("user id %q is not numeric: %w", u.ID, err)
	}
	return u, id, nil
}

// displayName resolves what the server shows for this user: nickname,
// then global display name, then username.
func displayName(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.Nick != "" {
		return i.Member.Nick
	}
	u := i.User
	if i.Member != nil {
		u = i.Member.User
	}
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func permissions(i *discordgo.InteractionCreate) int64 {
	if i.Member == nil {
		return 0
	}
	return i.Member.Permissions
}

// modalValue digs the single text input out of a modal submission.
func modalValue(data discordgo.ModalSubmitInteractionData) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok {
				return ti.Value
			}
		}
	}
	return ""
}

func selectedValue(i *discordgo.InteractionCreate) (string, error) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return "", fmt.Errorf("select interaction carried no value")
	}
	return values[0], nil
}
