package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

func (b *Bot) onAdminStats(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	if !b.subs.IsAdmin(c.Sender().ID) {
		return c.Send("This command is restricted.")
	}

	total, err := b.subscriberRepo.Count(ctx)
	if err != nil {
		return c.Send(fmt.Sprintf("Stats unavailable: %v", err))
	}
	active, err := b.subscriberRepo.CountActive(ctx)
	if err != nil {
		return c.Send(fmt.Sprintf("Stats unavailable: %v", err))
	}
	credentials, err := b.credentialRepo.Count(ctx)
	if err != nil {
		return c.Send(fmt.Sprintf("Stats unavailable: %v", err))
	}
	numbers, err := b.numberRepo.Count(ctx)
	if err != nil {
		return c.Send(fmt.Sprintf("Stats unavailable: %v", err))
	}

	return c.Send(fmt.Sprintf(
		"📊 Service stats\n"+
			"Subscribers: %d\n"+
			"Active subscriptions: %d\n"+
			"Credentials: %d\n"+
			"Allocated numbers: %d",
		total, active, credentials, numbers,
	))
}

func (b *Bot) onDeleteUser(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /deleteuser <telegram_id>")
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Usage: /deleteuser <telegram_id>")
	}

	if err := b.subs.DeleteSubscriber(ctx, c.Sender().ID, targetID); err != nil {
		switch {
		case errors.Is(err, domain.ErrStateViolation):
			return c.Send("This command is restricted.")
		case errors.Is(err, domain.ErrNotFound):
			return c.Send(fmt.Sprintf("No subscriber with id %d.", targetID))
		default:
			return c.Send(fmt.Sprintf("Deletion failed: %v", err))
		}
	}
	return c.Send(fmt.Sprintf("Subscriber %d deleted.", targetID))
}

func (b *Bot) onLoadCredential(c tele.Context) error {
	if err := c.Respond(); err != nil {
		b.logger.Warn("Failed to answer callback", "error", err)
	}
	b.sessions.SetAwaitingCredential(c.Sender().ID, true)
	return c.Send("Send the credential as SID:AUTH_TOKEN.")
}

// onText currently only serves credential submissions; anything else gets a
// gentle nudge back to the menu.
func (b *Bot) onText(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	senderID := c.Sender().ID
	if !b.sessions.AwaitingCredential(senderID) {
		return c.Send("Use the menu to get around:", mainMenuKeyboard())
	}
	b.sessions.SetAwaitingCredential(senderID, false)

	parts := strings.SplitN(strings.TrimSpace(c.Text()), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return c.Send("That doesn't look right. Send the credential as SID:AUTH_TOKEN.")
	}
	accountSID, authToken := parts[0], parts[1]

	_, err := b.rotator.AddCredential(ctx, senderID, accountSID, authToken)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamRejected) {
			// Invalid submissions from regular subscribers are a
			// security-relevant signal for the operators.
			if !b.subs.IsAdmin(senderID) {
				b.notifier.NotifyOperators(ctx, fmt.Sprintf(
					"🚨 Invalid credential submitted by user %d: %v", senderID, err,
				))
			}
			return c.Send("❌ That credential failed verification and was not saved.")
		}
		b.logger.ErrorContext(ctx, "Credential verification errored", "telegram_id", senderID, "error", err)
		return c.Send("Couldn't verify the credential right now. Please try again later.")
	}

	return c.Send("✅ Credential verified and added to the rotation.", mainMenuKeyboard())
}
