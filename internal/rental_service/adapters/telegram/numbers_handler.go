package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

// gated resolves the sender and enforces subscription access. Returns a nil
// subscriber after replying when access is denied.
func (b *Bot) gated(ctx context.Context, c tele.Context) (*domain.Subscriber, error) {
	sub, err := b.subscriber(ctx, c)
	if err != nil {
		return nil, err
	}
	if !b.subs.HasAccess(sub, time.Now().UTC()) {
		return nil, c.Send("Your subscription is not active.", subscribeKeyboard())
	}
	return sub, nil
}

// credentialFor picks the rotation credential for the subscriber, handling
// the empty-set outcome with a user reply and an operator alert.
func (b *Bot) credentialFor(ctx context.Context, c tele.Context, sub *domain.Subscriber) (*domain.Credential, error) {
	cred, err := b.rotator.Next(ctx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrNoValidCredentials) {
			b.notifier.NotifyOperators(ctx, "⚠️ No valid upstream credentials available — number operations are failing.")
			return nil, c.Send("The service is temporarily unavailable. Please try again later.")
		}
		b.logger.ErrorContext(ctx, "Credential selection failed", "telegram_id", sub.TelegramID, "error", err)
		return nil, c.Send("Something went wrong, please try again.")
	}
	return cred, nil
}

func (b *Bot) sendCandidates(ctx context.Context, c tele.Context, sub *domain.Subscriber, exclude []string) error {
	cred, err := b.credentialFor(ctx, c, sub)
	if cred == nil {
		return err
	}

	numbers, err := b.inventory.ListCandidates(ctx, cred, exclude)
	if err != nil {
		b.notifier.NotifyOperators(ctx, fmt.Sprintf("⚠️ Upstream number search failed: %v", err))
		return c.Send("Couldn't fetch numbers right now. Please try again in a moment.")
	}
	if len(numbers) == 0 {
		return c.Send("No numbers are available right now. Try refreshing in a bit.")
	}

	b.sessions.SetOffered(sub.TelegramID, numbers)
	return c.Send(
		fmt.Sprintf("📱 Available numbers (%d):\n%s", len(numbers), strings.Join(numbers, "\n")),
		numbersKeyboard(numbers),
	)
}

func (b *Bot) onBrowseNumbers(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	sub, err := b.gated(ctx, c)
	if sub == nil {
		return err
	}
	if err := c.Respond(); err != nil {
		b.logger.Warn("Failed to answer callback", "error", err)
	}
	return b.sendCandidates(ctx, c, sub, nil)
}

func (b *Bot) onRefreshNumbers(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	sub, err := b.gated(ctx, c)
	if sub == nil {
		return err
	}
	if err := c.Respond(); err != nil {
		b.logger.Warn("Failed to answer callback", "error", err)
	}
	// Exclude everything already shown in this browsing session.
	return b.sendCandidates(ctx, c, sub, b.sessions.Offered(sub.TelegramID))
}

func (b *Bot) onBuyNumber(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	sub, err := b.gated(ctx, c)
	if sub == nil {
		return err
	}
	number := c.Data()

	cred, err := b.credentialFor(ctx, c, sub)
	if cred == nil {
		return err
	}

	record, err := b.inventory.Purchase(ctx, cred, number, sub)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyAllocated):
			return c.Respond(&tele.CallbackResponse{Text: "That number was just taken. Refresh the list."})
		case errors.Is(err, domain.ErrUpstreamRejected):
			return c.Send("The provider refused this number. Try another one.")
		default:
			b.notifier.NotifyOperators(ctx, fmt.Sprintf("⚠️ Purchase of %s failed for user %d: %v", number, sub.TelegramID, err))
			return c.Send("Purchase failed. Please try again later.")
		}
	}

	if err := c.Respond(); err != nil {
		b.logger.Warn("Failed to answer callback", "error", err)
	}
	return c.Send(
		fmt.Sprintf("🎉 Number %s is yours!", record.Number),
		numberActionsKeyboard(record.Number),
	)
}

func (b *Bot) onMyNumbers(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	sub, err := b.gated(ctx, c)
	if sub == nil {
		return err
	}

	owned, err := b.inventory.OwnedNumbers(ctx, sub.TelegramID)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to list owned numbers", "telegram_id", sub.TelegramID, "error", err)
		return c.Send("Something went wrong, please try again.")
	}
	if len(owned) == 0 {
		return c.Send("You don't own any numbers yet.", mainMenuKeyboard())
	}

	for _, num := range owned {
		if err := c.Send(num.Number, numberActionsKeyboard(num.Number)); err != nil {
			return err
		}
	}
	return nil
}

// ownsNumber verifies the sender holds the allocation before acting on it.
func (b *Bot) ownsNumber(ctx context.Context, sub *domain.Subscriber, number string) (bool, error) {
	owned, err := b.inventory.OwnedNumbers(ctx, sub.TelegramID)
	if err != nil {
		return false, err
	}
	for _, num := range owned {
		if num.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (b *Bot) onCheckSMS(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	sub, err := b.gated(ctx, c)
	if sub == nil {
		return err
	}
	number := c.Data()

	owns, err := b.ownsNumber(ctx, sub, number)
	if err != nil {
		return c.Send("Something went wrong, please try again.")
	}
	if !owns {
		return c.Respond(&tele.CallbackResponse{Text: "You don't own this number."})
	}

	cred, err := b.credentialFor(ctx, c, sub)
	if cred == nil {
		return err
	}

	body, err := b.inventory.LatestMessage(ctx, cred, number)
	if err != nil {
		return c.Send("Couldn't fetch messages right now. Please try again.")
	}
	if body == "" {
		return c.Send(fmt.Sprintf("📭 No messages yet for %s.", number))
	}
	return c.Send(fmt.Sprintf("📩 Latest message for %s:\n\n%s", number, body))
}

func (b *Bot) onReleaseNumber(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	sub, err := b.gated(ctx, c)
	if sub == nil {
		return err
	}
	number := c.Data()

	owns, err := b.ownsNumber(ctx, sub, number)
	if err != nil {
		return c.Send("Something went wrong, please try again.")
	}
	if !owns {
		return c.Respond(&tele.CallbackResponse{Text: "You don't own this number."})
	}

	cred, err := b.credentialFor(ctx, c, sub)
	if cred == nil {
		return err
	}

	if err := b.inventory.Release(ctx, cred, number); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Send("That number is not in your allocations.")
		}
		b.notifier.NotifyOperators(ctx, fmt.Sprintf("⚠️ Release of %s failed: %v", number, err))
		return c.Send("Release failed upstream; the number is still yours. Try again later.")
	}
	return c.Send(fmt.Sprintf("🗑 Number %s released.", number))
}
