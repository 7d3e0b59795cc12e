package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

func (b *Bot) onStart(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	sub, err := b.subscriber(ctx, c)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to resolve subscriber on /start", "error", err)
		return c.Send("Something went wrong, please try again.")
	}

	if b.subs.HasAccess(sub, time.Now().UTC()) {
		return c.Send("Welcome back! What would you like to do?", mainMenuKeyboard())
	}
	return c.Send(
		"👋 Welcome! This bot rents out phone numbers for receiving SMS.\n"+
			"A subscription is required to browse and buy numbers.",
		startKeyboard(),
	)
}

func (b *Bot) onStartButton(c tele.Context) error {
	if err := c.Respond(); err != nil {
		b.logger.Warn("Failed to answer callback", "error", err)
	}
	return c.Send("Choose a subscription plan:", planKeyboard())
}

func (b *Bot) onPlanSelected(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	sub, err := b.subscriber(ctx, c)
	if err != nil {
		return c.Send("Something went wrong, please try again.")
	}

	planKey := c.Data()
	plan, err := b.subs.SelectPlan(ctx, sub, planKey)
	if err != nil {
		if errors.Is(err, domain.ErrStateViolation) {
			return c.Respond(&tele.CallbackResponse{Text: "You can't select a plan right now."})
		}
		b.logger.ErrorContext(ctx, "Plan selection failed", "telegram_id", sub.TelegramID, "error", err)
		return c.Send("Something went wrong, please try again.")
	}

	if err := c.Respond(); err != nil {
		b.logger.Warn("Failed to answer callback", "error", err)
	}
	return c.Send(fmt.Sprintf(
		"Please send payment of %s to:\n\n"+
			"💰 Binance Pay ID: %s\n"+
			"📧 E-transfer: %s\n\n"+
			"Then send a screenshot of your payment here.",
		plan.Price, b.cfg.BinancePayID, b.cfg.ETransferEmail,
	))
}

func (b *Bot) onPaymentProof(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	sub, err := b.subscriber(ctx, c)
	if err != nil {
		return c.Send("Something went wrong, please try again.")
	}

	plan, err := b.subs.SubmitProof(ctx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrStateViolation) {
			return c.Send("Please select a subscription plan first.", planKeyboard())
		}
		b.logger.ErrorContext(ctx, "Proof submission failed", "telegram_id", sub.TelegramID, "error", err)
		return c.Send("Something went wrong, please try again.")
	}

	// Fan the proof out to every operator with the decision buttons attached.
	photo := c.Message().Photo
	caption := fmt.Sprintf(
		"💸 Payment proof received\nUser: %d (@%s)\nPlan: %s - %s",
		sub.TelegramID, sub.Username, plan.Name, plan.Price,
	)
	for _, adminID := range b.adminRecipients() {
		forward := *photo
		forward.Caption = caption
		if _, err := b.bot.Send(&tele.User{ID: adminID}, &forward, approvalKeyboard(sub.TelegramID, plan.Key)); err != nil {
			b.logger.WarnContext(ctx, "Failed to forward payment proof", "admin_id", adminID, "error", err)
		}
	}

	return c.Send("✅ Thanks! Your payment is being reviewed. You'll be notified once it's approved.")
}

func (b *Bot) onApprove(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	args := c.Args()
	if len(args) != 2 {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed approval payload."})
	}
	subscriberID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed approval payload."})
	}
	planKey := args[1]

	granted, plan, err := b.subs.Approve(ctx, c.Sender().ID, subscriberID, planKey)
	if err != nil {
		if errors.Is(err, domain.ErrStateViolation) {
			return c.Respond(&tele.CallbackResponse{Text: "Not allowed, or already decided."})
		}
		b.logger.ErrorContext(ctx, "Approval failed", "subscriber_id", subscriberID, "error", err)
		return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Approval failed: %v", err)})
	}

	if err := b.notifier.Notify(ctx, granted.TelegramID, fmt.Sprintf(
		"🎉 Your subscription has been approved!\nPlan: %s\nExpires: %s",
		plan.Name, granted.SubscriptionEnd.Format(time.RFC1123),
	)); err != nil {
		b.logger.WarnContext(ctx, "Failed to notify subscriber of approval", "telegram_id", granted.TelegramID, "error", err)
	}

	return c.Edit(fmt.Sprintf("✅ Approved %d for plan %s.", subscriberID, plan.Name))
}

func (b *Bot) onDeny(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	args := c.Args()
	if len(args) != 1 {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed denial payload."})
	}
	subscriberID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed denial payload."})
	}

	denied, err := b.subs.Deny(ctx, c.Sender().ID, subscriberID)
	if err != nil {
		if errors.Is(err, domain.ErrStateViolation) {
			return c.Respond(&tele.CallbackResponse{Text: "Not allowed, or already decided."})
		}
		b.logger.ErrorContext(ctx, "Denial failed", "subscriber_id", subscriberID, "error", err)
		return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Denial failed: %v", err)})
	}

	if err := b.notifier.Notify(ctx, denied.TelegramID,
		"❌ Your payment could not be verified. Please contact support or try again.",
	); err != nil {
		b.logger.WarnContext(ctx, "Failed to notify subscriber of denial", "telegram_id", denied.TelegramID, "error", err)
	}

	return c.Edit(fmt.Sprintf("❌ Denied subscription request from %d.", subscriberID))
}
