package telegram

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/app"
	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

// BotConfig holds the transport-level tunables.
type BotConfig struct {
	// Payment instructions shown when a subscriber enters the funnel.
	BinancePayID   string
	ETransferEmail string
	// AdminIDs is the administrative identity set (boss first) for
	// approval fan-out.
	AdminIDs []int64
	// HandlerTimeout bounds the backend work done for one inbound update.
	HandlerTimeout time.Duration
}

// Bot wires inbound Telegram updates to the core services. Handlers validate
// the subscriber's lifecycle state, call into the app layer, and translate
// typed errors into plain-language replies; operators additionally receive
// the raw error detail.
type Bot struct {
	bot       *tele.Bot
	subs      *app.SubscriptionService
	inventory *app.InventoryService
	rotator   *app.CredentialRotator
	sessions  *app.SessionStore
	notifier  app.Notifier

	subscriberRepo domain.SubscriberRepository
	credentialRepo domain.CredentialRepository
	numberRepo     domain.NumberRepository

	cfg    BotConfig
	logger *slog.Logger
}

func NewBot(
	bot *tele.Bot,
	subs *app.SubscriptionService,
	inventory *app.InventoryService,
	rotator *app.CredentialRotator,
	sessions *app.SessionStore,
	notifier app.Notifier,
	subscriberRepo domain.SubscriberRepository,
	credentialRepo domain.CredentialRepository,
	numberRepo domain.NumberRepository,
	cfg BotConfig,
	logger *slog.Logger,
) *Bot {
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 30 * time.Second
	}
	return &Bot{
		bot:            bot,
		subs:           subs,
		inventory:      inventory,
		rotator:        rotator,
		sessions:       sessions,
		notifier:       notifier,
		subscriberRepo: subscriberRepo,
		credentialRepo: credentialRepo,
		numberRepo:     numberRepo,
		cfg:            cfg,
		logger:         logger.With("component", "telegram_bot"),
	}
}

// Register attaches every handler to the underlying bot.
func (b *Bot) Register() {
	b.bot.Handle("/start", b.onStart)
	b.bot.Handle("/admin", b.onAdminStats)
	b.bot.Handle("/deleteuser", b.onDeleteUser)

	b.bot.Handle(&btnStart, b.onStartButton)
	b.bot.Handle(&btnSubscribe, b.onStartButton)
	b.bot.Handle(&btnPlan, b.onPlanSelected)
	b.bot.Handle(tele.OnPhoto, b.onPaymentProof)
	b.bot.Handle(&btnApprove, b.onApprove)
	b.bot.Handle(&btnDeny, b.onDeny)

	b.bot.Handle(&btnBrowse, b.onBrowseNumbers)
	b.bot.Handle(&btnRefresh, b.onRefreshNumbers)
	b.bot.Handle(&btnBuy, b.onBuyNumber)
	b.bot.Handle(&btnMyNumbers, b.onMyNumbers)
	b.bot.Handle(&btnCheckSMS, b.onCheckSMS)
	b.bot.Handle(&btnRelease, b.onReleaseNumber)

	b.bot.Handle(&btnLoadCred, b.onLoadCredential)
	b.bot.Handle(tele.OnText, b.onText)
}

// Start begins long-polling. Blocks until Stop is called.
func (b *Bot) Start() {
	b.logger.Info("Telegram bot starting long poll")
	b.bot.Start()
}

// Stop halts the poller.
func (b *Bot) Stop() {
	b.bot.Stop()
}

// opCtx bounds the backend work for a single update.
func (b *Bot) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.cfg.HandlerTimeout)
}

func (b *Bot) adminRecipients() []int64 {
	return b.cfg.AdminIDs
}

// subscriber resolves (creating on first contact) the ledger record for the
// update's sender.
func (b *Bot) subscriber(ctx context.Context, c tele.Context) (*domain.Subscriber, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, domain.ErrNotFound
	}
	return b.subs.GetOrCreate(ctx, sender.ID, sender.Username)
}
