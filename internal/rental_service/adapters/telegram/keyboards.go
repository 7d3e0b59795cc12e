package telegram

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

// Callback button templates. The Unique values route callbacks back to the
// matching handler; per-button payload travels in the data segment.
var (
	btnStart     = tele.Btn{Unique: "start", Text: "🚀 Get Started"}
	btnPlan      = tele.Btn{Unique: "plan"}
	btnApprove   = tele.Btn{Unique: "approve"}
	btnDeny      = tele.Btn{Unique: "deny"}
	btnBrowse    = tele.Btn{Unique: "browse_numbers", Text: "📱 Browse Numbers"}
	btnRefresh   = tele.Btn{Unique: "refresh_numbers", Text: "🔄 Refresh List"}
	btnMyNumbers = tele.Btn{Unique: "my_numbers", Text: "📋 My Numbers"}
	btnLoadCred  = tele.Btn{Unique: "load_credential", Text: "🔑 Load Credential"}
	btnSubscribe = tele.Btn{Unique: "subscribe", Text: "💳 Subscribe"}
	btnBuy       = tele.Btn{Unique: "buy"}
	btnCheckSMS  = tele.Btn{Unique: "check_sms"}
	btnRelease   = tele.Btn{Unique: "release"}
)

func startKeyboard() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data(btnStart.Text, btnStart.Unique)))
	return m
}

func planKeyboard() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(domain.Plans))
	for _, plan := range domain.Plans {
		label := fmt.Sprintf("%s - %s", plan.Name, plan.Price)
		rows = append(rows, m.Row(m.Data(label, btnPlan.Unique, plan.Key)))
	}
	m.Inline(rows...)
	return m
}

func mainMenuKeyboard() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data(btnBrowse.Text, btnBrowse.Unique)),
		m.Row(m.Data(btnMyNumbers.Text, btnMyNumbers.Unique)),
		m.Row(m.Data(btnLoadCred.Text, btnLoadCred.Unique)),
	)
	return m
}

func subscribeKeyboard() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data(btnSubscribe.Text, btnSubscribe.Unique)))
	return m
}

// approvalKeyboard carries the subscriber and plan through the admin's
// approve/deny decision as callback payload.
func approvalKeyboard(subscriberID int64, planKey string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(
		m.Data("✅ Approve", btnApprove.Unique, fmt.Sprintf("%d", subscriberID), planKey),
		m.Data("❌ Deny", btnDeny.Unique, fmt.Sprintf("%d", subscriberID)),
	))
	return m
}

func numbersKeyboard(numbers []string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(numbers)+1)
	for _, number := range numbers {
		rows = append(rows, m.Row(m.Data("Buy "+number, btnBuy.Unique, number)))
	}
	rows = append(rows, m.Row(m.Data(btnRefresh.Text, btnRefresh.Unique)))
	m.Inline(rows...)
	return m
}

func numberActionsKeyboard(number string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("📩 Check SMS", btnCheckSMS.Unique, number)),
		m.Row(m.Data("🗑 Release", btnRelease.Unique, number)),
	)
	return m
}
