package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts every new booking to the staff chat. The recipient
// address is ignored.
type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
}

func NewTelegramNotifier(bot *tgbotapi.BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, _ string, s Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Новая бронь %s\n", s.BookingID)
	fmt.Fprintf(&b, "%s, корт %s, %s\n", s.SportName, s.CourtNumber, s.Date)
	fmt.Fprintf(&b, "Слоты: %s\n", strings.Join(s.TimeSlots, ", "))
	fmt.Fprintf(&b, "Итого: %d ч, %d\n", s.TotalHours, s.TotalPrice)
	fmt.Fprintf(&b, "Клиент: %s", s.UserName)

	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, b.String())); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
