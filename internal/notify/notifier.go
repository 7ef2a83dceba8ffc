package notify

import (
	"context"
	"fmt"

	"pump_bot/pkg/logger"
)

// Notifier — куда уходят сообщения оператору (сделки, ошибки ордеров).
type Notifier interface {
	Send(ctx context.Context, msg string)
	Sendf(ctx context.Context, format string, args ...any)
}

// Stdout — заглушка, когда Telegram не настроен: всё идёт в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(_ context.Context, msg string) { logger.Info("[NOTIFY] %s", msg) }
func (s *Stdout) Sendf(ctx context.Context, format string, args ...any) {
	s.Send(ctx, fmt.Sprintf(format, args...))
}
