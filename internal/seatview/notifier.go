package seatview

import (
	"cinema-seat-booking/pkg/logger"

	"go.uber.org/zap"
)

// Notifier shows short user-facing messages.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.WithComponent("seatview")}
}

func (n *LogNotifier) Success(title, message string) {
	n.log.Info(title, zap.String("message", message))
}

func (n *LogNotifier) Error(title, message string) {
	n.log.Warn(title, zap.String("message", message))
}
