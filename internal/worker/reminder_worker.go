package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/notify"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
)

const reminderPollInterval = 30 * time.Second

// StartReminderWorker polls for due reminders and delivers them until the
// context is cancelled. Delivery is at-least-once: a reminder is marked
// delivered only after the notification succeeds.
func StartReminderWorker(ctx context.Context, reminders repository.ReminderRepository, notifier notify.Notifier, logger *zap.Logger) {
	if reminders == nil || notifier == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(reminderPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deliverDue(ctx, reminders, notifier, logger)
			}
		}
	}()
}

func deliverDue(ctx context.Context, reminders repository.ReminderRepository, notifier notify.Notifier, logger *zap.Logger) {
	due, err := reminders.FindDue(ctx, time.Now())
	if err != nil {
		logger.Warn("reminder poll failed", zap.Error(err))
		return
	}
	for i := range due {
		reminder := &due[i]
		message := fmt.Sprintf("<@%s> Reminder: %s", reminder.UserID, reminder.Text)

		var deliverErr error
		if reminder.ChannelID != "" {
			deliverErr = notifier.SendToChannel(reminder.ChannelID, message)
		} else {
			deliverErr = notifier.DMUser(reminder.UserID, fmt.Sprintf("Reminder: %s", reminder.Text))
		}
		if deliverErr != nil {
			logger.Warn("reminder delivery failed",
				zap.String("reminder_id", reminder.ID),
				zap.Error(deliverErr))
			continue
		}

		now := time.Now()
		reminder.DeliveredAt = &now
		if err := reminders.Update(ctx, reminder); err != nil {
			logger.Warn("reminder mark-delivered failed",
				zap.String("reminder_id", reminder.ID),
				zap.Error(err))
		}
	}
}
