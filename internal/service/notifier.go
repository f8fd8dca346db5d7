package service

import (
	"context"

	"go.uber.org/zap"

	"study-hub/backend/internal/model"
	"study-hub/backend/internal/repository"
)

// Notifier 站内通知投递；失败只记录日志
type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, message, link string)
}

type notifier struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotifier 创建 Notifier 实例
func NewNotifier(repo *repository.Repository, logger *zap.Logger) Notifier {
	return &notifier{repo: repo, logger: logger}
}

func (n *notifier) Notify(ctx context.Context, userID, kind, title, message, link string) {
	rec := &model.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Content: message,
		Link:    link,
	}
	if err := n.repo.Notification.Create(ctx, rec); err != nil {
		n.logger.Warn("写入通知失败",
			zap.String("user_id", userID),
			zap.String("type", kind),
			zap.Error(err),
		)
	}
}
