package dao

import (
	"context"

	"rebelchat/rebelchat/sources"
	"rebelchat/rebelchat/sources/psql/models"

	"gorm.io/gorm"
)

type ChatMessageDAO struct {
	DB *gorm.DB
}

func NewChatMessageDAO(db *gorm.DB) *ChatMessageDAO {
	return &ChatMessageDAO{DB: db}
}

func (dao *ChatMessageDAO) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	return dao.DB.WithContext(ctx).Create(msg).Error
}

func (dao *ChatMessageDAO) GetMessagesBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order(`"timestamp" ASC`).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (dao *ChatMessageDAO) GetMessagesForUserSession(ctx context.Context, userID, sessionID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Order(`"timestamp" ASC`).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, sources.ErrSessionNotFound
	}
	return msgs, nil
}

func (dao *ChatMessageDAO) ListSessions(ctx context.Context, userID string) ([]models.ChatSessionSummary, error) {
	var msgs []models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(`"timestamp" ASC`).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return sources.Summarize(msgs), nil
}

func (dao *ChatMessageDAO) DeleteSession(ctx context.Context, userID, sessionID string) error {
	var res *gorm.DB
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res = tx.Where("session_id = ? AND user_id = ?", sessionID, userID).Delete(&models.ChatMessage{})
		return res.Error
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return sources.ErrSessionNotFound
	}
	return nil
}
