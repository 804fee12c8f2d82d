// Package services содержит логику чат-ассистента платформы.
package services

import (
	"context"
	"fmt"
	"log/slog"
)

// coachPrompt оборачивает вопрос пользователя в роль ассистента платформы.
const coachPrompt = "You are the Shadow Howl AI Coach. Answer this: %s. MANDATORY: End with 'This is not financial advice. Trade at your own risk.'"

// Generator описывает контракт для языковой модели.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// ChatService проксирует вопросы пользователей к языковой модели.
type ChatService struct {
	llm Generator
	log *slog.Logger
}

// NewChatService создает новый экземпляр ChatService.
func NewChatService(llm Generator, log *slog.Logger) *ChatService {
	return &ChatService{llm: llm, log: log}
}

// Ask отправляет вопрос модели и возвращает ответ ассистента.
func (s *ChatService) Ask(ctx context.Context, question string) (string, error) {
	const op = "services.chat.Ask"

	answer, err := s.llm.GenerateContent(ctx, fmt.Sprintf(coachPrompt, question))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return answer, nil
}
