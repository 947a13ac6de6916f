package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

const (
	// ChatGreeting seeds every conversation. It is never sent by the model.
	ChatGreeting = "Hi! I'm your AI Coach. Do you have any questions about your plan or running in general?"

	// ChatApology is appended when a reply could not be obtained
	ChatApology = "Sorry, I'm having trouble connecting right now. Please try again."
)

var (
	ErrEmptyMessage = errors.New("chat message is empty")
	ErrChatBusy     = errors.New("a chat reply is already pending")
)

// ChatService holds the coach conversation. History is append-only and
// independent of the training plan.
type ChatService struct {
	generator PlanGenerator
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	history []model.ChatMessage
	open    bool
	pending bool
	epoch   int // bumped by Reset; replies for an older epoch are dropped
}

// NewChatService creates a new ChatService seeded with the greeting
func NewChatService(generator PlanGenerator, logger *zap.Logger) *ChatService {
	s := &ChatService{
		generator: generator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.history = s.greeting()
	return s
}

func (s *ChatService) greeting() []model.ChatMessage {
	return []model.ChatMessage{{Role: model.ChatRoleCoach, Text: ChatGreeting, Timestamp: s.now()}}
}

// Reset forgets the conversation and closes the chat. History starts over with
// the greeting; a reply still in flight is discarded when it arrives.
func (s *ChatService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = s.greeting()
	s.open = false
	s.pending = false
	s.epoch++
}

func (s *ChatService) Open() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

// Close hides the chat. History is kept.
func (s *ChatService) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

func (s *ChatService) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// History returns a copy of the conversation so far
func (s *ChatService) History() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// SendMessage appends the user's message, asks the coach for a reply and
// appends it. A failed reply is replaced by ChatApology and is not returned as
// an error; the user's message always stays in history.
func (s *ChatService) SendMessage(ctx context.Context, text string) (model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return model.ChatMessage{}, ErrChatBusy
	}
	s.pending = true
	epoch := s.epoch
	prior := make([]model.ChatMessage, len(s.history))
	copy(prior, s.history)
	s.history = append(s.history, model.ChatMessage{Role: model.ChatRoleUser, Text: text, Timestamp: s.now()})
	s.mu.Unlock()

	start := time.Now()
	reply, err := s.generator.Chat(ctx, prior, text)
	if err != nil {
		s.logger.Warn("coach reply failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		reply = ChatApology
	} else {
		s.logger.Debug("coach replied",
			zap.Int("history_length", len(prior)+1),
			zap.Duration("duration", time.Since(start)),
		)
	}

	msg := model.ChatMessage{Role: model.ChatRoleCoach, Text: reply, Timestamp: s.now()}

	s.mu.Lock()
	if s.epoch == epoch {
		s.history = append(s.history, msg)
		s.pending = false
	}
	s.mu.Unlock()

	return msg, nil
}
