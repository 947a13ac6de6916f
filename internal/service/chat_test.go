package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

func newTestChatService(generator PlanGenerator) *ChatService {
	s := NewChatService(generator, zap.NewNop())
	s.now = func() time.Time { return stateNow }
	return s
}

func roles(history []model.ChatMessage) []model.ChatRole {
	out := make([]model.ChatRole, len(history))
	for i, m := range history {
		out[i] = m.Role
	}
	return out
}

func TestChatService_StartsWithGreeting(t *testing.T) {
	s := NewChatService(new(MockPlanGenerator), zap.NewNop())

	history := s.History()

	require.Len(t, history, 1)
	assert.Equal(t, model.ChatRoleCoach, history[0].Role)
	assert.Equal(t, ChatGreeting, history[0].Text)
}

func TestChatService_SendMessage(t *testing.T) {
	generator := new(MockPlanGenerator)
	s := newTestChatService(generator)

	greeting := s.History()
	generator.On("Chat", mock.Anything, greeting, "How fast are easy runs?").Return("Conversational pace.", nil).Once()

	reply, err := s.SendMessage(context.Background(), "  How fast are easy runs? ")

	require.NoError(t, err)
	assert.Equal(t, model.ChatMessage{Role: model.ChatRoleCoach, Text: "Conversational pace.", Timestamp: stateNow}, reply)

	history := s.History()
	assert.Equal(t, []model.ChatRole{model.ChatRoleCoach, model.ChatRoleUser, model.ChatRoleCoach}, roles(history))
	assert.Equal(t, "How fast are easy runs?", history[1].Text)

	// the second turn carries the whole prior conversation
	generator.On("Chat", mock.Anything, history, "Thanks").Return("Any time.", nil).Once()
	_, err = s.SendMessage(context.Background(), "Thanks")
	require.NoError(t, err)
	assert.Len(t, s.History(), 5)
	generator.AssertExpectations(t)
}

func TestChatService_FailedReplyAppendsApology(t *testing.T) {
	generator := new(MockPlanGenerator)
	s := newTestChatService(generator)
	generator.On("Chat", mock.Anything, mock.Anything, "Is it ok to run daily?").Return("", errors.New("network down")).Once()

	reply, err := s.SendMessage(context.Background(), "Is it ok to run daily?")

	require.NoError(t, err)
	assert.Equal(t, ChatApology, reply.Text)

	history := s.History()
	require.Len(t, history, 3)
	assert.Equal(t, ChatGreeting, history[0].Text)
	assert.Equal(t, model.ChatMessage{Role: model.ChatRoleUser, Text: "Is it ok to run daily?", Timestamp: stateNow}, history[1])
	assert.Equal(t, model.ChatMessage{Role: model.ChatRoleCoach, Text: ChatApology, Timestamp: stateNow}, history[2])
}

func TestChatService_RejectsBlankMessage(t *testing.T) {
	generator := new(MockPlanGenerator)
	s := newTestChatService(generator)

	_, err := s.SendMessage(context.Background(), " \n\t")

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, s.History(), 1)
	generator.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_RejectsSendWhileReplyPending(t *testing.T) {
	generator := new(MockPlanGenerator)
	s := newTestChatService(generator)

	started := make(chan struct{})
	release := make(chan struct{})
	generator.On("Chat", mock.Anything, mock.Anything, "first").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return("reply", nil).Once()

	done := make(chan error)
	go func() {
		_, err := s.SendMessage(context.Background(), "first")
		done <- err
	}()

	<-started
	_, err := s.SendMessage(context.Background(), "second")
	assert.ErrorIs(t, err, ErrChatBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []model.ChatRole{model.ChatRoleCoach, model.ChatRoleUser, model.ChatRoleCoach}, roles(s.History()))
}

func TestChatService_OpenCloseKeepsHistory(t *testing.T) {
	generator := new(MockPlanGenerator)
	s := newTestChatService(generator)
	generator.On("Chat", mock.Anything, mock.Anything, "hello").Return("hi", nil).Once()

	assert.False(t, s.IsOpen())
	s.Open()
	assert.True(t, s.IsOpen())

	_, err := s.SendMessage(context.Background(), "hello")
	require.NoError(t, err)

	s.Close()
	assert.False(t, s.IsOpen())
	assert.Len(t, s.History(), 3)

	s.Open()
	assert.Len(t, s.History(), 3)
}

func TestChatService_ResetForgetsConversation(t *testing.T) {
	generator := new(MockPlanGenerator)
	s := newTestChatService(generator)
	generator.On("Chat", mock.Anything, mock.Anything, "my knee hurts after 10km").Return("rest a day", nil).Once()

	s.Open()
	_, err := s.SendMessage(context.Background(), "my knee hurts after 10km")
	require.NoError(t, err)

	s.Reset()

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, ChatGreeting, history[0].Text)
	assert.False(t, s.IsOpen())
}

func TestChatService_ResetDropsReplyInFlight(t *testing.T) {
	generator := new(MockPlanGenerator)
	s := newTestChatService(generator)

	started := make(chan struct{})
	release := make(chan struct{})
	generator.On("Chat", mock.Anything, mock.Anything, "first").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return("late reply", nil).Once()
	generator.On("Chat", mock.Anything, mock.Anything, "after reset").Return("fresh", nil).Once()

	done := make(chan error)
	go func() {
		_, err := s.SendMessage(context.Background(), "first")
		done <- err
	}()

	<-started
	s.Reset()
	_, err := s.SendMessage(context.Background(), "after reset")
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	history := s.History()
	assert.Equal(t, []model.ChatRole{model.ChatRoleCoach, model.ChatRoleUser, model.ChatRoleCoach}, roles(history))
	assert.Equal(t, "after reset", history[1].Text)
	assert.Equal(t, "fresh", history[2].Text)
}
