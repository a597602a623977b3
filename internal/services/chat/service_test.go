package chat

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/paddle-arena/internal/dependencies/mocks"
	"github.com/mcoot/paddle-arena/internal/events"
	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/storage/memory"
	"github.com/mcoot/paddle-arena/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	users    *stubUsers
	storage  *memory.Storage
	recorder *events.Recorder
	clock    *mocks.MockClock
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.users = &stubUsers{}
	s.storage = memory.New()
	s.recorder = events.NewRecorder(16)
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = NewService(NewGate(s.users, testutil.NopLogger()), s.storage, s.recorder, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestSendDeliversAndStores() {
	msg, err := s.service.Send(s.ctx, "alice", "bob", "  good game  ")
	s.Require().NoError(err)

	s.NotEmpty(msg.ID)
	s.Equal("good game", msg.Body)
	s.Equal(s.clock.Now(), msg.SentAt)

	event := <-s.recorder.Events()
	s.Equal(model.EventChatMessage, event.Type)
	s.Equal(model.PlayerID("bob"), event.PlayerID)

	history, err := s.service.History(s.ctx, "bob", 10)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(msg.ID, history[0].ID)
}

func (s *ServiceSuite) TestSendRefusedWhenNotFriends() {
	s.users.friendErr = model.ErrNotFriends

	_, err := s.service.Send(s.ctx, "alice", "bob", "hi")
	s.ErrorIs(err, model.ErrChatNotPermitted)

	history, _ := s.service.History(s.ctx, "bob", 10)
	s.Empty(history)
	s.Len(s.recorder.Events(), 0)
}

func (s *ServiceSuite) TestSendRefusedWhenGateUnavailable() {
	s.users.blockErr = context.DeadlineExceeded

	_, err := s.service.Send(s.ctx, "alice", "bob", "hi")
	s.ErrorIs(err, model.ErrChatGateUnavailable)
}

func (s *ServiceSuite) TestSendRejectsEmptyBody() {
	_, err := s.service.Send(s.ctx, "alice", "bob", "   ")
	s.ErrorIs(err, model.ErrEmptyMessage)
}

func (s *ServiceSuite) TestSendRejectsSelfMessage() {
	_, err := s.service.Send(s.ctx, "alice", "alice", "hi")
	s.ErrorIs(err, model.ErrInvalidPlayers)
}

func (s *ServiceSuite) TestSendTruncatesLongBody() {
	msg, err := s.service.Send(s.ctx, "alice", "bob", strings.Repeat("x", MaxBodyLength+10))
	s.Require().NoError(err)
	s.Len(msg.Body, MaxBodyLength)
}

func (s *ServiceSuite) TestSendTruncatesOnCharacterBoundary() {
	// One ASCII byte then two-byte runes, so the byte limit lands mid-rune
	msg, err := s.service.Send(s.ctx, "alice", "bob", "a"+strings.Repeat("é", MaxBodyLength))
	s.Require().NoError(err)

	s.Len(msg.Body, MaxBodyLength-1)
	s.True(utf8.ValidString(msg.Body))

	stored, err := s.storage.ListChatMessages(s.ctx, "bob", 1)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.True(utf8.ValidString(stored[0].Body))
}

func TestTruncateBody(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		limit int
		want  string
	}{
		{name: "short", body: "hello", limit: 10, want: "hello"},
		{name: "exact", body: "hello", limit: 5, want: "hello"},
		{name: "ascii", body: "hello", limit: 3, want: "hel"},
		{name: "mid two byte rune", body: "aé", limit: 2, want: "a"},
		{name: "mid four byte rune", body: "ok🏓", limit: 4, want: "ok"},
		{name: "after full rune", body: "éé", limit: 2, want: "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateBody(tt.body, tt.limit))
		})
	}
}
