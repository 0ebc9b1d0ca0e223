package service

import (
	"strings"

	"coinhub/internal/idgen"
	"coinhub/internal/model"
	"coinhub/internal/store"
)

// ChatService appends messages to the global and private channels.
type ChatService struct {
	base
}

// NewChatService creates a new ChatService instance.
func NewChatService(st *store.Store, clock Clock) *ChatService {
	return &ChatService{base: newBase(st, clock)}
}

// SendGlobal posts text to the global channel.
func (s *ChatService) SendGlobal(actorName, text string) (store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}
	if strings.TrimSpace(text) == "" {
		return store.SliceNone, Reject(CodeInvalidPayload, "message text is empty")
	}

	s.st.AppendGlobalChat(s.message(actor, text))
	return store.SliceGlobalChat, nil
}

// SendPrivate posts text to the channel shared by the actor and toUser.
func (s *ChatService) SendPrivate(actorName, toUser, text string) (store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}
	if strings.TrimSpace(text) == "" {
		return store.SliceNone, Reject(CodeInvalidPayload, "message text is empty")
	}
	if _, ok := s.st.Account(toUser); !ok {
		return store.SliceNone, Reject(CodeNotFound, "account %q not found", toUser)
	}

	s.st.AppendPrivateChat(actor.Username, toUser, s.message(actor, text))
	return store.SlicePrivateChats, nil
}

func (s *ChatService) message(actor *model.Account, text string) model.ChatMessage {
	return model.ChatMessage{
		ID:        idgen.New(),
		Sender:    actor.Username,
		Text:      text,
		Timestamp: s.nowMillis(),
	}
}
