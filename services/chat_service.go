package services

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"context"
	"log/slog"
)

type IChatService interface {
	Connect(identity domain.Identity, conn domain.ConnectionID, sink contract.EventSink)
	Disconnect(conn domain.ConnectionID)
	Logout(identity domain.Identity)
	Presence(identity domain.Identity) domain.Presence
	SendDirect(ctx context.Context, cmd domain.SendDirectCommand) (domain.Message, domain.DeliveryReport, error)
	SendGroup(ctx context.Context, cmd domain.SendGroupCommand) (domain.Message, domain.DeliveryReport, error)
	MarkSeen(ctx context.Context, cmd domain.MarkSeenCommand) error
	History(conversation string, cursor *string) ([]domain.StoredMessage, *string, error)
	Search(ctx context.Context, terms, conversation string, limit int) ([]repositories.SearchHit, uint64, error)
}

// ChatService fronts the dispatcher for the transport layers and keeps the
// search index fed with everything that goes through it.
type ChatService struct {
	log        *slog.Logger
	dispatcher *runtime.Dispatcher
	store      contract.IMessageStore
	index      repositories.IMessageIndex
}

func NewChatService(log *slog.Logger, dispatcher *runtime.Dispatcher, store contract.IMessageStore, index repositories.IMessageIndex) *ChatService {
	return &ChatService{log: log, dispatcher: dispatcher, store: store, index: index}
}

func (s *ChatService) Connect(identity domain.Identity, conn domain.ConnectionID, sink contract.EventSink) {
	s.dispatcher.ConnectionOpened(identity, conn, sink)
}

func (s *ChatService) Disconnect(conn domain.ConnectionID) {
	s.dispatcher.ConnectionClosed(conn)
}

func (s *ChatService) Logout(identity domain.Identity) {
	s.dispatcher.Logout(identity)
}

func (s *ChatService) Presence(identity domain.Identity) domain.Presence {
	return s.dispatcher.Presence(identity)
}

func (s *ChatService) SendDirect(ctx context.Context, cmd domain.SendDirectCommand) (domain.Message, domain.DeliveryReport, error) {
	msg, report, err := s.dispatcher.SendDirect(ctx, cmd)
	if err != nil {
		return domain.Message{}, domain.DeliveryReport{}, err
	}
	s.indexMessage(domain.DirectConversation(cmd.Sender, cmd.Recipient), msg)
	return msg, report, nil
}

func (s *ChatService) SendGroup(ctx context.Context, cmd domain.SendGroupCommand) (msg domain.Message, report domain.DeliveryReport, err error) {
	msg, report, err = s.dispatcher.SendGroup(ctx, cmd)
	if err != nil {
		return domain.Message{}, domain.DeliveryReport{}, err
	}
	s.indexMessage(domain.GroupConversation(cmd.Group), msg)
	return msg, report, nil
}

func (s *ChatService) MarkSeen(ctx context.Context, cmd domain.MarkSeenCommand) error {
	return s.dispatcher.MarkSeen(ctx, cmd)
}

func (s *ChatService) History(conversation string, cursor *string) ([]domain.StoredMessage, *string, error) {
	return s.store.Messages(conversation, cursor)
}

func (s *ChatService) Search(ctx context.Context, terms, conversation string, limit int) ([]repositories.SearchHit, uint64, error) {
	return s.index.Search(ctx, terms, conversation, limit)
}

// indexMessage is best effort. A failed index write never fails the send:
// the record is already durable in the store.
func (s *ChatService) indexMessage(conversation string, msg domain.Message) {
	if err := s.index.Index(conversation, msg); err != nil {
		s.log.Warn("Failed to index message", "message_id", msg.ID, "error", err)
	}
}
