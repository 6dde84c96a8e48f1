package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func storedMessage(sender domain.Identity, content string, at time.Time) domain.StoredMessage {
	return domain.StoredMessage{
		Message: domain.Message{
			ID:        uuid.New(),
			Sender:    sender,
			Content:   content,
			CreatedAt: at.UTC(),
		},
		SeenBy: []domain.Identity{sender},
	}
}

func TestMessageRepository_Store_And_Retrieve_Newest_First(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), nil)
	conversation := domain.DirectConversation("alice@example.com", "bob@example.com")

	// Given three messages written in chronological order
	base := time.Now()
	for i := 0; i < 3; i++ {
		msg := storedMessage("alice@example.com", fmt.Sprintf("message %d", i), base.Add(time.Duration(i)*time.Second))
		req.NoError(repo.StoreMessage(conversation, msg))
	}

	// When reading the conversation
	messages, _, err := repo.Messages(conversation, nil)

	// Then records come out newest first with the seen record intact
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("message 2", messages[0].Message.Content)
	req.Equal("message 0", messages[2].Message.Content)
	req.Equal([]domain.Identity{"alice@example.com"}, messages[0].SeenBy)
}

func TestMessageRepository_Pagination_Resumes_At_Cursor(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), lo.ToPtr(2))
	conversation := domain.GroupConversation("g1")

	base := time.Now()
	for i := 0; i < 5; i++ {
		msg := storedMessage("alice@example.com", fmt.Sprintf("message %d", i), base.Add(time.Duration(i)*time.Second))
		req.NoError(repo.StoreMessage(conversation, msg))
	}

	// When paging through with a limit of two
	page1, cursor, err := repo.Messages(conversation, nil)
	req.NoError(err)
	req.Len(page1, 2)
	req.NotNil(cursor)
	req.Equal("message 4", page1[0].Message.Content)

	page2, cursor, err := repo.Messages(conversation, cursor)
	req.NoError(err)
	req.Len(page2, 2)
	req.Equal("message 2", page2[0].Message.Content)

	page3, cursor, err := repo.Messages(conversation, cursor)
	req.NoError(err)
	req.Len(page3, 1)
	req.Equal("message 0", page3[0].Message.Content)

	// Then a final call past the oldest record returns nothing
	page4, cursor, err := repo.Messages(conversation, cursor)
	req.NoError(err)
	req.Empty(page4)
	req.Nil(cursor)
}

func TestMessageRepository_Conversations_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), nil)

	req.NoError(repo.StoreMessage(domain.GroupConversation("g1"), storedMessage("alice@example.com", "for g1", time.Now())))
	req.NoError(repo.StoreMessage(domain.GroupConversation("g2"), storedMessage("alice@example.com", "for g2", time.Now())))

	messages, _, err := repo.Messages(domain.GroupConversation("g1"), nil)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("for g1", messages[0].Message.Content)
}

func TestMessageRepository_AddSeen_Reaches_Record_Through_Index(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), nil)
	conversation := domain.GroupConversation("g1")

	msg := storedMessage("alice@example.com", "please ack", time.Now())
	req.NoError(repo.StoreMessage(conversation, msg))

	// When bob acknowledges by message ID alone
	req.NoError(repo.AddSeen(msg.Message.ID, "bob@example.com"))

	// Then the persisted record carries both identities
	messages, _, err := repo.Messages(conversation, nil)
	req.NoError(err)
	req.Equal([]domain.Identity{"alice@example.com", "bob@example.com"}, messages[0].SeenBy)

	// And acknowledging again changes nothing
	req.NoError(repo.AddSeen(msg.Message.ID, "bob@example.com"))
	messages, _, err = repo.Messages(conversation, nil)
	req.NoError(err)
	req.Len(messages[0].SeenBy, 2)
}

func TestMessageRepository_AddSeen_Unknown_Message(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), nil)

	err := repo.AddSeen(uuid.New(), "bob@example.com")

	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func TestMessageRepository_MarkConversationSeen_Returns_Newly_Marked(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), nil)
	conversation := domain.GroupConversation("g1")

	// Given two messages from alice and one already acknowledged by bob
	first := storedMessage("alice@example.com", "first", time.Now())
	second := storedMessage("alice@example.com", "second", time.Now().Add(time.Second))
	req.NoError(repo.StoreMessage(conversation, first))
	req.NoError(repo.StoreMessage(conversation, second))
	req.NoError(repo.AddSeen(first.Message.ID, "bob@example.com"))

	// When bob opens the conversation
	newly, err := repo.MarkConversationSeen(conversation, "bob@example.com")

	// Then only the unacknowledged message is reported
	req.NoError(err)
	req.Equal([]uuid.UUID{second.Message.ID}, newly)

	// And a second open reports nothing
	newly, err = repo.MarkConversationSeen(conversation, "bob@example.com")
	req.NoError(err)
	req.Empty(newly)
}

func TestMessageRepository_DeleteConversation_Purges_Records_And_Index(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), nil)
	conversation := domain.GroupConversation("g1")

	msg := storedMessage("alice@example.com", "doomed", time.Now())
	req.NoError(repo.StoreMessage(conversation, msg))
	req.NoError(repo.StoreMessage(domain.GroupConversation("g2"), storedMessage("alice@example.com", "survivor", time.Now())))

	// When the conversation is deleted
	req.NoError(repo.DeleteConversation(conversation))

	// Then its records and msgid entries are gone
	messages, _, err := repo.Messages(conversation, nil)
	req.NoError(err)
	req.Empty(messages)
	req.ErrorIs(repo.AddSeen(msg.Message.ID, "bob@example.com"), errors.ErrMessageNotFound)

	// And the other conversation is untouched
	messages, _, err = repo.Messages(domain.GroupConversation("g2"), nil)
	req.NoError(err)
	req.Len(messages, 1)
}
