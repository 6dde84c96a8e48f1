package repositories

import (
	"chat-hub/domain"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func indexedMessage(sender domain.Identity, content string) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func TestMessageIndex_Search_Scoped_To_Conversation(t *testing.T) {
	req := require.New(t)
	index := NewMessageIndex(openTestIndex(t), testLogger())
	ctx := context.Background()

	// Given the same word indexed in two conversations
	hit := indexedMessage("alice@example.com", "the deployment failed again")
	req.NoError(index.Index("group:g1", hit))
	req.NoError(index.Index("group:g2", indexedMessage("bob@example.com", "deployment looks fine here")))
	req.NoError(index.Flush())

	// When searching inside the first conversation only
	hits, total, err := index.Search(ctx, "deployment", "group:g1", 10)

	req.NoError(err)
	req.Equal(uint64(1), total)
	req.Len(hits, 1)
	req.Equal(hit.ID, hits[0].MessageID)
	req.Equal("group:g1", hits[0].Conversation)
	req.Equal(domain.Identity("alice@example.com"), hits[0].Sender)
	req.Equal("the deployment failed again", hits[0].Content)
}

func TestMessageIndex_Search_No_Match(t *testing.T) {
	req := require.New(t)
	index := NewMessageIndex(openTestIndex(t), testLogger())

	req.NoError(index.Index("group:g1", indexedMessage("alice@example.com", "lunch at noon?")))

	hits, total, err := index.Search(context.Background(), "deployment", "group:g1", 10)

	req.NoError(err)
	req.Zero(total)
	req.Empty(hits)
}

func TestMessageIndex_Limit_Caps_Hits_Not_Total(t *testing.T) {
	req := require.New(t)
	index := NewMessageIndex(openTestIndex(t), testLogger())

	// Given five matching messages
	contents := []string{
		"standup notes for monday",
		"standup notes for tuesday",
		"standup notes for wednesday",
		"standup notes for thursday",
		"standup notes for friday",
	}
	for _, content := range contents {
		req.NoError(index.Index("group:g1", indexedMessage("alice@example.com", content)))
	}

	// When asking for at most two
	hits, total, err := index.Search(context.Background(), "standup", "group:g1", 2)

	// Then the page is capped but the aggregation still counts them all
	req.NoError(err)
	req.Len(hits, 2)
	req.Equal(uint64(len(contents)), total)
}

func TestMessageIndex_Reindex_Replaces_Document(t *testing.T) {
	req := require.New(t)
	index := NewMessageIndex(openTestIndex(t), testLogger())

	// Given a message indexed twice under the same ID, censored second time
	msg := indexedMessage("alice@example.com", "the password is hunter2")
	req.NoError(index.Index("group:g1", msg))
	msg.Content = "the password is *******"
	req.NoError(index.Index("group:g1", msg))

	hits, total, err := index.Search(context.Background(), "password", "group:g1", 10)

	req.NoError(err)
	req.Equal(uint64(1), total)
	req.Equal("the password is *******", hits[0].Content)
}
