//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

type IMessageIndex interface {
	Index(conversation string, msg domain.Message) error
	Flush() error
	Search(ctx context.Context, terms, conversation string, limit int) ([]SearchHit, uint64, error)
}

// MessageIndex maintains a full-text Bluge index alongside the BadgerDB
// records so conversation content is searchable.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// SearchHit is one match returned by Search.
type SearchHit struct {
	MessageID    uuid.UUID
	Conversation string
	Sender       domain.Identity
	Content      string
}

// Index adds one message document. The conversation is a keyword field so
// searches stay scoped to a single room or DM thread.
func (m *MessageIndex) Index(conversation string, msg domain.Message) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField("conversation", conversation).StoreValue()).
		AddField(bluge.NewKeywordField("sender", string(msg.Sender)).StoreValue()).
		AddField(bluge.NewTextField("content", msg.Content).StoreValue())
	return m.writer.Update(doc.ID(), doc)
}

// Flush is kept for callers that batch index writes. Update is already
// durable so there is nothing left to force out.
func (m *MessageIndex) Flush() error {
	return nil
}

// Search returns up to limit hits matching terms inside one conversation,
// plus the total match count.
func (m *MessageIndex) Search(ctx context.Context, terms, conversation string, limit int) ([]SearchHit, uint64, error) {
	reader, err := m.writer.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			m.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content")).
		AddMust(bluge.NewTermQuery(conversation).SetField("conversation"))

	request := bluge.NewTopNSearch(limit, query).WithStandardAggregations()
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, err
	}

	var hits []SearchHit
	match, err := iterator.Next()
	for err == nil && match != nil {
		var hit SearchHit
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					hit.MessageID = id
				}
			case "conversation":
				hit.Conversation = string(value)
			case "sender":
				hit.Sender = domain.Identity(string(value))
			case "content":
				hit.Content = string(value)
			}
			return true
		})
		if visitErr != nil {
			return nil, 0, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, 0, err
	}
	return hits, iterator.Aggregations().Count(), nil
}
