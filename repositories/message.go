package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MessageRepository persists message records in BadgerDB. It implements the
// contract.IMessageStore collaborator.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// messageRecord is the JSON document written to disk.
type messageRecord struct {
	ID           string   `json:"id"`
	Conversation string   `json:"conversation"`
	Sender       string   `json:"sender"`
	Content      string   `json:"content"`
	Lang         string   `json:"lang,omitempty"`
	FileURL      string   `json:"file_url,omitempty"`
	FileName     string   `json:"file_name,omitempty"`
	FileKind     string   `json:"file_kind,omitempty"`
	SeenBy       []string `json:"seen_by,omitempty"`
	At           int64    `json:"at"`
}

// StoreMessage persists a message under "msg:{conversation}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding keeps chronological and lexicographical
//     order aligned.
//  2. The UUID suffix disambiguates two messages arriving in the same
//     nanosecond.
//
// A secondary "msgid:{uuid}" entry points back at the primary key so seen
// updates can reach a record without knowing its conversation or timestamp.
func (m MessageRepository) StoreMessage(conversation string, msg domain.StoredMessage) error {
	key := primaryKey(conversation, msg.Message.CreatedAt, msg.Message.ID)
	bytes, err := json.Marshal(toRecord(conversation, msg))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set(indexKey(msg.Message.ID), []byte(key))
	})
}

// Messages retrieves a conversation page using a reverse prefix scan.
// Thanks to the padded timestamp in the key, records come out newest first;
// the returned cursor resumes the scan on the next call.
func (m MessageRepository) Messages(conversation string, cursor *string) ([]domain.StoredMessage, *string, error) {
	var rawRecords [][]byte
	var lastKey string

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", conversation)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk backward.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(rawRecords) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				rawRecords = append(rawRecords, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var messages []domain.StoredMessage
	for _, raw := range rawRecords {
		var record messageRecord
		if err = json.Unmarshal(raw, &record); err != nil {
			return nil, nil, err
		}
		msg, err := fromRecord(record)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, msg)
	}
	if lastKey == "" {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

// AddSeen appends identity to one message's seen record, resolving the
// primary key through the msgid index. Already acknowledged identities are
// a no-op.
func (m MessageRepository) AddSeen(messageID uuid.UUID, identity domain.Identity) error {
	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(messageID))
		if err == badger.ErrKeyNotFound {
			return errors.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		var key []byte
		if err := item.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}
		_, err = addSeenToKey(txn, key, identity)
		return err
	})
}

// MarkConversationSeen adds identity to every message of the conversation
// not already acknowledged by it. It returns the IDs newly marked and is
// safe to call on every conversation open.
func (m MessageRepository) MarkConversationSeen(conversation string, identity domain.Identity) ([]uuid.UUID, error) {
	var newly []uuid.UUID
	err := m.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", conversation))

		var keys [][]byte
		func() {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}()

		for _, key := range keys {
			id, err := addSeenToKey(txn, key, identity)
			if err != nil {
				return err
			}
			if id != uuid.Nil {
				newly = append(newly, id)
			}
		}
		return nil
	})
	return newly, err
}

// DeleteConversation removes every record and msgid entry of a
// conversation, used when a group is deleted.
func (m MessageRepository) DeleteConversation(conversation string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", conversation))

		var keys [][]byte
		var ids []uuid.UUID
		err := func() error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				keys = append(keys, item.KeyCopy(nil))
				var record messageRecord
				err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &record)
				})
				if err != nil {
					return err
				}
				if id, err := uuid.Parse(record.ID); err == nil {
					ids = append(ids, id)
				}
			}
			return nil
		}()
		if err != nil {
			return err
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, id := range ids {
			if err := txn.Delete(indexKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// addSeenToKey rewrites one record with the identity appended. It returns
// the message ID when the identity was newly added, uuid.Nil otherwise.
func addSeenToKey(txn *badger.Txn, key []byte, identity domain.Identity) (uuid.UUID, error) {
	item, err := txn.Get(key)
	if err != nil {
		return uuid.Nil, err
	}
	var record messageRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	}); err != nil {
		return uuid.Nil, err
	}
	for _, seen := range record.SeenBy {
		if seen == string(identity) {
			return uuid.Nil, nil
		}
	}
	record.SeenBy = append(record.SeenBy, string(identity))
	bytes, err := json.Marshal(record)
	if err != nil {
		return uuid.Nil, err
	}
	if err := txn.Set(key, bytes); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(record.ID)
}

func primaryKey(conversation string, at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("msg:%s:%019d:%s", conversation, at.UnixNano(), id)
}

func indexKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

func toRecord(conversation string, msg domain.StoredMessage) messageRecord {
	return messageRecord{
		ID:           msg.Message.ID.String(),
		Conversation: conversation,
		Sender:       string(msg.Message.Sender),
		Content:      msg.Message.Content,
		Lang:         msg.Message.Lang,
		FileURL:      msg.Message.FileURL,
		FileName:     msg.Message.FileName,
		FileKind:     string(msg.Message.FileKind),
		SeenBy:       lo.Map(msg.SeenBy, func(id domain.Identity, _ int) string { return string(id) }),
		At:           msg.Message.CreatedAt.UnixNano(),
	}
}

func fromRecord(record messageRecord) (domain.StoredMessage, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.StoredMessage{}, err
	}
	return domain.StoredMessage{
		Message: domain.Message{
			ID:        parsedID,
			Sender:    domain.Identity(record.Sender),
			Content:   record.Content,
			Lang:      record.Lang,
			FileURL:   record.FileURL,
			FileName:  record.FileName,
			FileKind:  domain.FileKind(record.FileKind),
			CreatedAt: time.Unix(0, record.At).UTC(),
		},
		SeenBy: lo.Map(record.SeenBy, func(s string, _ int) domain.Identity { return domain.Identity(s) }),
	}, nil
}
