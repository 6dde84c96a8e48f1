package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	minInvitedMembers = 1
	maxInvitedMembers = 5
)

// GroupRepository persists group documents in BadgerDB under "group:{id}".
// It also serves as the membership source the dispatcher consults when
// fanning out group traffic.
type GroupRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewGroupRepository(db *badger.DB, log *slog.Logger) GroupRepository {
	return GroupRepository{db: db, log: log}
}

type groupRecord struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Image   string   `json:"image,omitempty"`
	Admin   string   `json:"admin"`
	Members []string `json:"members"`
	At      int64    `json:"at"`
}

// CreateGroup registers a new group with admin as first member. Between one
// and five other members must be invited at creation.
func (g GroupRepository) CreateGroup(admin domain.Identity, name, image string, invited []domain.Identity) (domain.Group, error) {
	invited = lo.Uniq(lo.Without(invited, admin))
	if len(invited) < minInvitedMembers || len(invited) > maxInvitedMembers {
		return domain.Group{}, errors.ErrMemberCount
	}

	group := domain.Group{
		ID:        domain.GroupID(uuid.NewString()),
		Name:      name,
		Image:     image,
		Admin:     admin,
		Members:   append([]domain.Identity{admin}, invited...),
		CreatedAt: time.Now().UTC(),
	}
	if err := g.write(group); err != nil {
		return domain.Group{}, err
	}
	g.log.Info("Group created", "group_id", group.ID, "admin", admin, "members", len(group.Members))
	return group, nil
}

// Group fetches one group document.
func (g GroupRepository) Group(id domain.GroupID) (domain.Group, error) {
	var group domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(groupKey(id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrGroupNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			group, err = groupFromBytes(val)
			return err
		})
	})
	return group, err
}

// GroupsFor lists every group the identity belongs to.
func (g GroupRepository) GroupsFor(identity domain.Identity) ([]domain.Group, error) {
	var groups []domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		prefix := []byte("group:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				group, err := groupFromBytes(val)
				if err != nil {
					return err
				}
				if group.HasMember(identity) {
					groups = append(groups, group)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return groups, err
}

// UpdateGroup applies a partial update. Any member may rename the group or
// change its image, only the admin may add or remove members, and the admin
// is never removable.
func (g GroupRepository) UpdateGroup(actor domain.Identity, id domain.GroupID, name, image *string, add, remove []domain.Identity) (domain.Group, error) {
	group, err := g.Group(id)
	if err != nil {
		return domain.Group{}, err
	}
	if !group.HasMember(actor) {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	if (len(add) > 0 || len(remove) > 0) && actor != group.Admin {
		return domain.Group{}, errors.ErrNotGroupAdmin
	}

	if name != nil {
		group.Name = *name
	}
	if image != nil {
		group.Image = *image
	}
	for _, member := range add {
		if !group.HasMember(member) {
			group.Members = append(group.Members, member)
		}
	}
	group.Members = lo.Without(group.Members, lo.Without(remove, group.Admin)...)

	if err = g.write(group); err != nil {
		return domain.Group{}, err
	}
	return group, nil
}

// DeleteGroup removes the group document. Admin only; the caller takes care
// of purging the conversation history.
func (g GroupRepository) DeleteGroup(actor domain.Identity, id domain.GroupID) error {
	group, err := g.Group(id)
	if err != nil {
		return err
	}
	if actor != group.Admin {
		return errors.ErrNotGroupAdmin
	}
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(groupKey(id))
	})
}

// Members implements contract.IMembershipProvider.
func (g GroupRepository) Members(_ context.Context, id domain.GroupID) ([]domain.Identity, error) {
	group, err := g.Group(id)
	if err != nil {
		return nil, err
	}
	return group.Members, nil
}

func (g GroupRepository) write(group domain.Group) error {
	bytes, err := json.Marshal(groupRecord{
		ID:      string(group.ID),
		Name:    group.Name,
		Image:   group.Image,
		Admin:   string(group.Admin),
		Members: lo.Map(group.Members, func(id domain.Identity, _ int) string { return string(id) }),
		At:      group.CreatedAt.UnixNano(),
	})
	if err != nil {
		return err
	}
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Set(groupKey(group.ID), bytes)
	})
}

func groupKey(id domain.GroupID) []byte {
	return []byte("group:" + string(id))
}

func groupFromBytes(val []byte) (domain.Group, error) {
	var record groupRecord
	if err := json.Unmarshal(val, &record); err != nil {
		return domain.Group{}, err
	}
	return domain.Group{
		ID:        domain.GroupID(record.ID),
		Name:      record.Name,
		Image:     record.Image,
		Admin:     domain.Identity(record.Admin),
		Members:   lo.Map(record.Members, func(s string, _ int) domain.Identity { return domain.Identity(s) }),
		CreatedAt: time.Unix(0, record.At).UTC(),
	}, nil
}
