package services

import (
	"chat-hub/domain"
	"chat-hub/repositories"
	"log/slog"
)

type IGroupService interface {
	Create(admin domain.Identity, name, image string, invited []domain.Identity) (domain.Group, error)
	Get(id domain.GroupID) (domain.Group, error)
	For(identity domain.Identity) ([]domain.Group, error)
	Update(actor domain.Identity, id domain.GroupID, name, image *string, add, remove []domain.Identity) (domain.Group, error)
	Delete(actor domain.Identity, id domain.GroupID) error
}

// GroupService wraps the group repository and takes care of purging a
// group's history when it is deleted.
type GroupService struct {
	log      *slog.Logger
	groups   repositories.GroupRepository
	messages repositories.MessageRepository
}

func NewGroupService(log *slog.Logger, groups repositories.GroupRepository, messages repositories.MessageRepository) *GroupService {
	return &GroupService{log: log, groups: groups, messages: messages}
}

func (s *GroupService) Create(admin domain.Identity, name, image string, invited []domain.Identity) (domain.Group, error) {
	return s.groups.CreateGroup(admin, name, image, invited)
}

func (s *GroupService) Get(id domain.GroupID) (domain.Group, error) {
	return s.groups.Group(id)
}

func (s *GroupService) For(identity domain.Identity) ([]domain.Group, error) {
	return s.groups.GroupsFor(identity)
}

func (s *GroupService) Update(actor domain.Identity, id domain.GroupID, name, image *string, add, remove []domain.Identity) (domain.Group, error) {
	return s.groups.UpdateGroup(actor, id, name, image, add, remove)
}

// Delete removes the group and its whole conversation history.
func (s *GroupService) Delete(actor domain.Identity, id domain.GroupID) error {
	if err := s.groups.DeleteGroup(actor, id); err != nil {
		return err
	}
	conversation := domain.GroupConversation(id)
	if err := s.messages.DeleteConversation(conversation); err != nil {
		s.log.Warn("Failed to purge conversation after group deletion", "group_id", id, "error", err)
	}
	return nil
}
