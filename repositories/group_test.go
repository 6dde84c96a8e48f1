package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestGroupRepository_Create_And_Fetch(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openTestDB(t), testLogger())

	// When alice creates a group with two invitees
	created, err := repo.CreateGroup("alice@example.com", "weekend plans", "", []domain.Identity{
		"bob@example.com", "carol@example.com",
	})
	req.NoError(err)

	// Then the document round-trips with the admin listed first
	fetched, err := repo.Group(created.ID)
	req.NoError(err)
	req.Equal("weekend plans", fetched.Name)
	req.Equal(domain.Identity("alice@example.com"), fetched.Admin)
	req.Equal([]domain.Identity{"alice@example.com", "bob@example.com", "carol@example.com"}, fetched.Members)
}

func TestGroupRepository_Create_Enforces_Member_Count(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openTestDB(t), testLogger())

	// Nobody invited
	_, err := repo.CreateGroup("alice@example.com", "solo", "", nil)
	req.ErrorIs(err, errors.ErrMemberCount)

	// Inviting only yourself counts as nobody
	_, err = repo.CreateGroup("alice@example.com", "mirror", "", []domain.Identity{"alice@example.com"})
	req.ErrorIs(err, errors.ErrMemberCount)

	// Six distinct invitees is one too many
	_, err = repo.CreateGroup("alice@example.com", "crowd", "", []domain.Identity{
		"m1@example.com", "m2@example.com", "m3@example.com",
		"m4@example.com", "m5@example.com", "m6@example.com",
	})
	req.ErrorIs(err, errors.ErrMemberCount)

	// Duplicates collapse before the count
	created, err := repo.CreateGroup("alice@example.com", "dedup", "", []domain.Identity{
		"bob@example.com", "bob@example.com",
	})
	req.NoError(err)
	req.Len(created.Members, 2)
}

func TestGroupRepository_GroupsFor_Filters_By_Membership(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openTestDB(t), testLogger())

	_, err := repo.CreateGroup("alice@example.com", "with bob", "", []domain.Identity{"bob@example.com"})
	req.NoError(err)
	_, err = repo.CreateGroup("carol@example.com", "without bob", "", []domain.Identity{"dave@example.com"})
	req.NoError(err)

	groups, err := repo.GroupsFor("bob@example.com")
	req.NoError(err)
	req.Len(groups, 1)
	req.Equal("with bob", groups[0].Name)
}

func TestGroupRepository_Any_Member_May_Rename(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openTestDB(t), testLogger())
	created, err := repo.CreateGroup("alice@example.com", "old name", "", []domain.Identity{"bob@example.com"})
	req.NoError(err)

	// When bob, a plain member, renames the group
	updated, err := repo.UpdateGroup("bob@example.com", created.ID, lo.ToPtr("new name"), nil, nil, nil)

	req.NoError(err)
	req.Equal("new name", updated.Name)
}

func TestGroupRepository_Membership_Changes_Are_Admin_Only(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openTestDB(t), testLogger())
	created, err := repo.CreateGroup("alice@example.com", "team", "", []domain.Identity{"bob@example.com"})
	req.NoError(err)

	// When bob tries to invite carol
	_, err = repo.UpdateGroup("bob@example.com", created.ID, nil, nil, []domain.Identity{"carol@example.com"}, nil)
	req.ErrorIs(err, errors.ErrNotGroupAdmin)

	// When alice does it
	updated, err := repo.UpdateGroup("alice@example.com", created.ID, nil, nil, []domain.Identity{"carol@example.com"}, nil)
	req.NoError(err)
	req.Contains(updated.Members, domain.Identity("carol@example.com"))

	// And alice removes bob
	updated, err = repo.UpdateGroup("alice@example.com", created.ID, nil, nil, nil, []domain.Identity{"bob@example.com"})
	req.NoError(err)
	req.NotContains(updated.Members, domain.Identity("bob@example.com"))
}

func TestGroupRepository_Admin_Is_Never_Removed(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openTestDB(t), testLogger())
	created, err := repo.CreateGroup("alice@example.com", "team", "", []domain.Identity{"bob@example.com"})
	req.NoError(err)

	// When the admin appears in the removal list
	updated, err := repo.UpdateGroup("alice@example.com", created.ID, nil, nil, nil, []domain.Identity{
		"alice@example.com", "bob@example.com",
	})

	// Then only bob is gone
	req.NoError(err)
	req.Equal([]domain.Identity{"alice@example.com"}, updated.Members)
}

func TestGroupRepository_NonMember_Sees_Not_Found(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openTestDB(t), testLogger())
	created, err := repo.CreateGroup("alice@example.com", "private", "", []domain.Identity{"bob@example.com"})
	req.NoError(err)

	// Outsiders cannot learn the group exists
	_, err = repo.UpdateGroup("mallory@example.com", created.ID, lo.ToPtr("hacked"), nil, nil, nil)
	req.ErrorIs(err, errors.ErrGroupNotFound)
}

func TestGroupRepository_Delete_Is_Admin_Only(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openTestDB(t), testLogger())
	created, err := repo.CreateGroup("alice@example.com", "doomed", "", []domain.Identity{"bob@example.com"})
	req.NoError(err)

	req.ErrorIs(repo.DeleteGroup("bob@example.com", created.ID), errors.ErrNotGroupAdmin)

	req.NoError(repo.DeleteGroup("alice@example.com", created.ID))
	_, err = repo.Group(created.ID)
	req.ErrorIs(err, errors.ErrGroupNotFound)
}

func TestGroupRepository_Members_Resolves_Current_Roster(t *testing.T) {
	req := require.New(t)
	repo := NewGroupRepository(openTestDB(t), testLogger())
	created, err := repo.CreateGroup("alice@example.com", "team", "", []domain.Identity{"bob@example.com"})
	req.NoError(err)

	members, err := repo.Members(context.Background(), created.ID)
	req.NoError(err)
	req.Equal([]domain.Identity{"alice@example.com", "bob@example.com"}, members)

	_, err = repo.Members(context.Background(), "missing")
	req.ErrorIs(err, errors.ErrGroupNotFound)
}
