package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscribe/internal/model"
)

type memTeamStore struct {
	teams  map[uint]*model.Team
	nextID uint
}

func newMemTeamStore() *memTeamStore {
	return &memTeamStore{teams: map[uint]*model.Team{}, nextID: 1}
}

func (s *memTeamStore) Create(team *model.Team) error {
	team.ID = s.nextID
	s.nextID++
	copied := *team
	s.teams[team.ID] = &copied
	return nil
}

func (s *memTeamStore) GetByID(id uint) (*model.Team, error) {
	t, ok := s.teams[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *memTeamStore) GetByInviteCode(code string) (*model.Team, error) {
	for _, t := range s.teams {
		if t.InviteCode == code {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memTeamStore) ListByMemberUserID(userID uint) ([]model.Team, error) {
	return nil, nil
}

type memTeamMemberStore struct {
	members []*model.TeamMember
	nextID  uint
}

func newMemTeamMemberStore() *memTeamMemberStore {
	return &memTeamMemberStore{nextID: 1}
}

func (s *memTeamMemberStore) Create(member *model.TeamMember) error {
	member.ID = s.nextID
	s.nextID++
	copied := *member
	s.members = append(s.members, &copied)
	return nil
}

func (s *memTeamMemberStore) Get(teamID, userID uint) (*model.TeamMember, error) {
	for _, m := range s.members {
		if m.TeamID == teamID && m.UserID == userID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memTeamMemberStore) ListByTeamID(teamID uint) ([]model.TeamMember, error) {
	var out []model.TeamMember
	for _, m := range s.members {
		if m.TeamID == teamID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memTeamMemberStore) Delete(teamID, userID uint) error {
	for i, m := range s.members {
		if m.TeamID == teamID && m.UserID == userID {
			s.members = append(s.members[:i], s.members[i+1:]...)
			return nil
		}
	}
	return nil
}

func newTestTeamService() *TeamService {
	return NewTeamService(newMemTeamStore(), newMemTeamMemberStore())
}

func TestCreateTeamMakesCallerLead(t *testing.T) {
	svc := newTestTeamService()

	team, err := svc.Create(1, "infra")
	require.NoError(t, err)
	assert.Len(t, team.InviteCode, 6)

	role, err := svc.MemberRole(team.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoleLead, role)
}

func TestJoinWithInviteCode(t *testing.T) {
	svc := newTestTeamService()

	team, err := svc.Create(1, "infra")
	require.NoError(t, err)

	member, err := svc.Join(team.ID, 2, team.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, member.Role)

	_, err = svc.Join(team.ID, 3, "WRONG1")
	assert.ErrorIs(t, err, ErrBadInviteCode)

	_, err = svc.Join(team.ID, 2, team.InviteCode)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInviteCodeHiddenFromMembers(t *testing.T) {
	svc := newTestTeamService()

	team, err := svc.Create(1, "infra")
	require.NoError(t, err)
	_, err = svc.Join(team.ID, 2, team.InviteCode)
	require.NoError(t, err)

	asLead, _, err := svc.Get(team.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, team.InviteCode, asLead.InviteCode)

	asMember, _, err := svc.Get(team.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, asMember.InviteCode)

	_, _, err = svc.Get(team.ID, 99)
	assert.ErrorIs(t, err, ErrNotTeamMember)
}

func TestLeadCannotLeave(t *testing.T) {
	svc := newTestTeamService()

	team, err := svc.Create(1, "infra")
	require.NoError(t, err)
	_, err = svc.Join(team.ID, 2, team.InviteCode)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Leave(team.ID, 1), ErrLeadCannotLeave)
	require.NoError(t, svc.Leave(team.ID, 2))

	ok, err := svc.IsMember(team.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemberUserIDs(t *testing.T) {
	svc := newTestTeamService()

	team, err := svc.Create(1, "infra")
	require.NoError(t, err)
	_, err = svc.Join(team.ID, 2, team.InviteCode)
	require.NoError(t, err)
	_, err = svc.Join(team.ID, 3, team.InviteCode)
	require.NoError(t, err)

	ids, err := svc.MemberUserIDs(team.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2, 3}, ids)
}

func TestInviteCodeAlphabet(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := newInviteCode()
		require.NoError(t, err)
		require.Len(t, code, inviteCodeLength)
		for _, ch := range code {
			assert.Contains(t, inviteCodeAlphabet, string(ch))
		}
	}
}
