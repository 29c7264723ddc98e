package app

import (
	"crypto/rand"
	"errors"
	"fmt"

	"mindscribe/internal/model"
)

var (
	ErrTeamNotFound    = errors.New("team not found")
	ErrNotTeamMember   = errors.New("not a member of this team")
	ErrAlreadyMember   = errors.New("already a member of this team")
	ErrBadInviteCode   = errors.New("invalid invite code")
	ErrLeadCannotLeave = errors.New("the team lead cannot leave their own team")
)

const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const inviteCodeLength = 6

type TeamStore interface {
	Create(team *model.Team) error
	GetByID(id uint) (*model.Team, error)
	GetByInviteCode(code string) (*model.Team, error)
	ListByMemberUserID(userID uint) ([]model.Team, error)
}

type TeamMemberStore interface {
	Create(member *model.TeamMember) error
	Get(teamID, userID uint) (*model.TeamMember, error)
	ListByTeamID(teamID uint) ([]model.TeamMember, error)
	Delete(teamID, userID uint) error
}

type TeamService struct {
	teams   TeamStore
	members TeamMemberStore
}

func NewTeamService(teams TeamStore, members TeamMemberStore) *TeamService {
	return &TeamService{teams: teams, members: members}
}

// Create makes the caller the team's sole lead and generates its invite code.
func (s *TeamService) Create(userID uint, name string) (*model.Team, error) {
	if userID == 0 || name == "" {
		return nil, ErrInvalidInput
	}

	code, err := newInviteCode()
	if err != nil {
		return nil, err
	}

	team := &model.Team{
		OwnerID:    userID,
		Name:       name,
		InviteCode: code,
	}
	if err := s.teams.Create(team); err != nil {
		return nil, err
	}

	lead := &model.TeamMember{
		TeamID: team.ID,
		UserID: userID,
		Role:   model.RoleLead,
	}
	if err := s.members.Create(lead); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) List(userID uint) ([]model.Team, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.teams.ListByMemberUserID(userID)
}

// Get returns the team and the caller's membership. The invite code is only
// exposed to the lead; it is blanked for everyone else.
func (s *TeamService) Get(teamID, userID uint) (*model.Team, *model.TeamMember, error) {
	team, err := s.teams.GetByID(teamID)
	if err != nil {
		return nil, nil, err
	}
	if team == nil {
		return nil, nil, ErrTeamNotFound
	}

	member, err := s.members.Get(teamID, userID)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		return nil, nil, ErrNotTeamMember
	}

	if member.Role != model.RoleLead {
		team.InviteCode = ""
	}
	return team, member, nil
}

func (s *TeamService) Members(teamID, requesterID uint) ([]model.TeamMember, error) {
	if _, _, err := s.Get(teamID, requesterID); err != nil {
		return nil, err
	}
	return s.members.ListByTeamID(teamID)
}

func (s *TeamService) Join(teamID, userID uint, inviteCode string) (*model.TeamMember, error) {
	team, err := s.teams.GetByID(teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	if team.InviteCode != inviteCode {
		return nil, ErrBadInviteCode
	}

	existing, err := s.members.Get(teamID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	member := &model.TeamMember{
		TeamID: teamID,
		UserID: userID,
		Role:   model.RoleMember,
	}
	if err := s.members.Create(member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *TeamService) Leave(teamID, userID uint) error {
	member, err := s.members.Get(teamID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotTeamMember
	}
	if member.Role == model.RoleLead {
		return ErrLeadCannotLeave
	}
	return s.members.Delete(teamID, userID)
}

// IsMember reports whether the user belongs to the team; used to gate team
// chat and team search.
func (s *TeamService) IsMember(teamID, userID uint) (bool, error) {
	member, err := s.members.Get(teamID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

// MemberRole returns the user's role in the team, or ErrNotTeamMember.
func (s *TeamService) MemberRole(teamID, userID uint) (string, error) {
	member, err := s.members.Get(teamID, userID)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", ErrNotTeamMember
	}
	return member.Role, nil
}

// MemberUserIDs returns every member's user id, the candidate set for
// team-wide entry search.
func (s *TeamService) MemberUserIDs(teamID uint) ([]uint, error) {
	members, err := s.members.ListByTeamID(teamID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

func newInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite code failed: %w", err)
	}
	code := make([]byte, inviteCodeLength)
	for i, b := range buf {
		code[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(code), nil
}
