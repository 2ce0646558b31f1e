package repository

import (
	"github.com/yukikurage/ensemble/internal/models"
)

func (s *RepositoryTestSuite) TestCreateWithAdmin() {
	stored, err := s.households.FindByInviteCode("ABCDEFGHJKLM")
	s.Require().NoError(err)
	s.Equal(s.household.ID, stored.ID)

	admin, err := s.members.FindByUser(s.household.ID, *s.alice.UserID)
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, admin.Role)
	s.Require().NotNil(admin.User)
	s.Equal("Alice", admin.User.Name)

	memberships, err := s.households.ListMembershipsByUserID(*s.alice.UserID)
	s.Require().NoError(err)
	s.Require().Len(memberships, 1)
	s.Require().NotNil(memberships[0].Household)
	s.Equal("Martin", memberships[0].Household.Name)
}

func (s *RepositoryTestSuite) TestApproveJoinRequest() {
	carol := s.createUser("carol@example.com", "Carol")
	req := &models.JoinRequest{UserID: carol.ID, HouseholdID: s.household.ID, Status: models.JoinRequestPending}
	s.Require().NoError(s.households.CreateJoinRequest(req))

	pending, err := s.households.ListPendingJoinRequests(s.household.ID)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal("Carol", pending[0].User.Name)

	member := &models.Member{HouseholdID: s.household.ID, UserID: &carol.ID, Role: models.RoleMember, Type: models.MemberTypeAdult}
	s.Require().NoError(s.households.ApproveJoinRequest(req, member))
	s.Equal(models.JoinRequestApproved, req.Status)

	stored, err := s.households.FindJoinRequest(carol.ID, s.household.ID)
	s.Require().NoError(err)
	s.Equal(models.JoinRequestApproved, stored.Status)

	_, err = s.members.FindByUser(s.household.ID, carol.ID)
	s.Require().NoError(err)

	again := &models.Member{HouseholdID: s.household.ID, UserID: &carol.ID}
	err = s.households.ApproveJoinRequest(req, again)
	s.ErrorIs(err, ErrJoinRequestNotPending)
	s.Equal(int64(1), s.countRows(&models.Member{}, "user_id = ?", carol.ID))
}

func (s *RepositoryTestSuite) TestMemberDelete_RemovesReferences() {
	events := s.createSeries(5, 12)
	s.createTask("Feed the cat", models.TaskStatusTodo, nil, s.kid.ID)

	s.Require().NoError(s.members.Delete(s.kid.ID))

	s.Equal(int64(0), s.countRows(&models.EventParticipant{}, "member_id = ?", s.kid.ID))
	s.Equal(int64(0), s.countRows(&models.TaskAssignee{}, "member_id = ?", s.kid.ID))
	s.Equal(int64(1), s.countRows(&models.EventParticipant{}, "event_id = ?", events[0].ID))

	members, err := s.members.ListByHousehold(s.household.ID)
	s.Require().NoError(err)
	s.Len(members, 2)
	s.Equal(models.RoleAdmin, members[0].Role)
}

func (s *RepositoryTestSuite) TestMemberListByIDs() {
	members, err := s.members.ListByIDs(s.household.ID, []string{s.bob.ID, "missing"})
	s.Require().NoError(err)
	s.Len(members, 1)

	admins, err := s.members.ListAdmins(s.household.ID)
	s.Require().NoError(err)
	s.Require().Len(admins, 1)
	s.Equal(s.alice.ID, admins[0].ID)
}

func (s *RepositoryTestSuite) TestNotifications() {
	userID := *s.bob.UserID
	for _, title := range []string{"first", "second", "third"} {
		s.Require().NoError(s.notifications.Create(&models.Notification{
			UserID:      userID,
			HouseholdID: s.household.ID,
			Kind:        models.NotificationTaskAssigned,
			Title:       title,
			Message:     title,
		}))
	}

	list, err := s.notifications.ListForUser(userID, 2)
	s.Require().NoError(err)
	s.Len(list, 2)

	unread, err := s.notifications.CountUnread(userID)
	s.Require().NoError(err)
	s.Equal(int64(3), unread)

	s.Require().NoError(s.notifications.MarkRead(list[0].ID, userID))
	s.Error(s.notifications.MarkRead(list[0].ID, *s.alice.UserID))

	unread, err = s.notifications.CountUnread(userID)
	s.Require().NoError(err)
	s.Equal(int64(2), unread)

	s.Require().NoError(s.notifications.MarkAllRead(userID))
	unread, err = s.notifications.CountUnread(userID)
	s.Require().NoError(err)
	s.Equal(int64(0), unread)
}

func (s *RepositoryTestSuite) TestUserFindByEmail_CaseInsensitive() {
	user, err := s.users.FindByEmail("ALICE@example.com")
	s.Require().NoError(err)
	s.Equal("Alice", user.Name)
}
