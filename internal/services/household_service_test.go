package services

import (
	"errors"

	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/series"
)

func (s *ServiceTestSuite) TestCreateHousehold() {
	s.Len(s.household.InviteCode, 12)
	s.Equal(models.RoleAdmin, s.alice.Member.Role)
	s.Equal(models.MemberTypeAdult, s.alice.Member.Type)
	s.Equal(MemberPalette[0], s.alice.Member.Color)

	_, _, err := s.householdService().CreateHousehold(s.alice.UserID, "   ")
	var verr *series.ValidationError
	s.True(errors.As(err, &verr))
}

func (s *ServiceTestSuite) TestGetHousehold_HidesInviteCodeFromMembers() {
	household, err := s.householdService().GetHousehold(s.alice)
	s.Require().NoError(err)
	s.Equal(s.household.InviteCode, household.InviteCode)
	s.Len(household.Members, 3)

	household, err = s.householdService().GetHousehold(s.bob)
	s.Require().NoError(err)
	s.Empty(household.InviteCode)
}

func (s *ServiceTestSuite) TestJoinAndApprove() {
	carol := s.createUser("carol@example.com", "Carol")
	svc := s.householdService()

	result, events, err := svc.Join(carol.ID, carol.Name, s.household.InviteCode)
	s.Require().NoError(err)
	s.Equal(models.JoinRequestPending, result.Request.Status)
	request := s.single(events, models.NotificationJoinRequest)
	s.Equal([]string{s.alice.UserID}, request.Recipients)
	s.Equal("Carol", request.ActorName)

	again, events, err := svc.Join(carol.ID, carol.Name, s.household.InviteCode)
	s.Require().NoError(err)
	s.Equal(result.Request.ID, again.Request.ID)
	s.Empty(events)

	_, _, err = svc.ApproveRequest(s.bob, result.Request.ID)
	s.ErrorIs(err, ErrAdminRequired)

	member, events, err := svc.ApproveRequest(s.alice, result.Request.ID)
	s.Require().NoError(err)
	s.Equal(ApprovedMemberColor, member.Color)
	s.Equal(models.RoleMember, member.Role)
	accepted := s.single(events, models.NotificationJoinAccepted)
	s.Equal([]string{carol.ID}, accepted.Recipients)
	s.Equal("Martin", accepted.Subject)

	_, _, err = svc.ApproveRequest(s.alice, result.Request.ID)
	s.ErrorIs(err, ErrJoinRequestHandled)

	_, _, err = svc.Join(carol.ID, carol.Name, s.household.InviteCode)
	s.ErrorIs(err, ErrAlreadyMember)
}

func (s *ServiceTestSuite) TestJoin_RejectedAndUnknownCode() {
	dave := s.createUser("dave@example.com", "Dave")
	svc := s.householdService()

	_, _, err := svc.Join(dave.ID, dave.Name, "nope")
	s.ErrorIs(err, ErrInvalidInviteCode)

	result, _, err := svc.Join(dave.ID, dave.Name, s.household.InviteCode)
	s.Require().NoError(err)
	s.Require().NoError(svc.RejectRequest(s.alice, result.Request.ID))

	_, _, err = svc.Join(dave.ID, dave.Name, s.household.InviteCode)
	s.ErrorIs(err, ErrJoinRequestRejected)
}

func (s *ServiceTestSuite) TestJoin_AfterRemovalReopensRequest() {
	erin := s.createUser("erin@example.com", "Erin")
	svc := s.householdService()

	result, _, err := svc.Join(erin.ID, erin.Name, s.household.InviteCode)
	s.Require().NoError(err)
	member, _, err := svc.ApproveRequest(s.alice, result.Request.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.memberService().DeleteMember(s.alice, member.ID))

	again, events, err := svc.Join(erin.ID, erin.Name, s.household.InviteCode)
	s.Require().NoError(err)
	s.Equal(result.Request.ID, again.Request.ID)
	s.Equal(models.JoinRequestPending, again.Request.Status)
	s.Len(events, 1)

	pending, err := svc.ListPendingRequests(s.alice)
	s.Require().NoError(err)
	s.Len(pending, 1)
}

func (s *ServiceTestSuite) TestRegenerateInviteCode() {
	_, err := s.householdService().RegenerateInviteCode(s.bob)
	s.ErrorIs(err, ErrAdminRequired)

	household, err := s.householdService().RegenerateInviteCode(s.alice)
	s.Require().NoError(err)
	s.NotEqual(s.household.InviteCode, household.InviteCode)

	_, err = s.households.FindByInviteCode(s.household.InviteCode)
	s.Error(err)
}

func (s *ServiceTestSuite) TestListHouseholds() {
	memberships, err := s.householdService().ListHouseholds(s.bob.UserID)
	s.Require().NoError(err)
	s.Require().Len(memberships, 1)
	s.Equal("Martin", memberships[0].Household.Name)
}

func (s *ServiceTestSuite) TestAddMember_NotifiesAccountHolders() {
	age := 4
	pet := models.PetCat
	member, events, err := s.memberService().AddMember(s.bob, AddMemberInput{
		Nickname: "Mimi",
		Type:     models.MemberTypePet,
		Age:      &age,
		PetType:  &pet,
	})
	s.Require().NoError(err)
	s.Contains(MemberPalette, member.Color)
	s.Equal(models.PetCat, *member.PetType)

	added := s.single(events, models.NotificationMemberAdded)
	s.Equal([]string{s.alice.UserID}, added.Recipients)
	s.Equal(models.MemberTypePet, added.MemberType)
	s.Equal("Mimi", added.Subject)

	_, _, err = s.memberService().AddMember(s.bob, AddMemberInput{Nickname: "Grandpa", Type: models.MemberTypeAdult})
	s.ErrorIs(err, ErrInvalidMemberType)

	_, _, err = s.memberService().AddMember(s.bob, AddMemberInput{Nickname: "Tom", Type: models.MemberTypeChild, Color: "red"})
	s.ErrorIs(err, ErrInvalidColor)
}

func (s *ServiceTestSuite) TestUpdateMember_Rules() {
	svc := s.memberService()

	_, err := svc.UpdateMember(s.bob, s.alice.Member.ID, UpdateMemberInput{Color: strPtr("#000000")})
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = svc.UpdateMember(s.alice, s.bob.Member.ID, UpdateMemberInput{Nickname: strPtr("Bobby")})
	s.ErrorIs(err, ErrPermissionDenied)

	updated, err := svc.UpdateMember(s.alice, s.bob.Member.ID, UpdateMemberInput{Color: strPtr("#123456")})
	s.Require().NoError(err)
	s.Equal("#123456", updated.Color)

	updated, err = svc.UpdateMember(s.bob, s.bob.Member.ID, UpdateMemberInput{Nickname: strPtr("Bobby"), Color: strPtr("#654321")})
	s.Require().NoError(err)
	s.Equal("Bobby", updated.Nickname)

	age := 7
	updated, err = svc.UpdateMember(s.bob, s.kid.ID, UpdateMemberInput{Nickname: strPtr("Léon"), Age: &age})
	s.Require().NoError(err)
	s.Equal("Léon", updated.Nickname)
	s.Equal(7, *updated.Age)
}

func (s *ServiceTestSuite) TestDeleteMember_Rules() {
	svc := s.memberService()

	s.ErrorIs(svc.DeleteMember(s.alice, s.alice.Member.ID), ErrCannotDeleteSelf)
	s.ErrorIs(svc.DeleteMember(s.bob, s.alice.Member.ID), ErrAdminRequired)

	s.Require().NoError(svc.DeleteMember(s.bob, s.kid.ID))
	s.Require().NoError(svc.DeleteMember(s.alice, s.bob.Member.ID))
	s.ErrorIs(svc.DeleteMember(s.alice, s.bob.Member.ID), ErrMemberNotFound)
}
