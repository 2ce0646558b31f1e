package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/repository"
	"github.com/yukikurage/ensemble/internal/services"
)

func (suite *HandlerTestSuite) newUser(email, name string) *models.User {
	user, err := services.NewAuthService(repository.NewUserRepository(suite.db)).
		Register(services.RegisterInput{Email: email, Name: name, Password: "secret123"})
	suite.Require().NoError(err)
	return user
}

func (suite *HandlerTestSuite) householdHandler() *HouseholdHandler {
	return NewHouseholdHandler(suite.households, suite.dispatcher)
}

// TestCreateHousehold_Success tests that the creator becomes admin
func (suite *HandlerTestSuite) TestCreateHousehold_Success() {
	carol := suite.newUser("carol@example.com", "Carol")

	c, w := suite.newContext(http.MethodPost, "/api/households", map[string]string{"name": "Dupont"}, carol)
	suite.householdHandler().CreateHousehold(c)

	response := suite.requireSuccess(w, http.StatusCreated)
	household := response["household"].(map[string]interface{})
	member := response["member"].(map[string]interface{})
	suite.Equal("Dupont", household["name"])
	suite.Len(household["invite_code"], 12)
	suite.Equal("ADMIN", member["role"])
	suite.Equal("ADULT", member["type"])
}

// TestCreateHousehold_MissingName tests the request validation
func (suite *HandlerTestSuite) TestCreateHousehold_MissingName() {
	c, w := suite.newContext(http.MethodPost, "/api/households", map[string]string{}, suite.alice)
	suite.householdHandler().CreateHousehold(c)

	suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")
}

// TestGetHousehold_InviteCodeForAdminsOnly tests invite code visibility
func (suite *HandlerTestSuite) TestGetHousehold_InviteCodeForAdminsOnly() {
	c, w := suite.asAlice(http.MethodGet, "/api/households/h", nil)
	suite.householdHandler().GetHousehold(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	household := suite.decode(w)["household"].(map[string]interface{})
	suite.Equal(suite.household.InviteCode, household["invite_code"])
	suite.Len(household["members"], 2)

	c, w = suite.asBob(http.MethodGet, "/api/households/h", nil)
	suite.householdHandler().GetHousehold(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	household = suite.decode(w)["household"].(map[string]interface{})
	suite.NotContains(household, "invite_code")
}

// TestJoinFlow_ApproveAndReject tests the invite code request lifecycle
func (suite *HandlerTestSuite) TestJoinFlow_ApproveAndReject() {
	carol := suite.newUser("carol@example.com", "Carol")
	dave := suite.newUser("dave@example.com", "Dave")

	requestIDs := map[string]string{}
	for _, user := range []*models.User{carol, dave} {
		c, w := suite.newContext(http.MethodPost, "/api/households/join", map[string]string{"invite_code": suite.household.InviteCode}, user)
		suite.householdHandler().JoinHousehold(c)
		response := suite.requireSuccess(w, http.StatusOK)
		request := response["request"].(map[string]interface{})
		suite.Equal("PENDING", request["status"])
		requestIDs[user.ID] = request["id"].(string)
	}
	suite.Equal([]models.NotificationKind{models.NotificationJoinRequest, models.NotificationJoinRequest}, suite.dispatcher.kinds())
	suite.Equal([]string{suite.alice.ID}, suite.dispatcher.events[0].Recipients)

	c, w := suite.asAlice(http.MethodGet, "/api/households/h/requests", nil)
	suite.householdHandler().ListJoinRequests(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(suite.decode(w)["requests"], 2)

	c, w = suite.asAlice(http.MethodPost, "/api/households/h/requests/x/approve", nil)
	c.Params = append(c.Params, gin.Param{Key: "requestId", Value: requestIDs[carol.ID]})
	suite.householdHandler().ApproveJoinRequest(c)
	response := suite.requireSuccess(w, http.StatusOK)
	suite.Equal(carol.ID, response["member"].(map[string]interface{})["user_id"])

	c, w = suite.asAlice(http.MethodPost, "/api/households/h/requests/x/approve", nil)
	c.Params = append(c.Params, gin.Param{Key: "requestId", Value: requestIDs[carol.ID]})
	suite.householdHandler().ApproveJoinRequest(c)
	suite.requireError(w, http.StatusConflict, "CONFLICT")

	c, w = suite.asAlice(http.MethodPost, "/api/households/h/requests/x/reject", nil)
	c.Params = append(c.Params, gin.Param{Key: "requestId", Value: requestIDs[dave.ID]})
	suite.householdHandler().RejectJoinRequest(c)
	suite.requireSuccess(w, http.StatusOK)

	c, w = suite.newContext(http.MethodPost, "/api/households/join", map[string]string{"invite_code": suite.household.InviteCode}, dave)
	suite.householdHandler().JoinHousehold(c)
	suite.requireError(w, http.StatusForbidden, "FORBIDDEN")

	c, w = suite.newContext(http.MethodPost, "/api/households/join", map[string]string{"invite_code": suite.household.InviteCode}, carol)
	suite.householdHandler().JoinHousehold(c)
	suite.requireError(w, http.StatusConflict, "ALREADY_EXISTS")
}

// TestJoin_InvalidCode tests an unknown invite code
func (suite *HandlerTestSuite) TestJoin_InvalidCode() {
	carol := suite.newUser("carol@example.com", "Carol")

	c, w := suite.newContext(http.MethodPost, "/api/households/join", map[string]string{"invite_code": "NOPE"}, carol)
	suite.householdHandler().JoinHousehold(c)

	response := suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")
	suite.Equal("invite_code", response["field"])
}

// TestListJoinRequests_NonAdmin tests the admin check
func (suite *HandlerTestSuite) TestListJoinRequests_NonAdmin() {
	c, w := suite.asBob(http.MethodGet, "/api/households/h/requests", nil)
	suite.householdHandler().ListJoinRequests(c)

	suite.requireError(w, http.StatusForbidden, "FORBIDDEN")
}

// TestRegenerateInviteCode tests that a fresh code replaces the old one
func (suite *HandlerTestSuite) TestRegenerateInviteCode() {
	c, w := suite.asAlice(http.MethodPost, "/api/households/h/invite-code", nil)
	suite.householdHandler().RegenerateInviteCode(c)

	response := suite.requireSuccess(w, http.StatusOK)
	suite.NotEqual(suite.household.InviteCode, response["invite_code"])
}

// TestListHouseholds tests the membership listing
func (suite *HandlerTestSuite) TestListHouseholds() {
	c, w := suite.newContext(http.MethodGet, "/api/households", nil, suite.bob)
	suite.householdHandler().ListHouseholds(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	households := suite.decode(w)["households"].([]interface{})
	suite.Require().Len(households, 1)
	suite.Equal("MEMBER", households[0].(map[string]interface{})["role"])
}

// TestMembers_AddUpdateDelete tests the child and pet profile lifecycle
func (suite *HandlerTestSuite) TestMembers_AddUpdateDelete() {
	handler := NewMemberHandler(suite.members, suite.dispatcher)

	c, w := suite.asBob(http.MethodPost, "/api/households/h/members", map[string]interface{}{
		"nickname": "Rex",
		"type":     "pet",
		"pet_type": "dog",
	})
	handler.AddMember(c)
	response := suite.requireSuccess(w, http.StatusCreated)
	rex := response["member"].(map[string]interface{})
	suite.Equal("PET", rex["type"])
	suite.Equal("DOG", rex["pet_type"])
	suite.Regexp(`^#[0-9A-Fa-f]{6}$`, rex["color"])
	suite.Equal([]models.NotificationKind{models.NotificationMemberAdded}, suite.dispatcher.kinds())
	suite.Equal([]string{suite.alice.ID}, suite.dispatcher.events[0].Recipients)

	c, w = suite.asBob(http.MethodPatch, "/api/households/h/members/x", map[string]interface{}{"color": "#123ABC"})
	c.Params = append(c.Params, gin.Param{Key: "memberId", Value: rex["id"].(string)})
	handler.UpdateMember(c)
	response = suite.requireSuccess(w, http.StatusOK)
	suite.Equal("#123ABC", response["member"].(map[string]interface{})["color"])

	c, w = suite.asBob(http.MethodPatch, "/api/households/h/members/x", map[string]interface{}{"color": "red"})
	c.Params = append(c.Params, gin.Param{Key: "memberId", Value: rex["id"].(string)})
	handler.UpdateMember(c)
	errResponse := suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")
	suite.Equal("color", errResponse["field"])

	c, w = suite.asBob(http.MethodDelete, "/api/households/h/members/x", nil)
	c.Params = append(c.Params, gin.Param{Key: "memberId", Value: rex["id"].(string)})
	handler.DeleteMember(c)
	suite.requireSuccess(w, http.StatusOK)
}

// TestMembers_AdultRules tests the permissions around account holders
func (suite *HandlerTestSuite) TestMembers_AdultRules() {
	handler := NewMemberHandler(suite.members, suite.dispatcher)

	c, w := suite.asAlice(http.MethodPost, "/api/households/h/members", map[string]interface{}{"nickname": "Eve", "type": "ADULT"})
	handler.AddMember(c)
	response := suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")
	suite.Equal("type", response["field"])

	c, w = suite.asBob(http.MethodPatch, "/api/households/h/members/x", map[string]interface{}{"color": "#000000"})
	c.Params = append(c.Params, gin.Param{Key: "memberId", Value: suite.admin.ID})
	handler.UpdateMember(c)
	suite.requireError(w, http.StatusForbidden, "FORBIDDEN")

	c, w = suite.asAlice(http.MethodPatch, "/api/households/h/members/x", map[string]interface{}{"nickname": "Bobby"})
	c.Params = append(c.Params, gin.Param{Key: "memberId", Value: suite.bobMember.ID})
	handler.UpdateMember(c)
	suite.requireError(w, http.StatusForbidden, "FORBIDDEN")

	c, w = suite.asAlice(http.MethodPatch, "/api/households/h/members/x", map[string]interface{}{"color": "#000000"})
	c.Params = append(c.Params, gin.Param{Key: "memberId", Value: suite.bobMember.ID})
	handler.UpdateMember(c)
	suite.requireSuccess(w, http.StatusOK)

	c, w = suite.asBob(http.MethodDelete, "/api/households/h/members/x", nil)
	c.Params = append(c.Params, gin.Param{Key: "memberId", Value: suite.admin.ID})
	handler.DeleteMember(c)
	suite.requireError(w, http.StatusForbidden, "FORBIDDEN")

	c, w = suite.asAlice(http.MethodDelete, "/api/households/h/members/x", nil)
	c.Params = append(c.Params, gin.Param{Key: "memberId", Value: suite.admin.ID})
	handler.DeleteMember(c)
	suite.requireError(w, http.StatusForbidden, "FORBIDDEN")

	c, w = suite.asAlice(http.MethodGet, "/api/households/h/members", nil)
	handler.ListMembers(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(suite.decode(w)["members"], 2)
}
