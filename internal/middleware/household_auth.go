package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/constants"
	apierrors "github.com/yukikurage/ensemble/internal/errors"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/services"
)

// MemberResolver finds the member row of a user inside a household.
type MemberResolver interface {
	ResolveMember(householdID, userID string) (*models.Member, error)
}

// RequireHouseholdMember checks that the user belongs to the household named
// by the :householdId route parameter and stores their member row.
func RequireHouseholdMember(resolver MemberResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		member, err := resolver.ResolveMember(c.Param("householdId"), userID)
		if err != nil {
			if errors.Is(err, services.ErrNotHouseholdMember) {
				// 404 rather than 403 so household ids do not leak
				apierrors.NotFound(c, "Household not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyMember, member)
		c.Next()
	}
}

// RequireHouseholdAdmin checks that the member set by RequireHouseholdMember is an admin
func RequireHouseholdAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			apierrors.Forbidden(c, "Household access required")
			c.Abort()
			return
		}

		if !actor.IsAdmin() {
			apierrors.Forbidden(c, services.ErrAdminRequired.Error())
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetActor builds the acting user from the session and household context
func GetActor(c *gin.Context) (services.Actor, bool) {
	userID, exists := GetUserID(c)
	if !exists {
		return services.Actor{}, false
	}

	value, exists := c.Get(constants.ContextKeyMember)
	if !exists {
		return services.Actor{}, false
	}
	member, ok := value.(*models.Member)
	if !ok || member == nil {
		return services.Actor{}, false
	}

	return services.Actor{
		UserID: userID,
		Name:   GetUserName(c),
		Member: member,
	}, true
}
