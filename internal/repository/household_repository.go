package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/ensemble/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrCreateHousehold is returned when creating the household row fails inside its transaction.
	ErrCreateHousehold = errors.New("household repository: create household failed")
	// ErrCreateAdmin is returned when creating the first admin member fails inside the household transaction.
	ErrCreateAdmin = errors.New("household repository: create admin member failed")
	// ErrJoinRequestNotPending is returned when approving a request that was already decided.
	ErrJoinRequestNotPending = errors.New("household repository: join request is not pending")
)

// GormHouseholdRepository is a GORM implementation of HouseholdRepository
type GormHouseholdRepository struct {
	db *gorm.DB
}

// NewHouseholdRepository creates a new HouseholdRepository
func NewHouseholdRepository(db *gorm.DB) HouseholdRepository {
	return &GormHouseholdRepository{db: db}
}

// CreateWithAdmin creates a household and the creator's admin member atomically
func (r *GormHouseholdRepository) CreateWithAdmin(household *models.Household, admin *models.Member) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(household).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateHousehold, err)
		}

		admin.HouseholdID = household.ID
		if err := tx.Omit(clause.Associations).Create(admin).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateAdmin, err)
		}

		return nil
	})
}

// FindByID finds a household by ID
func (r *GormHouseholdRepository) FindByID(id string) (*models.Household, error) {
	var household models.Household
	if err := r.db.Where("id = ?", id).First(&household).Error; err != nil {
		return nil, err
	}
	return &household, nil
}

// FindByInviteCode finds a household by invite code
func (r *GormHouseholdRepository) FindByInviteCode(code string) (*models.Household, error) {
	var household models.Household
	if err := r.db.Where("invite_code = ?", code).First(&household).Error; err != nil {
		return nil, err
	}
	return &household, nil
}

// Update updates a household
func (r *GormHouseholdRepository) Update(household *models.Household) error {
	return r.db.Omit(clause.Associations).Save(household).Error
}

// ListMembershipsByUserID lists the households a user belongs to through their member rows
func (r *GormHouseholdRepository) ListMembershipsByUserID(userID string) ([]models.Member, error) {
	var memberships []models.Member
	if err := r.db.Preload("Household").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// CreateJoinRequest stores a new join request
func (r *GormHouseholdRepository) CreateJoinRequest(req *models.JoinRequest) error {
	return r.db.Omit(clause.Associations).Create(req).Error
}

// FindJoinRequest finds the request of a user for a household
func (r *GormHouseholdRepository) FindJoinRequest(userID, householdID string) (*models.JoinRequest, error) {
	var req models.JoinRequest
	if err := r.db.Where("user_id = ? AND household_id = ?", userID, householdID).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindJoinRequestByID finds a join request with its user and household
func (r *GormHouseholdRepository) FindJoinRequestByID(id string) (*models.JoinRequest, error) {
	var req models.JoinRequest
	if err := r.db.Preload("User").Preload("Household").
		Where("id = ?", id).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPendingJoinRequests lists pending requests of a household, oldest first
func (r *GormHouseholdRepository) ListPendingJoinRequests(householdID string) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	if err := r.db.Preload("User").
		Where("household_id = ? AND status = ?", householdID, models.JoinRequestPending).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ApproveJoinRequest creates the new member and marks the request approved in one transaction
func (r *GormHouseholdRepository) ApproveJoinRequest(req *models.JoinRequest, member *models.Member) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.JoinRequest{}).
			Where("id = ? AND status = ?", req.ID, models.JoinRequestPending).
			Update("status", models.JoinRequestApproved)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrJoinRequestNotPending
		}

		if err := tx.Omit(clause.Associations).Create(member).Error; err != nil {
			return err
		}

		req.Status = models.JoinRequestApproved
		return nil
	})
}

// UpdateJoinRequestStatus sets the status of a join request
func (r *GormHouseholdRepository) UpdateJoinRequestStatus(id string, status models.JoinRequestStatus) error {
	return r.db.Model(&models.JoinRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}
