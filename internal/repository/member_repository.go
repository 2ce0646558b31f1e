package repository

import (
	"github.com/yukikurage/ensemble/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMemberRepository is a GORM implementation of MemberRepository
type GormMemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &GormMemberRepository{db: db}
}

// Create creates a new member
func (r *GormMemberRepository) Create(member *models.Member) error {
	return r.db.Omit(clause.Associations).Create(member).Error
}

// FindByID finds a member by ID
func (r *GormMemberRepository) FindByID(id string) (*models.Member, error) {
	var member models.Member
	if err := r.db.Preload("User").Where("id = ?", id).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByUser finds the member row of a user inside a household
func (r *GormMemberRepository) FindByUser(householdID, userID string) (*models.Member, error) {
	var member models.Member
	if err := r.db.Preload("User").
		Where("household_id = ? AND user_id = ?", householdID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListByHousehold lists all members of a household, admins first
func (r *GormMemberRepository) ListByHousehold(householdID string) ([]models.Member, error) {
	var members []models.Member
	if err := r.db.Preload("User").
		Where("household_id = ?", householdID).
		Order("CASE WHEN role = 'ADMIN' THEN 0 ELSE 1 END, created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListByIDs lists the members of a household among the given IDs
func (r *GormMemberRepository) ListByIDs(householdID string, ids []string) ([]models.Member, error) {
	if len(ids) == 0 {
		return []models.Member{}, nil
	}
	var members []models.Member
	if err := r.db.Preload("User").
		Where("household_id = ? AND id IN ?", householdID, ids).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListAdmins lists the admin members of a household
func (r *GormMemberRepository) ListAdmins(householdID string) ([]models.Member, error) {
	var members []models.Member
	if err := r.db.Preload("User").
		Where("household_id = ? AND role = ?", householdID, models.RoleAdmin).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// Update updates a member
func (r *GormMemberRepository) Update(member *models.Member) error {
	return r.db.Omit(clause.Associations).Save(member).Error
}

// Delete removes a member and the rows that reference it in a transaction
func (r *GormMemberRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", id).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}

		if err := tx.Where("member_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&models.Member{}).Error
	})
}
