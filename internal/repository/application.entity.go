package repository

import (
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
)

type TenantApplicationEntity struct {
	pg.Model
	UnitID              int64       `gorm:"column:unit_id;not null;index"`
	Unit                *UnitEntity `gorm:"foreignKey:UnitID;references:ID;constraint:OnDelete:CASCADE"`
	FirstName           string      `gorm:"column:first_name"`
	MiddleName          string      `gorm:"column:middle_name"`
	LastName            string      `gorm:"column:last_name"`
	Name                string      `gorm:"column:name"`
	Email               string      `gorm:"column:email;not null;index"`
	Phone               string      `gorm:"column:phone;not null"`
	Whatsapp            string      `gorm:"column:whatsapp"`
	Occupation          string      `gorm:"column:occupation"`
	MonthlyIncome       int64       `gorm:"column:monthly_income;not null;default:0"`
	Address             string      `gorm:"column:address"`
	NumberOfPeople      int         `gorm:"column:number_of_people;not null;default:1"`
	Reference1Name      string      `gorm:"column:reference1_name"`
	Reference1Address   string      `gorm:"column:reference1_address"`
	Reference1Phone     string      `gorm:"column:reference1_phone"`
	Reference1Email     string      `gorm:"column:reference1_email"`
	Reference1Relation  string      `gorm:"column:reference1_relationship"`
	Reference2Name      string      `gorm:"column:reference2_name"`
	Reference2Address   string      `gorm:"column:reference2_address"`
	Reference2Phone     string      `gorm:"column:reference2_phone"`
	Reference2Email     string      `gorm:"column:reference2_email"`
	Reference2Relation  string      `gorm:"column:reference2_relationship"`
	LeaseDurationMonths *int        `gorm:"column:lease_duration_months"`
	LeaseStartDate      *time.Time  `gorm:"column:lease_start_date;type:date"`
	IDPicture           string      `gorm:"column:id_picture;not null"`
	ProfilePicture      string      `gorm:"column:profile_picture"`
	Notes               string      `gorm:"column:notes"`
	Status              string      `gorm:"column:status;not null;default:pending;index"`
}

func (TenantApplicationEntity) TableName() string {
	return "tenant_applications"
}

func toApplicationModel(e *TenantApplicationEntity) *model.TenantApplication {
	if e == nil {
		return nil
	}
	return &model.TenantApplication{
		ID:             e.ID,
		UnitID:         e.UnitID,
		FirstName:      e.FirstName,
		MiddleName:     e.MiddleName,
		LastName:       e.LastName,
		Name:           e.Name,
		Email:          e.Email,
		Phone:          e.Phone,
		Whatsapp:       e.Whatsapp,
		Occupation:     e.Occupation,
		MonthlyIncome:  e.MonthlyIncome,
		Address:        e.Address,
		NumberOfPeople: e.NumberOfPeople,
		Reference1: model.Reference{
			Name:         e.Reference1Name,
			Address:      e.Reference1Address,
			Phone:        e.Reference1Phone,
			Email:        e.Reference1Email,
			Relationship: e.Reference1Relation,
		},
		Reference2: model.Reference{
			Name:         e.Reference2Name,
			Address:      e.Reference2Address,
			Phone:        e.Reference2Phone,
			Email:        e.Reference2Email,
			Relationship: e.Reference2Relation,
		},
		LeaseDurationMonths: e.LeaseDurationMonths,
		LeaseStartDate:      e.LeaseStartDate,
		IDPicture:           e.IDPicture,
		ProfilePicture:      e.ProfilePicture,
		Notes:               e.Notes,
		Status:              model.ApplicationStatus(e.Status),
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
		Unit:                toUnitModel(e.Unit),
	}
}

func toApplicationEntity(m *model.TenantApplication) *TenantApplicationEntity {
	if m == nil {
		return nil
	}
	return &TenantApplicationEntity{
		Model:               pg.Model{ID: m.ID, CreatedAt: m.CreatedAt},
		UnitID:              m.UnitID,
		FirstName:           m.FirstName,
		MiddleName:          m.MiddleName,
		LastName:            m.LastName,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Whatsapp:            m.Whatsapp,
		Occupation:          m.Occupation,
		MonthlyIncome:       m.MonthlyIncome,
		Address:             m.Address,
		NumberOfPeople:      m.NumberOfPeople,
		Reference1Name:      m.Reference1.Name,
		Reference1Address:   m.Reference1.Address,
		Reference1Phone:     m.Reference1.Phone,
		Reference1Email:     m.Reference1.Email,
		Reference1Relation:  m.Reference1.Relationship,
		Reference2Name:      m.Reference2.Name,
		Reference2Address:   m.Reference2.Address,
		Reference2Phone:     m.Reference2.Phone,
		Reference2Email:     m.Reference2.Email,
		Reference2Relation:  m.Reference2.Relationship,
		LeaseDurationMonths: m.LeaseDurationMonths,
		LeaseStartDate:      m.LeaseStartDate,
		IDPicture:           m.IDPicture,
		ProfilePicture:      m.ProfilePicture,
		Notes:               m.Notes,
		Status:              string(m.Status),
	}
}

func toApplicationModels(entities []*TenantApplicationEntity) []*model.TenantApplication {
	if entities == nil {
		return nil
	}
	models := make([]*model.TenantApplication, len(entities))
	for i, e := range entities {
		models[i] = toApplicationModel(e)
	}
	return models
}
