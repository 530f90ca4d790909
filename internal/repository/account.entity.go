package repository

import (
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
)

type LandlordEntity struct {
	pg.Model
	Name     string `gorm:"column:name;not null"`
	Email    string `gorm:"column:email;not null;uniqueIndex"`
	Phone    string `gorm:"column:phone"`
	Address  string `gorm:"column:address"`
	Password string `gorm:"column:password;not null"`
	IsAdmin  bool   `gorm:"column:is_admin;not null;default:false"`
}

func (LandlordEntity) TableName() string {
	return "landlords"
}

type TenantEntity struct {
	pg.Model
	Name     string `gorm:"column:name;not null"`
	Email    string `gorm:"column:email;not null;uniqueIndex"`
	Phone    string `gorm:"column:phone"`
	Address  string `gorm:"column:address"`
	Password string `gorm:"column:password;not null"`
}

func (TenantEntity) TableName() string {
	return "tenants"
}

type AdminEntity struct {
	pg.Model
	Name     string `gorm:"column:name;not null"`
	Email    string `gorm:"column:email;not null;uniqueIndex"`
	Password string `gorm:"column:password;not null"`
}

func (AdminEntity) TableName() string {
	return "admins"
}

type PropertyManagerEntity struct {
	pg.Model
	Name     string `gorm:"column:name;not null"`
	Email    string `gorm:"column:email;not null;uniqueIndex"`
	Phone    string `gorm:"column:phone"`
	Password string `gorm:"column:password;not null"`
}

func (PropertyManagerEntity) TableName() string {
	return "property_managers"
}

func toLandlordModel(e *LandlordEntity) *model.Landlord {
	if e == nil {
		return nil
	}
	return &model.Landlord{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Phone:        e.Phone,
		Address:      e.Address,
		PasswordHash: e.Password,
		IsAdmin:      e.IsAdmin,
		CreatedAt:    e.CreatedAt,
	}
}

func toLandlordEntity(m *model.Landlord) *LandlordEntity {
	if m == nil {
		return nil
	}
	return &LandlordEntity{
		Model:    pg.Model{ID: m.ID},
		Name:     m.Name,
		Email:    m.Email,
		Phone:    m.Phone,
		Address:  m.Address,
		Password: m.PasswordHash,
		IsAdmin:  m.IsAdmin,
	}
}

func toTenantModel(e *TenantEntity) *model.Tenant {
	if e == nil {
		return nil
	}
	return &model.Tenant{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Phone:        e.Phone,
		Address:      e.Address,
		PasswordHash: e.Password,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toTenantEntity(m *model.Tenant) *TenantEntity {
	if m == nil {
		return nil
	}
	return &TenantEntity{
		Model:    pg.Model{ID: m.ID},
		Name:     m.Name,
		Email:    m.Email,
		Phone:    m.Phone,
		Address:  m.Address,
		Password: m.PasswordHash,
	}
}

func toTenantModels(entities []*TenantEntity) []*model.Tenant {
	if entities == nil {
		return nil
	}
	models := make([]*model.Tenant, len(entities))
	for i, e := range entities {
		models[i] = toTenantModel(e)
	}
	return models
}

func toAdminModel(e *AdminEntity) *model.Admin {
	if e == nil {
		return nil
	}
	return &model.Admin{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		PasswordHash: e.Password,
		CreatedAt:    e.CreatedAt,
	}
}

func toPropertyManagerModel(e *PropertyManagerEntity) *model.PropertyManager {
	if e == nil {
		return nil
	}
	return &model.PropertyManager{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Phone:        e.Phone,
		PasswordHash: e.Password,
		CreatedAt:    e.CreatedAt,
	}
}
