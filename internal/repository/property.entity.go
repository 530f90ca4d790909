package repository

import (
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
)

type PropertyEntity struct {
	pg.Model
	LandlordID    int64           `gorm:"column:landlord_id;not null;index"`
	Landlord      *LandlordEntity `gorm:"foreignKey:LandlordID;references:ID;constraint:OnDelete:CASCADE"`
	Name          string          `gorm:"column:name;not null"`
	Description   string          `gorm:"column:description"`
	Type          string          `gorm:"column:type;not null;default:residential"`
	StreetAddress string          `gorm:"column:street_address"`
	City          string          `gorm:"column:city"`
	State         string          `gorm:"column:state"`
	ZipCode       string          `gorm:"column:zip_code;size:20"`
	Units         int             `gorm:"column:units;not null;default:0"`
	Tenants       int             `gorm:"column:tenants;not null;default:0"`
	MainPhoto     string          `gorm:"column:main_photo"`
	Photos        []string        `gorm:"column:photos;type:text;serializer:json"`
	Status        string          `gorm:"column:status;not null;default:active"`
}

func (PropertyEntity) TableName() string {
	return "properties"
}

type UnitEntity struct {
	pg.Model
	PropertyID      int64           `gorm:"column:property_id;not null;uniqueIndex:idx_units_property_number"`
	Property        *PropertyEntity `gorm:"foreignKey:PropertyID;references:ID;constraint:OnDelete:CASCADE"`
	UnitNumber      string          `gorm:"column:unit_number;not null;uniqueIndex:idx_units_property_number"`
	UnitType        string          `gorm:"column:unit_type"`
	Bedrooms        int             `gorm:"column:bedrooms;not null;default:0"`
	Bathrooms       float64         `gorm:"column:bathrooms;type:decimal(3,1);not null;default:0"`
	SquareFootage   int             `gorm:"column:square_footage;not null;default:0"`
	MonthlyRent     float64         `gorm:"column:monthly_rent;type:decimal(10,2);not null;default:0"`
	SecurityDeposit float64         `gorm:"column:security_deposit;type:decimal(10,2);not null;default:0"`
	AdvanceDeposit  float64         `gorm:"column:advance_deposit;type:decimal(10,2);not null;default:0"`
	Description     string          `gorm:"column:description"`
	Photos          []string        `gorm:"column:photos;type:text;serializer:json"`
	Status          string          `gorm:"column:status;not null;default:vacant"`
	IsOccupied      bool            `gorm:"column:is_occupied;not null;default:false"`
	TenantID        *int64          `gorm:"column:tenant_id;index"`
	Tenant          *TenantEntity   `gorm:"foreignKey:TenantID;references:ID;constraint:OnDelete:SET NULL"`
	LeaseStart      *time.Time      `gorm:"column:lease_start;type:date"`
	LeaseEnd        *time.Time      `gorm:"column:lease_end;type:date"`
	LeaseDuration   *int            `gorm:"column:lease_duration"`
	LeaseAmount     *float64        `gorm:"column:lease_amount;type:decimal(10,2)"`
	LeaseDeposit    *float64        `gorm:"column:lease_deposit;type:decimal(10,2)"`
}

func (UnitEntity) TableName() string {
	return "units"
}

func toPropertyModel(e *PropertyEntity) *model.Property {
	if e == nil {
		return nil
	}
	m := &model.Property{
		ID:            e.ID,
		LandlordID:    e.LandlordID,
		Name:          e.Name,
		Description:   e.Description,
		Type:          e.Type,
		StreetAddress: e.StreetAddress,
		City:          e.City,
		State:         e.State,
		ZipCode:       e.ZipCode,
		Units:         e.Units,
		Tenants:       e.Tenants,
		MainPhoto:     e.MainPhoto,
		Photos:        nonNilStrings(e.Photos),
		Status:        model.PropertyStatus(e.Status),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.Landlord != nil {
		m.LandlordName = e.Landlord.Name
	}
	return m
}

func toPropertyEntity(m *model.Property) *PropertyEntity {
	if m == nil {
		return nil
	}
	return &PropertyEntity{
		Model:         pg.Model{ID: m.ID, CreatedAt: m.CreatedAt},
		LandlordID:    m.LandlordID,
		Name:          m.Name,
		Description:   m.Description,
		Type:          m.Type,
		StreetAddress: m.StreetAddress,
		City:          m.City,
		State:         m.State,
		ZipCode:       m.ZipCode,
		Units:         m.Units,
		Tenants:       m.Tenants,
		MainPhoto:     m.MainPhoto,
		Photos:        nonNilStrings(m.Photos),
		Status:        string(m.Status),
	}
}

func toPropertyModels(entities []*PropertyEntity) []*model.Property {
	if entities == nil {
		return nil
	}
	models := make([]*model.Property, len(entities))
	for i, e := range entities {
		models[i] = toPropertyModel(e)
	}
	return models
}

func toUnitModel(e *UnitEntity) *model.Unit {
	if e == nil {
		return nil
	}
	return &model.Unit{
		ID:              e.ID,
		PropertyID:      e.PropertyID,
		UnitNumber:      e.UnitNumber,
		UnitType:        e.UnitType,
		Bedrooms:        e.Bedrooms,
		Bathrooms:       e.Bathrooms,
		SquareFootage:   e.SquareFootage,
		MonthlyRent:     e.MonthlyRent,
		SecurityDeposit: e.SecurityDeposit,
		AdvanceDeposit:  e.AdvanceDeposit,
		Description:     e.Description,
		Photos:          nonNilStrings(e.Photos),
		Status:          model.UnitStatus(e.Status),
		IsOccupied:      e.IsOccupied,
		TenantID:        e.TenantID,
		LeaseStart:      e.LeaseStart,
		LeaseEnd:        e.LeaseEnd,
		LeaseDuration:   e.LeaseDuration,
		LeaseAmount:     e.LeaseAmount,
		LeaseDeposit:    e.LeaseDeposit,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Property:        toPropertyModel(e.Property),
		Tenant:          toTenantModel(e.Tenant),
	}
}

func toUnitEntity(m *model.Unit) *UnitEntity {
	if m == nil {
		return nil
	}
	return &UnitEntity{
		Model:           pg.Model{ID: m.ID, CreatedAt: m.CreatedAt},
		PropertyID:      m.PropertyID,
		UnitNumber:      m.UnitNumber,
		UnitType:        m.UnitType,
		Bedrooms:        m.Bedrooms,
		Bathrooms:       m.Bathrooms,
		SquareFootage:   m.SquareFootage,
		MonthlyRent:     m.MonthlyRent,
		SecurityDeposit: m.SecurityDeposit,
		AdvanceDeposit:  m.AdvanceDeposit,
		Description:     m.Description,
		Photos:          nonNilStrings(m.Photos),
		Status:          string(m.Status),
		IsOccupied:      m.IsOccupied,
		TenantID:        m.TenantID,
		LeaseStart:      m.LeaseStart,
		LeaseEnd:        m.LeaseEnd,
		LeaseDuration:   m.LeaseDuration,
		LeaseAmount:     m.LeaseAmount,
		LeaseDeposit:    m.LeaseDeposit,
	}
}

func toUnitModels(entities []*UnitEntity) []*model.Unit {
	if entities == nil {
		return nil
	}
	models := make([]*model.Unit, len(entities))
	for i, e := range entities {
		models[i] = toUnitModel(e)
	}
	return models
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
