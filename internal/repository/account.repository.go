package repository

import (
	"context"
	"strings"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LandlordRepository struct {
	*pg.DB
}

func NewLandlordRepository(db *pg.DB) *LandlordRepository {
	return &LandlordRepository{
		db,
	}
}

func (r *LandlordRepository) FindByID(ctx context.Context, id int64) (*model.Landlord, error) {
	var e LandlordEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, notFound(err, "landlord %d", id)
	}
	return toLandlordModel(&e), nil
}

func (r *LandlordRepository) FindByEmail(ctx context.Context, email string) (*model.Landlord, error) {
	var e LandlordEntity
	if err := r.Read(ctx).Where("email = ?", normalizeEmail(email)).First(&e).Error; err != nil {
		return nil, notFound(err, "landlord %s", email)
	}
	return toLandlordModel(&e), nil
}

// FirstOrCreate returns the landlord with m.Email, creating it from m when absent.
func (r *LandlordRepository) FirstOrCreate(ctx context.Context, m *model.Landlord) (*model.Landlord, error) {
	e := toLandlordEntity(m)
	e.Email = normalizeEmail(e.Email)
	if err := r.Write(ctx).Where(LandlordEntity{Email: e.Email}).FirstOrCreate(e).Error; err != nil {
		return nil, err
	}
	return toLandlordModel(e), nil
}

func (r *LandlordRepository) SetAdmin(ctx context.Context, email string, admin bool) error {
	res := r.Write(ctx).Model(&LandlordEntity{}).
		Where("email = ?", normalizeEmail(email)).
		Update("is_admin", admin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "landlord %s", email)
	}
	return nil
}

// Summaries lists every landlord with property, unit and occupied-unit counts.
func (r *LandlordRepository) Summaries(ctx context.Context) ([]model.LandlordSummary, error) {
	var rows []model.LandlordSummary
	err := r.Read(ctx).Raw(`
SELECT l.id, l.name, l.email,
  (SELECT COUNT(*) FROM properties p WHERE p.landlord_id = l.id) AS properties,
  (SELECT COUNT(*) FROM units u JOIN properties p ON p.id = u.property_id WHERE p.landlord_id = l.id) AS units,
  (SELECT COUNT(*) FROM units u JOIN properties p ON p.id = u.property_id WHERE p.landlord_id = l.id AND u.is_occupied = ?) AS tenants
FROM landlords l
ORDER BY l.name`, true).Scan(&rows).Error
	return rows, err
}

type TenantRepository struct {
	*pg.DB
}

func NewTenantRepository(db *pg.DB) *TenantRepository {
	return &TenantRepository{
		db,
	}
}

func (r *TenantRepository) FindByID(ctx context.Context, id int64) (*model.Tenant, error) {
	var e TenantEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, notFound(err, "tenant %d", id)
	}
	return toTenantModel(&e), nil
}

func (r *TenantRepository) FindByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	var e TenantEntity
	if err := r.Read(ctx).Where("email = ?", normalizeEmail(email)).First(&e).Error; err != nil {
		return nil, notFound(err, "tenant %s", email)
	}
	return toTenantModel(&e), nil
}

// ResolveOrCreate returns the tenant owning email, creating it from defaults when none exists.
// An existing tenant only has phone and address refreshed. The unique email index settles
// concurrent creates: the losing insert does nothing and the winner's row is read back.
func (r *TenantRepository) ResolveOrCreate(ctx context.Context, email string, defaults model.TenantDefaults) (*model.Tenant, bool, error) {
	email = normalizeEmail(email)

	var e TenantEntity
	err := r.Write(ctx).Where("email = ?", email).First(&e).Error
	if err == nil {
		if err := r.UpdateContact(ctx, e.ID, defaults.Phone, defaults.Address); err != nil {
			return nil, false, err
		}
		t, err := r.FindByID(ctx, e.ID)
		return t, false, err
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	e = TenantEntity{
		Name:     defaults.Name,
		Email:    email,
		Phone:    defaults.Phone,
		Address:  defaults.Address,
		Password: defaults.PasswordHash,
	}
	res := r.Write(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&e)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		t, err := r.FindByEmail(ctx, email)
		return t, false, err
	}
	return toTenantModel(&e), true, nil
}

// UpdateContact overwrites phone and address when non-empty. Name is never touched.
func (r *TenantRepository) UpdateContact(ctx context.Context, id int64, phone, address string) error {
	updates := map[string]any{}
	if phone != "" {
		updates["phone"] = phone
	}
	if address != "" {
		updates["address"] = address
	}
	if len(updates) == 0 {
		return nil
	}
	return r.Write(ctx).Model(&TenantEntity{}).Where("id = ?", id).Updates(updates).Error
}

// ListByLandlord returns tenants assigned to at least one unit of the landlord.
func (r *TenantRepository) ListByLandlord(ctx context.Context, landlordID int64) ([]*model.Tenant, error) {
	var entities []*TenantEntity
	err := r.Read(ctx).
		Where("id IN (?)", r.Read(ctx).Table("units").
			Select("units.tenant_id").
			Joins("JOIN properties ON properties.id = units.property_id").
			Where("properties.landlord_id = ? AND units.tenant_id IS NOT NULL", landlordID)).
		Order("name").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toTenantModels(entities), nil
}

// FindForLandlord resolves a tenant only through a unit owned by the landlord.
func (r *TenantRepository) FindForLandlord(ctx context.Context, tenantID, landlordID int64) (*model.Tenant, error) {
	var e TenantEntity
	err := r.Read(ctx).
		Where("id = ?", tenantID).
		Where("EXISTS (?)", r.Read(ctx).Table("units").
			Select("1").
			Joins("JOIN properties ON properties.id = units.property_id").
			Where("units.tenant_id = ? AND properties.landlord_id = ?", tenantID, landlordID)).
		First(&e).Error
	if err != nil {
		return nil, notFound(err, "tenant %d", tenantID)
	}
	return toTenantModel(&e), nil
}

func (r *TenantRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&TenantEntity{}).Count(&n).Error
	return n, err
}

type AdminRepository struct {
	*pg.DB
}

func NewAdminRepository(db *pg.DB) *AdminRepository {
	return &AdminRepository{
		db,
	}
}

func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*model.Admin, error) {
	var e AdminEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, notFound(err, "admin %d", id)
	}
	return toAdminModel(&e), nil
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var e AdminEntity
	if err := r.Read(ctx).Where("email = ?", normalizeEmail(email)).First(&e).Error; err != nil {
		return nil, notFound(err, "admin %s", email)
	}
	return toAdminModel(&e), nil
}

func (r *AdminRepository) FirstOrCreate(ctx context.Context, m *model.Admin) (*model.Admin, error) {
	e := &AdminEntity{Name: m.Name, Email: normalizeEmail(m.Email), Password: m.PasswordHash}
	if err := r.Write(ctx).Where(AdminEntity{Email: e.Email}).FirstOrCreate(e).Error; err != nil {
		return nil, err
	}
	return toAdminModel(e), nil
}

type PropertyManagerRepository struct {
	*pg.DB
}

func NewPropertyManagerRepository(db *pg.DB) *PropertyManagerRepository {
	return &PropertyManagerRepository{
		db,
	}
}

func (r *PropertyManagerRepository) FindByID(ctx context.Context, id int64) (*model.PropertyManager, error) {
	var e PropertyManagerEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, notFound(err, "property manager %d", id)
	}
	return toPropertyManagerModel(&e), nil
}

func (r *PropertyManagerRepository) FindByEmail(ctx context.Context, email string) (*model.PropertyManager, error) {
	var e PropertyManagerEntity
	if err := r.Read(ctx).Where("email = ?", normalizeEmail(email)).First(&e).Error; err != nil {
		return nil, notFound(err, "property manager %s", email)
	}
	return toPropertyManagerModel(&e), nil
}

func (r *PropertyManagerRepository) FirstOrCreate(ctx context.Context, m *model.PropertyManager) (*model.PropertyManager, error) {
	e := &PropertyManagerEntity{Name: m.Name, Email: normalizeEmail(m.Email), Phone: m.Phone, Password: m.PasswordHash}
	if err := r.Write(ctx).Where(PropertyManagerEntity{Email: e.Email}).FirstOrCreate(e).Error; err != nil {
		return nil, err
	}
	return toPropertyManagerModel(e), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
