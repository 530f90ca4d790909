package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/blob"
	"github.com/leasedesk/leasedesk/pkg/logger"
)

const (
	propertyBlobDir = "properties"
	unitBlobDir     = "units"
)

// RegistryService owns properties, units and the landlord's view of its tenants.
type RegistryService struct {
	properties   PropertyRepository
	units        UnitRepository
	tenants      TenantRepository
	landlords    LandlordRepository
	applications ApplicationRepository
	workflow     *ApplicationService
	tx           Transactor
	blobs        blob.Store
	now          func() time.Time
}

func NewRegistryService(properties PropertyRepository, units UnitRepository, tenants TenantRepository,
	landlords LandlordRepository, applications ApplicationRepository, workflow *ApplicationService,
	tx Transactor, blobs blob.Store) *RegistryService {
	return &RegistryService{
		properties:   properties,
		units:        units,
		tenants:      tenants,
		landlords:    landlords,
		applications: applications,
		workflow:     workflow,
		tx:           tx,
		blobs:        blobs,
		now:          time.Now,
	}
}

func (s *RegistryService) CreateProperty(ctx context.Context, landlordID int64, req model.PropertyRequest) (*model.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &model.Property{LandlordID: landlordID}
	written, err := s.applyProperty(ctx, p, req)
	if err != nil {
		return nil, err
	}
	created, err := s.properties.Create(ctx, p)
	if err != nil {
		s.discard(ctx, written)
		return nil, fmt.Errorf("create property: %w", err)
	}
	logger.Info("property created", "property_id", created.ID, "actor_id", landlordID)
	return s.presentProperty(created), nil
}

func (s *RegistryService) UpdateProperty(ctx context.Context, id, landlordID int64, req model.PropertyRequest) (*model.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.ownedProperty(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	written, err := s.applyProperty(ctx, p, req)
	if err != nil {
		return nil, err
	}
	updated, err := s.properties.Update(ctx, p)
	if err != nil {
		s.discard(ctx, written)
		return nil, fmt.Errorf("update property %d: %w", id, err)
	}
	logger.Info("property updated", "property_id", id, "actor_id", landlordID)
	return s.presentProperty(updated), nil
}

func (s *RegistryService) GetProperty(ctx context.Context, id, landlordID int64) (*model.Property, error) {
	p, err := s.properties.FindOwned(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	return s.presentProperty(p), nil
}

func (s *RegistryService) ListProperties(ctx context.Context, landlordID int64) ([]*model.Property, error) {
	list, err := s.properties.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	return s.presentProperties(list), nil
}

// AdminProperties lists every property on the platform with its landlord name.
func (s *RegistryService) AdminProperties(ctx context.Context) ([]*model.Property, error) {
	list, err := s.properties.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.presentProperties(list), nil
}

// CreateUnit adds a unit to an owned property and bumps the property's unit counter.
func (s *RegistryService) CreateUnit(ctx context.Context, propertyID, landlordID int64, req model.UnitRequest) (*model.Unit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ownedProperty(ctx, propertyID, landlordID); err != nil {
		return nil, err
	}
	photos, err := s.savePhotos(ctx, unitBlobDir, req.Photos)
	if err != nil {
		return nil, err
	}

	u := unitFromRequest(req)
	u.PropertyID = propertyID
	u.Photos = photos

	var created *model.Unit
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if created, err = s.units.Create(ctx, u); err != nil {
			return err
		}
		return s.properties.AdjustUnits(ctx, propertyID, 1)
	})
	if err != nil {
		s.discard(ctx, newBlobs(req.Photos, photos))
		return nil, err
	}
	logger.Info("unit created", "unit_id", created.ID, "property_id", propertyID, "actor_id", landlordID)
	return s.presentUnit(created), nil
}

func (s *RegistryService) UpdateUnit(ctx context.Context, id, landlordID int64, req model.UnitRequest) (*model.Unit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	current, err := s.units.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(current, landlordID); err != nil {
		return nil, err
	}
	photos, err := s.savePhotos(ctx, unitBlobDir, req.Photos)
	if err != nil {
		return nil, err
	}

	u := unitFromRequest(req)
	u.ID = id
	u.PropertyID = current.PropertyID
	u.Photos = photos
	updated, err := s.units.Update(ctx, u)
	if err != nil {
		s.discard(ctx, newBlobs(req.Photos, photos))
		return nil, err
	}
	logger.Info("unit updated", "unit_id", id, "actor_id", landlordID)
	return s.presentUnit(updated), nil
}

func (s *RegistryService) GetUnit(ctx context.Context, id, landlordID int64) (*model.Unit, error) {
	u, err := s.units.FindOwned(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	return s.presentUnit(u), nil
}

func (s *RegistryService) ListUnits(ctx context.Context, propertyID, landlordID int64) ([]*model.Unit, error) {
	if _, err := s.properties.FindOwned(ctx, propertyID, landlordID); err != nil {
		return nil, err
	}
	list, err := s.units.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Unit, 0, len(list))
	for _, u := range list {
		out = append(out, s.presentUnit(u))
	}
	return out, nil
}

// PublicUnit backs the application form; tenant details are not exposed.
func (s *RegistryService) PublicUnit(ctx context.Context, id int64) (*model.Unit, error) {
	u, err := s.units.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := s.presentUnit(u)
	out.Tenant, out.TenantID = nil, nil
	return out, nil
}

// TenantDirectory lists the landlord's assigned tenants together with its applications.
func (s *RegistryService) TenantDirectory(ctx context.Context, landlordID int64) (*model.TenantDirectory, error) {
	tenants, err := s.tenants.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	dir := &model.TenantDirectory{
		Tenants:      make([]model.TenantDirectoryEntry, 0, len(tenants)),
		Applications: []model.TenantApplication{},
	}
	for _, t := range tenants {
		units, err := s.units.ListByTenantForLandlord(ctx, t.ID, landlordID)
		if err != nil {
			return nil, err
		}
		entry := model.TenantDirectoryEntry{Tenant: *t, Units: make([]model.Unit, 0, len(units))}
		for _, u := range units {
			if u.IsOccupied {
				dir.Statistics.ActiveLeases++
			}
			entry.Units = append(entry.Units, *s.presentUnit(u))
		}
		dir.Tenants = append(dir.Tenants, entry)
	}
	dir.Statistics.TotalTenants = len(dir.Tenants)

	apps, err := s.applications.List(ctx, model.ApplicationFilter{LandlordID: landlordID})
	if err != nil {
		return nil, err
	}
	for _, a := range apps {
		if a.Status == model.ApplicationStatusPending {
			dir.Statistics.PendingInvites++
		}
		dir.Applications = append(dir.Applications, *a)
	}
	return dir, nil
}

// Tenant resolves a tenant only through the landlord's own units.
func (s *RegistryService) Tenant(ctx context.Context, tenantID, landlordID int64) (*model.TenantDirectoryEntry, error) {
	t, err := s.tenants.FindForLandlord(ctx, tenantID, landlordID)
	if err != nil {
		return nil, err
	}
	units, err := s.units.ListByTenantForLandlord(ctx, tenantID, landlordID)
	if err != nil {
		return nil, err
	}
	entry := &model.TenantDirectoryEntry{Tenant: *t, Units: make([]model.Unit, 0, len(units))}
	for _, u := range units {
		entry.Units = append(entry.Units, *s.presentUnit(u))
	}
	return entry, nil
}

// RemoveTenant unassigns the tenant from every unit of the landlord.
func (s *RegistryService) RemoveTenant(ctx context.Context, tenantID, landlordID int64) (int, error) {
	return s.workflow.Unassign(ctx, tenantID, landlordID)
}

// Rentals is the tenant's own view of the units it occupies.
func (s *RegistryService) Rentals(ctx context.Context, tenantID int64) ([]model.Rental, error) {
	units, err := s.units.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	landlords := map[int64]*model.Landlord{}
	out := make([]model.Rental, 0, len(units))
	for _, u := range units {
		r := model.Rental{
			Unit:         *s.presentUnit(u),
			PropertyName: model.NotAvailable,
			LeaseStatus:  model.LeaseStatus(u.LeaseEnd, now),
		}
		if u.Property != nil {
			r.PropertyName = u.Property.Name
			r.PropertyAddress = u.Property.Address()
			l, ok := landlords[u.Property.LandlordID]
			if !ok {
				if l, err = s.landlords.FindByID(ctx, u.Property.LandlordID); err != nil {
					logger.Warn("rental landlord missing", "unit_id", u.ID, "landlord_id", u.Property.LandlordID, "error", err)
					l = nil
				}
				landlords[u.Property.LandlordID] = l
			}
			r.Landlord = l
		}
		out = append(out, r)
	}
	return out, nil
}

// ownedProperty fails with ErrForbidden for a property of another landlord.
func (s *RegistryService) ownedProperty(ctx context.Context, id, landlordID int64) (*model.Property, error) {
	p, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.LandlordID != landlordID {
		return nil, fmt.Errorf("property %d: %w", id, model.ErrForbidden)
	}
	return p, nil
}

// applyProperty copies the request onto p and stores new photos; it returns the blobs it wrote.
func (s *RegistryService) applyProperty(ctx context.Context, p *model.Property, req model.PropertyRequest) ([]string, error) {
	photos, err := s.savePhotos(ctx, propertyBlobDir, req.Photos)
	if err != nil {
		return nil, err
	}
	written := newBlobs(req.Photos, photos)

	main := ""
	if req.MainPhoto != "" {
		refs, err := s.savePhotos(ctx, propertyBlobDir, []string{req.MainPhoto})
		if err != nil {
			s.discard(ctx, written)
			return nil, err
		}
		if len(refs) > 0 {
			main = refs[0]
			written = append(written, newBlobs([]string{req.MainPhoto}, refs)...)
		}
	}
	if main == "" && len(photos) > 0 {
		main = photos[0]
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Type = req.Type
	p.StreetAddress = req.StreetAddress
	p.City = req.City
	p.State = req.State
	p.ZipCode = req.ZipCode
	p.Status = req.Status
	p.MainPhoto = main
	p.Photos = photos
	return written, nil
}

func (s *RegistryService) savePhotos(ctx context.Context, dir string, refs []string) ([]string, error) {
	if s.blobs == nil {
		return []string{}, nil
	}
	out, err := blob.SaveRefs(ctx, s.blobs, dir, "photo", refs)
	if err != nil {
		logger.Warn("failed to store photos", "dir", dir, "error", err)
		return nil, model.Invalid("photos", "The photos must be valid base64 images.")
	}
	return out, nil
}

func (s *RegistryService) discard(ctx context.Context, names []string) {
	for _, name := range names {
		if err := s.blobs.Delete(context.WithoutCancel(ctx), name); err != nil {
			logger.Warn("failed to remove orphaned photo", "path", name, "error", err)
		}
	}
}

func (s *RegistryService) presentProperty(p *model.Property) *model.Property {
	if s.blobs == nil {
		return p
	}
	out := *p
	if out.MainPhoto != "" {
		out.MainPhoto = blob.PublicURL(s.blobs, out.MainPhoto)
	}
	out.Photos = publicURLs(s.blobs, p.Photos)
	return &out
}

func (s *RegistryService) presentProperties(list []*model.Property) []*model.Property {
	out := make([]*model.Property, 0, len(list))
	for _, p := range list {
		out = append(out, s.presentProperty(p))
	}
	return out
}

func (s *RegistryService) presentUnit(u *model.Unit) *model.Unit {
	out := *u
	if s.blobs != nil {
		out.Photos = publicURLs(s.blobs, u.Photos)
		if u.Property != nil {
			out.Property = s.presentProperty(u.Property)
		}
	}
	return &out
}

func publicURLs(s blob.Store, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, blob.PublicURL(s, n))
	}
	return out
}

// newBlobs returns the stored names that came from data URLs in refs.
func newBlobs(refs, stored []string) []string {
	var out []string
	i := 0
	for _, ref := range refs {
		if i >= len(stored) {
			break
		}
		trimmed := strings.TrimSpace(ref)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "data:") {
			out = append(out, stored[i])
		}
		i++
	}
	return out
}

func unitFromRequest(req model.UnitRequest) *model.Unit {
	return &model.Unit{
		UnitNumber:      req.UnitNumber,
		UnitType:        req.UnitType,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		SquareFootage:   req.SquareFootage,
		MonthlyRent:     model.RoundMoney(req.MonthlyRent),
		SecurityDeposit: model.RoundMoney(req.SecurityDeposit),
		AdvanceDeposit:  model.RoundMoney(req.AdvanceDeposit),
		Description:     req.Description,
		Status:          req.Status,
	}
}
