package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/auth"
	"github.com/leasedesk/leasedesk/pkg/blob"
	"github.com/leasedesk/leasedesk/pkg/logger"
)

const applicationBlobDir = "applications"

type ApplicationRepository interface {
	Create(ctx context.Context, a *model.TenantApplication) (*model.TenantApplication, error)
	FindByID(ctx context.Context, id int64) (*model.TenantApplication, error)
	List(ctx context.Context, f model.ApplicationFilter) ([]*model.TenantApplication, error)
	HasPending(ctx context.Context, unitID int64, email string) (bool, error)
	Transition(ctx context.Context, id int64, from, to model.ApplicationStatus) (bool, error)
}

type ApplicationService struct {
	applications ApplicationRepository
	units        UnitRepository
	properties   PropertyRepository
	tenants      TenantRepository
	tx           Transactor
	lock         Locker
	blobs        blob.Store
	now          func() time.Time
}

func NewApplicationService(applications ApplicationRepository, units UnitRepository, properties PropertyRepository,
	tenants TenantRepository, tx Transactor, l Locker, blobs blob.Store) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		units:        units,
		properties:   properties,
		tenants:      tenants,
		tx:           tx,
		lock:         lockerOrNone(l),
		blobs:        blobs,
		now:          time.Now,
	}
}

// Submit validates a public application and stores it as pending together with its pictures.
// Pictures written before a failed insert are removed again.
func (s *ApplicationService) Submit(ctx context.Context, req model.ApplicationSubmitRequest) (*model.TenantApplication, error) {
	start, err := req.Validate(s.now())
	if err != nil {
		return nil, err
	}

	if _, err := s.units.FindByID(ctx, req.UnitID); err != nil {
		return nil, err
	}
	pending, err := s.applications.HasPending(ctx, req.UnitID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check pending applications: %w", err)
	}
	if pending {
		return nil, model.Invalid("email", "An application with this email is already pending for this unit.")
	}

	idPicture, err := blob.DecodeDataURL(req.IDPicture)
	if err != nil {
		return nil, model.Invalid("id_picture", "The id picture must be a valid base64 image.")
	}
	var profile *blob.Image
	if req.ProfilePicture != "" {
		if profile, err = blob.DecodeDataURL(req.ProfilePicture); err != nil {
			return nil, model.Invalid("profile_picture", "The profile picture must be a valid base64 image.")
		}
	}

	var stored []string
	cleanup := func() {
		for _, name := range stored {
			if err := s.blobs.Delete(context.WithoutCancel(ctx), name); err != nil {
				logger.Warn("failed to remove orphaned application picture", "path", name, "error", err)
			}
		}
	}

	idPath, err := blob.SaveImage(ctx, s.blobs, applicationBlobDir, "id", idPicture)
	if err != nil {
		logger.Error("failed to store id picture", "unit_id", req.UnitID, "error", err)
		return nil, model.Invalid("id_picture", "The id picture could not be stored.")
	}
	stored = append(stored, idPath)

	var profilePath string
	if profile != nil {
		if profilePath, err = blob.SaveImage(ctx, s.blobs, applicationBlobDir, "profile", profile); err != nil {
			cleanup()
			logger.Error("failed to store profile picture", "unit_id", req.UnitID, "error", err)
			return nil, model.Invalid("profile_picture", "The profile picture could not be stored.")
		}
		stored = append(stored, profilePath)
	}

	app := &model.TenantApplication{
		UnitID:         req.UnitID,
		FirstName:      req.FirstName,
		MiddleName:     strings.TrimSpace(req.MiddleName),
		LastName:       req.LastName,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          strings.TrimSpace(req.Phone),
		Whatsapp:       strings.TrimSpace(req.Whatsapp),
		Occupation:     strings.TrimSpace(req.Occupation),
		MonthlyIncome:  *req.MonthlyIncome,
		Address:        strings.TrimSpace(req.Address),
		NumberOfPeople: *req.NumberOfPeople,
		Reference1: model.Reference{
			Name: req.Reference1Name, Address: req.Reference1Address, Phone: req.Reference1Phone,
			Email: req.Reference1Email, Relationship: req.Reference1Relation,
		},
		Reference2: model.Reference{
			Name: req.Reference2Name, Address: req.Reference2Address, Phone: req.Reference2Phone,
			Email: req.Reference2Email, Relationship: req.Reference2Relation,
		},
		LeaseDurationMonths: req.LeaseDurationMonths,
		LeaseStartDate:      &start,
		IDPicture:           idPath,
		ProfilePicture:      profilePath,
		Notes:               req.Notes,
	}
	created, err := s.applications.Create(ctx, app)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("create application: %w", err)
	}
	logger.Info("application submitted", "application_id", created.ID, "unit_id", created.UnitID)
	return s.present(created), nil
}

func (s *ApplicationService) Get(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error) {
	app, err := s.owned(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	return s.present(app), nil
}

func (s *ApplicationService) List(ctx context.Context, landlordID int64, statuses ...model.ApplicationStatus) ([]*model.TenantApplication, error) {
	apps, err := s.applications.List(ctx, model.ApplicationFilter{LandlordID: landlordID, Statuses: statuses})
	if err != nil {
		return nil, err
	}
	for i := range apps {
		apps[i] = s.present(apps[i])
	}
	return apps, nil
}

// Approve provisions or reuses the tenant account and assigns the unit. Every write happens
// in one transaction that starts with the pending→approved status guard.
func (s *ApplicationService) Approve(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error) {
	app, err := s.owned(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	if app.Status != model.ApplicationStatusPending {
		return nil, fmt.Errorf("application %d is %s: %w", id, app.Status, model.ErrAlreadyProcessed)
	}

	release, err := acquireDecision(ctx, s.lock, "application", id)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		tenant  *model.Tenant
		created bool
		occ     model.Occupancy
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.applications.Transition(ctx, id, model.ApplicationStatusPending, model.ApplicationStatusApproved)
		if err != nil {
			return fmt.Errorf("approve application: %w", err)
		}
		if !ok {
			return fmt.Errorf("application %d: %w", id, model.ErrAlreadyProcessed)
		}

		unit, err := s.units.FindForUpdate(ctx, app.UnitID)
		if err != nil {
			return err
		}

		var sameTenant bool
		tenant, created, sameTenant, err = s.resolveTenant(ctx, app, unit)
		if err != nil {
			return err
		}

		occ = s.occupancy(app, unit, tenant.ID)
		if err := s.units.Assign(ctx, unit.ID, occ); err != nil {
			return fmt.Errorf("assign unit: %w", err)
		}
		if sameTenant {
			return nil
		}
		return s.properties.AdjustTenants(ctx, unit.PropertyID, 1)
	})
	if err != nil {
		return nil, err
	}

	if created {
		logger.Warn("tenant account created with derived default password; share it out-of-band and ask the tenant to change it",
			"tenant_id", tenant.ID, "application_id", id)
	}
	recordTransition("application", "approved", id, landlordID,
		"tenant_id", tenant.ID, "unit_id", app.UnitID, "lease_end", occ.LeaseEnd.Format(model.DateLayout))

	return s.Get(ctx, id, landlordID)
}

func (s *ApplicationService) Reject(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error) {
	app, err := s.owned(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	if app.Status != model.ApplicationStatusPending {
		return nil, fmt.Errorf("application %d is %s: %w", id, app.Status, model.ErrAlreadyProcessed)
	}

	release, err := acquireDecision(ctx, s.lock, "application", id)
	if err != nil {
		return nil, err
	}
	defer release()

	ok, err := s.applications.Transition(ctx, id, model.ApplicationStatusPending, model.ApplicationStatusRejected)
	if err != nil {
		return nil, fmt.Errorf("reject application: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("application %d: %w", id, model.ErrAlreadyProcessed)
	}
	recordTransition("application", "rejected", id, landlordID, "unit_id", app.UnitID)

	return s.Get(ctx, id, landlordID)
}

// Unassign removes the tenant from every unit of the landlord. The tenant account stays.
func (s *ApplicationService) Unassign(ctx context.Context, tenantID, landlordID int64) (int, error) {
	var n int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		units, err := s.units.ListByTenantForLandlord(ctx, tenantID, landlordID)
		if err != nil {
			return err
		}
		if len(units) == 0 {
			return fmt.Errorf("tenant %d: %w", tenantID, model.ErrNotFound)
		}
		for _, u := range units {
			if err := s.units.Unassign(ctx, u.ID); err != nil {
				return fmt.Errorf("unassign unit %d: %w", u.ID, err)
			}
			if err := s.properties.AdjustTenants(ctx, u.PropertyID, -1); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	recordTransition("tenant", "unassigned", tenantID, landlordID, "units", n)
	return n, nil
}

// resolveTenant picks the account the unit is assigned to. sameTenant reports that the
// unit already belonged to that account.
func (s *ApplicationService) resolveTenant(ctx context.Context, app *model.TenantApplication, unit *model.Unit) (tenant *model.Tenant, created, sameTenant bool, err error) {
	email := strings.ToLower(strings.TrimSpace(app.Email))

	if unit.TenantID != nil {
		current, err := s.tenants.FindByID(ctx, *unit.TenantID)
		if err != nil {
			return nil, false, false, fmt.Errorf("current tenant of unit %d: %w", unit.ID, err)
		}
		if !strings.EqualFold(current.Email, email) {
			return nil, false, false, fmt.Errorf("unit %d: %w", unit.ID, model.ErrUnitOccupiedConflict)
		}
		if err := s.tenants.UpdateContact(ctx, current.ID, app.Phone, app.Address); err != nil {
			return nil, false, false, err
		}
		return current, false, true, nil
	}

	existing, err := s.tenants.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.tenants.UpdateContact(ctx, existing.ID, app.Phone, app.Address); err != nil {
			return nil, false, false, err
		}
		return existing, false, false, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, false, false, err
	}

	password, err := DefaultTenantPassword(app)
	if err != nil {
		return nil, false, false, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, false, fmt.Errorf("hash tenant password: %w", err)
	}
	tenant, created, err = s.tenants.ResolveOrCreate(ctx, email, model.TenantDefaults{
		Name:         app.FullName(),
		Phone:        app.Phone,
		Address:      app.Address,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, false, false, fmt.Errorf("resolve tenant: %w", err)
	}
	return tenant, created, false, nil
}

func (s *ApplicationService) occupancy(app *model.TenantApplication, unit *model.Unit, tenantID int64) model.Occupancy {
	start := model.StartOfDay(s.now())
	if app.LeaseStartDate != nil {
		start = *app.LeaseStartDate
	}
	months := model.NormalizeLeaseDuration(app.LeaseDurationMonths)
	return model.Occupancy{
		TenantID:      tenantID,
		LeaseStart:    start,
		LeaseEnd:      start.AddDate(0, months, 0),
		LeaseDuration: months,
		LeaseAmount:   unit.MonthlyRent,
		LeaseDeposit:  unit.SecurityDeposit,
	}
}

func (s *ApplicationService) owned(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error) {
	app, err := s.applications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(app.Unit, landlordID); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *ApplicationService) present(app *model.TenantApplication) *model.TenantApplication {
	if s.blobs == nil {
		return app
	}
	out := *app
	out.IDPicture = blob.PublicURL(s.blobs, app.IDPicture)
	out.ProfilePicture = blob.PublicURL(s.blobs, app.ProfilePicture)
	return &out
}

// DefaultTenantPassword derives lowercase(surname) + the last four phone digits.
// Inner spaces of multi-word surnames are kept.
// This is a weak, guessable credential kept for compatibility: landlords hand it to
// tenants out-of-band.
func DefaultTenantPassword(app *model.TenantApplication) (string, error) {
	surname := strings.ToLower(strings.TrimSpace(app.Surname()))
	var digits []rune
	for _, r := range app.Phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if surname == "" || len(digits) < 4 {
		return "", model.ErrMissingCredentialInputs
	}
	return surname + string(digits[len(digits)-4:]), nil
}
