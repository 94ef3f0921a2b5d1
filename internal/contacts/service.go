package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/pkg/cache"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
)

// Cache families owned by the contacts page.
const (
	cacheFamilyContacts  = "contacts"
	cacheFamilyCountries = "countries"
)

// Service defines the contacts behavior needed by the controllers.
type Service interface {
	ListGrouped(ctx context.Context) ([]CountryGroup, error)
	Countries(ctx context.Context) ([]CountryDTO, error)
	ByCountryCode(ctx context.Context, code string) ([]ContactDTO, error)
	ByCity(ctx context.Context, city string) ([]ContactDTO, error)

	Create(ctx context.Context, req CreateContactRequest) (*ContactDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateContactRequest) (*ContactDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     *Repository
	cache    *cache.Cache
	cacheCfg config.CacheConfig
}

// ServiceParams bundles the dependencies required to build a contacts service.
type ServiceParams struct {
	Repo        *Repository
	Cache       *cache.Cache
	CacheConfig config.CacheConfig
}

// NewService constructs a contacts service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		cacheCfg: params.CacheConfig,
	}, nil
}

func (s *service) ListGrouped(ctx context.Context) ([]CountryGroup, error) {
	compute := func(ctx context.Context) (any, error) {
		items, err := s.repo.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		return groupByCountry(items), nil
	}

	var out []CountryGroup
	if s.cache != nil {
		if err := s.cache.GetOrCompute(ctx, &out, s.cacheCfg.ContactsTTL, cacheFamilyContacts, nil, compute); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contacts")
		}
		return out, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contacts")
	}
	return result.([]CountryGroup), nil
}

func (s *service) Countries(ctx context.Context) ([]CountryDTO, error) {
	compute := func(ctx context.Context) (any, error) {
		items, err := s.repo.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		groups := groupByCountry(items)
		out := make([]CountryDTO, 0, len(groups))
		for _, g := range groups {
			out = append(out, CountryDTO{
				Country:     g.Country,
				CountryCode: g.CountryCode,
				Offices:     len(g.Offices),
			})
		}
		return out, nil
	}

	var out []CountryDTO
	if s.cache != nil {
		if err := s.cache.GetOrCompute(ctx, &out, s.cacheCfg.ContactsTTL, cacheFamilyCountries, nil, compute); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list countries")
		}
		return out, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list countries")
	}
	return result.([]CountryDTO), nil
}

func (s *service) ByCountryCode(ctx context.Context, code string) ([]ContactDTO, error) {
	items, err := s.repo.ListByCountryCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "contacts by country")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no offices in this country")
	}
	return FromModels(items), nil
}

func (s *service) ByCity(ctx context.Context, city string) ([]ContactDTO, error) {
	items, err := s.repo.ListByCity(ctx, city)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "contacts by city")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no offices in this city")
	}
	return FromModels(items), nil
}

func (s *service) Create(ctx context.Context, req CreateContactRequest) (*ContactDTO, error) {
	contact := &models.Contact{
		Country:      strings.TrimSpace(req.Country),
		CountryCode:  strings.ToUpper(strings.TrimSpace(req.CountryCode)),
		City:         strings.TrimSpace(req.City),
		Address:      strings.TrimSpace(req.Address),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.TrimSpace(req.Email),
		WorkingHours: strings.TrimSpace(req.WorkingHours),
		MapLat:       req.MapLat,
		MapLng:       req.MapLng,
		PhotoURL:     req.PhotoURL,
		MapImageURL:  req.MapImageURL,
		IsActive:     true,
		SortOrder:    req.SortOrder,
	}
	if req.IsHeadquarters != nil {
		contact.IsHeadquarters = *req.IsHeadquarters
	}
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}

	created, err := s.repo.Create(ctx, contact)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create contact")
	}

	s.invalidate(ctx)
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateContactRequest) (*ContactDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load contact")
	}

	updates := map[string]any{}
	if req.Country != nil {
		updates["country"] = strings.TrimSpace(*req.Country)
	}
	if req.CountryCode != nil {
		updates["country_code"] = strings.ToUpper(strings.TrimSpace(*req.CountryCode))
	}
	if req.City != nil {
		updates["city"] = strings.TrimSpace(*req.City)
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if req.WorkingHours != nil {
		updates["working_hours"] = strings.TrimSpace(*req.WorkingHours)
	}
	if req.MapLat != nil {
		updates["map_lat"] = *req.MapLat
	}
	if req.MapLng != nil {
		updates["map_lng"] = *req.MapLng
	}
	if req.PhotoURL != nil {
		updates["photo_url"] = *req.PhotoURL
	}
	if req.MapImageURL != nil {
		updates["map_image_url"] = *req.MapImageURL
	}
	if req.IsHeadquarters != nil {
		updates["is_headquarters"] = *req.IsHeadquarters
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update contact")
	}

	s.invalidate(ctx)

	contact, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload contact")
	}
	return FromModel(contact), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete contact")
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, cacheFamilyContacts, cacheFamilyCountries)
	}
}

// groupByCountry folds the flat ordered list into one group per country,
// preserving the repository ordering inside each group.
func groupByCountry(items []models.Contact) []CountryGroup {
	groups := make([]CountryGroup, 0)
	index := make(map[string]int)
	for i := range items {
		key := items[i].CountryCode
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, CountryGroup{
				Country:     items[i].Country,
				CountryCode: items[i].CountryCode,
			})
		}
		groups[pos].Offices = append(groups[pos].Offices, *FromModel(&items[i]))
	}
	return groups
}
