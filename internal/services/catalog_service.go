package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/repos"
	"honeypos/internal/validate"
)

type CatalogService struct {
	Store *repos.Store
}

func NewCatalogService(store *repos.Store) *CatalogService {
	return &CatalogService{Store: store}
}

// Patches replace only the fields that are set. Ids never change.

type ProductPatch struct {
	Name        *string             `json:"name"`
	Type        *domain.ProductType `json:"type"`
	Category    *string             `json:"category"`
	Description *string             `json:"description"`
	BasePrice   *decimal.Decimal    `json:"basePrice"`
	Unit        *domain.Unit        `json:"unit"`
	MinWeight   *decimal.Decimal    `json:"minWeight"`
	MaxWeight   *decimal.Decimal    `json:"maxWeight"`
	IsActive    *bool               `json:"isActive"`
	ImageURL    *string             `json:"imageUrl"`
}

func (p ProductPatch) apply(prod domain.Product) domain.Product {
	set(&prod.Name, p.Name)
	set(&prod.Type, p.Type)
	set(&prod.Category, p.Category)
	set(&prod.Description, p.Description)
	set(&prod.BasePrice, p.BasePrice)
	set(&prod.Unit, p.Unit)
	set(&prod.MinWeight, p.MinWeight)
	set(&prod.MaxWeight, p.MaxWeight)
	set(&prod.IsActive, p.IsActive)
	set(&prod.ImageURL, p.ImageURL)
	return prod
}

type LocationPatch struct {
	Name        *string             `json:"name"`
	Address     *string             `json:"address"`
	ManagerID   *string             `json:"managerId"`
	IsActive    *bool               `json:"isActive"`
	Coordinates *domain.Coordinates `json:"coordinates"`
}

func (p LocationPatch) apply(loc domain.Location) domain.Location {
	set(&loc.Name, p.Name)
	set(&loc.Address, p.Address)
	set(&loc.ManagerID, p.ManagerID)
	set(&loc.IsActive, p.IsActive)
	if p.Coordinates != nil {
		c := *p.Coordinates
		loc.Coordinates = &c
	}
	return loc
}

type SupplierPatch struct {
	Name          *string                   `json:"name"`
	ContactPerson *string                   `json:"contactPerson"`
	Phone         *string                   `json:"phone"`
	Email         *string                   `json:"email"`
	Products      *[]domain.SupplierProduct `json:"products"`
	IsActive      *bool                     `json:"isActive"`
}

func (p SupplierPatch) apply(s domain.Supplier) domain.Supplier {
	set(&s.Name, p.Name)
	set(&s.ContactPerson, p.ContactPerson)
	set(&s.Phone, p.Phone)
	set(&s.Email, p.Email)
	if p.Products != nil {
		s.Products = slices.Clone(*p.Products)
	}
	set(&s.IsActive, p.IsActive)
	return s
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// ---------- Products ----------

func validateProduct(p domain.Product) error {
	if _, ok := validate.Name(p.Name); !ok {
		return invalid("product.name", "name must be 1-100 characters")
	}
	if !p.Type.Valid() {
		return invalid("product.type", "unknown product type %q", p.Type)
	}
	if !p.Unit.Valid() {
		return invalid("product.unit", "unknown unit %q", p.Unit)
	}
	if p.BasePrice.IsNegative() {
		return invalid("product.price", "base price cannot be negative")
	}
	if p.MinWeight.IsNegative() || p.MaxWeight.IsNegative() {
		return invalid("product.weight", "weights cannot be negative")
	}
	if !p.MaxWeight.IsZero() && p.MinWeight.GreaterThan(p.MaxWeight) {
		return invalid("product.weight", "min weight %s exceeds max weight %s", p.MinWeight, p.MaxWeight)
	}
	return nil
}

func (s *CatalogService) AddProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.ID = newID("prod")
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		ps := tx.MutProducts()
		*ps = append(*ps, p)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	applog.Audit(nil, "catalog.product.add", map[string]any{"product": p.ID, "name": p.Name})
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (domain.Product, error) {
	var out domain.Product
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		i := slices.IndexFunc(tx.Products(), func(p domain.Product) bool { return p.ID == id })
		if i < 0 {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		next := patch.apply(tx.Products()[i])
		if err := validateProduct(next); err != nil {
			return err
		}
		(*tx.MutProducts())[i] = next
		out = next
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	applog.Audit(nil, "catalog.product.update", map[string]any{"product": id})
	return out, nil
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	return findProduct(s.Store.Snapshot().Products, id)
}

// ListProducts returns products in insertion order.
func (s *CatalogService) ListProducts(activeOnly bool) []domain.Product {
	all := s.Store.Snapshot().Products
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SearchProducts matches q against name, category and description, case
// insensitively. An empty typ matches both honey and jam.
func (s *CatalogService) SearchProducts(q string, typ domain.ProductType) []domain.Product {
	q = strings.ToLower(q)
	out := []domain.Product{}
	for _, p := range s.Store.Snapshot().Products {
		if typ != "" && p.Type != typ {
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct product categories, sorted.
func (s *CatalogService) Categories() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range s.Store.Snapshot().Products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	slices.Sort(out)
	return out
}

func findProduct(products []domain.Product, id string) (domain.Product, error) {
	i := slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == id })
	if i < 0 {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return products[i], nil
}

// ---------- Locations ----------

func validateLocation(l domain.Location) error {
	if _, ok := validate.Name(l.Name); !ok {
		return invalid("location.name", "name must be 1-100 characters")
	}
	return nil
}

func (s *CatalogService) AddLocation(ctx context.Context, l domain.Location) (domain.Location, error) {
	l.ID = newID("loc")
	if err := validateLocation(l); err != nil {
		return domain.Location{}, err
	}
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		ls := tx.MutLocations()
		*ls = append(*ls, l)
		return nil
	})
	if err != nil {
		return domain.Location{}, err
	}
	applog.Audit(nil, "catalog.location.add", map[string]any{"location": l.ID, "name": l.Name})
	return l, nil
}

func (s *CatalogService) UpdateLocation(ctx context.Context, id string, patch LocationPatch) (domain.Location, error) {
	var out domain.Location
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		i := slices.IndexFunc(tx.Locations(), func(l domain.Location) bool { return l.ID == id })
		if i < 0 {
			return fmt.Errorf("location %s: %w", id, ErrNotFound)
		}
		next := patch.apply(tx.Locations()[i])
		if err := validateLocation(next); err != nil {
			return err
		}
		(*tx.MutLocations())[i] = next
		out = next
		return nil
	})
	if err != nil {
		return domain.Location{}, err
	}
	applog.Audit(nil, "catalog.location.update", map[string]any{"location": id})
	return out, nil
}

func (s *CatalogService) GetLocation(id string) (domain.Location, error) {
	return findLocation(s.Store.Snapshot().Locations, id)
}

func (s *CatalogService) ListLocations() []domain.Location {
	return slices.Clone(s.Store.Snapshot().Locations)
}

func findLocation(locations []domain.Location, id string) (domain.Location, error) {
	i := slices.IndexFunc(locations, func(l domain.Location) bool { return l.ID == id })
	if i < 0 {
		return domain.Location{}, fmt.Errorf("location %s: %w", id, ErrNotFound)
	}
	return locations[i], nil
}

// ---------- Suppliers ----------

func validateSupplier(sup domain.Supplier, products []domain.Product) error {
	if _, ok := validate.Name(sup.Name); !ok {
		return invalid("supplier.name", "name must be 1-100 characters")
	}
	if sup.Email != "" {
		if _, ok := validate.Email(sup.Email); !ok {
			return invalid("supplier.email", "invalid email %q", sup.Email)
		}
	}
	if _, ok := validate.Phone(sup.Phone); !ok {
		return invalid("supplier.phone", "invalid phone %q", sup.Phone)
	}
	for _, sp := range sup.Products {
		if _, err := findProduct(products, sp.ProductID); err != nil {
			return invalid("supplier.product", "unknown product %q", sp.ProductID)
		}
		if sp.PurchasePrice.IsNegative() || sp.MinOrderQuantity.IsNegative() || sp.DeliveryDays < 0 {
			return invalid("supplier.terms", "negative terms for product %q", sp.ProductID)
		}
	}
	return nil
}

func (s *CatalogService) AddSupplier(ctx context.Context, sup domain.Supplier) (domain.Supplier, error) {
	sup.ID = newID("sup")
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		if err := validateSupplier(sup, tx.Products()); err != nil {
			return err
		}
		ss := tx.MutSuppliers()
		*ss = append(*ss, sup)
		return nil
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	applog.Audit(nil, "catalog.supplier.add", map[string]any{"supplier": sup.ID, "name": sup.Name})
	return sup, nil
}

func (s *CatalogService) UpdateSupplier(ctx context.Context, id string, patch SupplierPatch) (domain.Supplier, error) {
	var out domain.Supplier
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		i := slices.IndexFunc(tx.Suppliers(), func(x domain.Supplier) bool { return x.ID == id })
		if i < 0 {
			return fmt.Errorf("supplier %s: %w", id, ErrNotFound)
		}
		next := patch.apply(tx.Suppliers()[i])
		if err := validateSupplier(next, tx.Products()); err != nil {
			return err
		}
		(*tx.MutSuppliers())[i] = next
		out = next
		return nil
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	applog.Audit(nil, "catalog.supplier.update", map[string]any{"supplier": id})
	return out, nil
}

func (s *CatalogService) GetSupplier(id string) (domain.Supplier, error) {
	return findSupplier(s.Store.Snapshot().Suppliers, id)
}

func (s *CatalogService) ListSuppliers() []domain.Supplier {
	return slices.Clone(s.Store.Snapshot().Suppliers)
}

func findSupplier(suppliers []domain.Supplier, id string) (domain.Supplier, error) {
	i := slices.IndexFunc(suppliers, func(x domain.Supplier) bool { return x.ID == id })
	if i < 0 {
		return domain.Supplier{}, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	return suppliers[i], nil
}
