package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/repos"
	"honeypos/internal/validate"
)

// EvalScope is the context a cart is evaluated in.
type EvalScope struct {
	LocationID string
	At         time.Time
	// Known reports whether a product exists in the catalog. Nil accepts every id.
	Known func(productID string) bool
	// Uses holds redemption counts keyed by domain.RedemptionKey.
	Uses map[string]int
}

// Applies reports whether p is active, in its date window and scoped to locationID.
// An empty location list means every location; the end date is inclusive.
func Applies(p domain.Promotion, locationID string, at time.Time) bool {
	if !p.IsActive {
		return false
	}
	if at.Before(p.StartDate) {
		return false
	}
	if p.EndDate != nil && at.After(*p.EndDate) {
		return false
	}
	if len(p.Locations) > 0 && !slices.Contains(p.Locations, locationID) {
		return false
	}
	return true
}

// Evaluate returns the gifts the cart earns. A triggered promotion emits its
// gift set once, whichever and however many of its conditions hold. Output
// follows promotion order, then gift order. Evaluate has no state; the same
// inputs always give the same gifts.
func Evaluate(cart []domain.SaleItem, promos []domain.Promotion, scope EvalScope) []domain.GiftItem {
	known := scope.Known
	if known == nil {
		known = func(string) bool { return true }
	}

	qty := map[string]decimal.Decimal{}
	amount := map[string]decimal.Decimal{}
	for _, it := range cart {
		qty[it.ProductID] = qty[it.ProductID].Add(it.Quantity)
		amount[it.ProductID] = amount[it.ProductID].Add(it.Quantity.Mul(it.UnitPrice))
	}

	gifts := []domain.GiftItem{}
	for _, p := range promos {
		if !Applies(p, scope.LocationID, scope.At) {
			continue
		}
		if !triggered(p, qty, amount, known) {
			continue
		}
		for _, g := range p.Gifts {
			if !known(g.ProductID) {
				applog.Warn(nil, "promotion.reference.missing", map[string]any{
					"promotion": p.ID, "product": g.ProductID, "role": "gift",
				})
				continue
			}
			if g.MaxUses != nil && scope.Uses[domain.RedemptionKey(p.ID, g.ProductID)] >= *g.MaxUses {
				continue
			}
			gifts = append(gifts, domain.GiftItem{
				ProductID:   g.ProductID,
				Quantity:    g.Quantity,
				Reason:      "Promotion: " + p.Name,
				PromotionID: p.ID,
			})
		}
	}
	return gifts
}

func triggered(p domain.Promotion, qty, amount map[string]decimal.Decimal, known func(string) bool) bool {
	for _, c := range p.Conditions {
		if !known(c.ProductID) {
			applog.Warn(nil, "promotion.reference.missing", map[string]any{
				"promotion": p.ID, "product": c.ProductID, "role": "condition",
			})
			continue
		}
		q, ok := qty[c.ProductID]
		if !ok || q.LessThan(c.MinQuantity) {
			continue
		}
		if c.MinAmount != nil && amount[c.ProductID].LessThan(*c.MinAmount) {
			continue
		}
		return true
	}
	return false
}

type PromotionService struct {
	Store *repos.Store
	Now   func() time.Time
}

func NewPromotionService(store *repos.Store) *PromotionService {
	return &PromotionService{Store: store, Now: nowUTC}
}

func validatePromotion(p domain.Promotion, d repos.Data) error {
	if _, ok := validate.Name(p.Name); !ok {
		return invalid("promotion.name", "name must be 1-100 characters")
	}
	if !p.Type.Valid() {
		return invalid("promotion.type", "unknown promotion type %q", p.Type)
	}
	if len(p.Conditions) == 0 {
		return invalid("promotion.conditions", "at least one condition is required")
	}
	if len(p.Gifts) == 0 {
		return invalid("promotion.gifts", "at least one gift is required")
	}
	for _, c := range p.Conditions {
		if _, err := findProduct(d.Products, c.ProductID); err != nil {
			return invalid("promotion.condition", "unknown product %q", c.ProductID)
		}
		if !c.MinQuantity.IsPositive() {
			return invalid("promotion.condition", "min quantity must be positive")
		}
		if c.MinAmount != nil && c.MinAmount.IsNegative() {
			return invalid("promotion.condition", "min amount cannot be negative")
		}
	}
	for _, g := range p.Gifts {
		if _, err := findProduct(d.Products, g.ProductID); err != nil {
			return invalid("promotion.gift", "unknown product %q", g.ProductID)
		}
		if !g.Quantity.IsPositive() {
			return invalid("promotion.gift", "gift quantity must be positive")
		}
		if g.MaxUses != nil && *g.MaxUses < 1 {
			return invalid("promotion.gift", "max uses must be at least 1")
		}
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return invalid("promotion.dates", "end date is before start date")
	}
	for _, loc := range p.Locations {
		if _, err := findLocation(d.Locations, loc); err != nil {
			return invalid("promotion.location", "unknown location %q", loc)
		}
	}
	return nil
}

// Create stores a new promotion. A zero start date means "from now".
func (s *PromotionService) Create(ctx context.Context, p domain.Promotion) (domain.Promotion, error) {
	p.ID = newID("promo")
	if p.StartDate.IsZero() {
		p.StartDate = s.Now()
	}
	if p.Locations == nil {
		p.Locations = []string{}
	}
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		if err := validatePromotion(p, repos.Data{Products: tx.Products(), Locations: tx.Locations()}); err != nil {
			return err
		}
		ps := tx.MutPromotions()
		*ps = append(*ps, p)
		return nil
	})
	if err != nil {
		return domain.Promotion{}, err
	}
	applog.Audit(nil, "promotion.create", map[string]any{"promotion": p.ID, "name": p.Name})
	return p, nil
}

func (s *PromotionService) SetActive(ctx context.Context, id string, active bool) (domain.Promotion, error) {
	var out domain.Promotion
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		i := slices.IndexFunc(tx.Promotions(), func(p domain.Promotion) bool { return p.ID == id })
		if i < 0 {
			return fmt.Errorf("promotion %s: %w", id, ErrNotFound)
		}
		ps := tx.MutPromotions()
		(*ps)[i].IsActive = active
		out = (*ps)[i]
		return nil
	})
	if err != nil {
		return domain.Promotion{}, err
	}
	applog.Audit(nil, "promotion.toggle", map[string]any{"promotion": id, "active": active})
	return out, nil
}

func (s *PromotionService) Get(id string) (domain.Promotion, error) {
	promos := s.Store.Snapshot().Promotions
	i := slices.IndexFunc(promos, func(p domain.Promotion) bool { return p.ID == id })
	if i < 0 {
		return domain.Promotion{}, fmt.Errorf("promotion %s: %w", id, ErrNotFound)
	}
	return promos[i], nil
}

func (s *PromotionService) List() []domain.Promotion {
	return slices.Clone(s.Store.Snapshot().Promotions)
}

// Applicable lists the promotions that would be considered for a sale at locationID now.
func (s *PromotionService) Applicable(locationID string) []domain.Promotion {
	now := s.Now()
	out := []domain.Promotion{}
	for _, p := range s.Store.Snapshot().Promotions {
		if Applies(p, locationID, now) {
			out = append(out, p)
		}
	}
	return out
}

// Evaluate runs the cart against the stored promotions for a sale at locationID.
func (s *PromotionService) Evaluate(cart []domain.SaleItem, locationID string) []domain.GiftItem {
	d := s.Store.Snapshot()
	return Evaluate(cart, d.Promotions, scopeFor(d, locationID, s.Now()))
}

func scopeFor(d repos.Data, locationID string, at time.Time) EvalScope {
	products := make(map[string]bool, len(d.Products))
	for _, p := range d.Products {
		products[p.ID] = true
	}
	uses := make(map[string]int, len(d.Redemptions))
	for _, r := range d.Redemptions {
		uses[domain.RedemptionKey(r.PromotionID, r.ProductID)] = r.Uses
	}
	return EvalScope{
		LocationID: locationID,
		At:         at,
		Known:      func(id string) bool { return products[id] },
		Uses:       uses,
	}
}
