package marketplace

import (
	"context"
	"fmt"

	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/infrastructure/coordination"
	"coopshares-backend/internal/infrastructure/ledger"
	"coopshares-backend/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source selects where a routed purchase may take shares from.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceAuto      Source = "auto"
)

// ParseSource validates a routing option. An empty string means auto.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourcePrimary, SourceSecondary, SourceAuto:
		return Source(s), nil
	case "":
		return SourceAuto, nil
	}
	return "", fmt.Errorf("unknown source %q: %w", s, domain.ErrInvalidArgument)
}

func (src Source) usesPrimary() bool   { return src == SourcePrimary || src == SourceAuto }
func (src Source) usesSecondary() bool { return src == SourceSecondary || src == SourceAuto }

// Purchase is the result of a routed purchase. Trades are in execution order.
type Purchase struct {
	Trades        []domain.ShareTrade `json:"trades"`
	TotalQuantity int64               `json:"total_quantity"`
	TotalPrice    int64               `json:"total_price"`
}

func (p *Purchase) add(t domain.ShareTrade) {
	p.Trades = append(p.Trades, t)
	p.TotalQuantity += t.Quantity
	p.TotalPrice += t.TotalPrice
}

// BuyFromListing buys qty shares from one listing at its snapshot price.
func (s *Service) BuyFromListing(ctx context.Context, actor domain.Actor, listingID uuid.UUID, qty int64) (*domain.ShareTrade, error) {
	if !actor.Valid() {
		return nil, fmt.Errorf("buy: %w", domain.ErrPermission)
	}
	if qty <= 0 {
		return nil, reject(domain.ErrInvalidQuantity)
	}

	var trade domain.ShareTrade
	var event string
	err := s.run(ctx, coordination.ListingKey(listingID), func(tx *gorm.DB) error {
		l, err := ledger.LockListing(tx, listingID)
		if err != nil {
			return err
		}
		if l.Status != domain.ListingActive {
			return fmt.Errorf("listing is %s: %w", l.Status, domain.ErrInvalidState)
		}
		if l.SellerID == actor.UserID {
			return domain.ErrSelfTrade
		}
		if qty > l.QuantityAvailable {
			return fmt.Errorf("requested %d, listing has %d: %w", qty, l.QuantityAvailable, domain.ErrInsufficientQuantity)
		}
		if trade, event, err = s.fillListing(tx, actor, l, qty); err != nil {
			return err
		}
		return ledger.CreditHolding(tx, l.CooperativeID, actor.UserID, qty)
	})
	if err != nil {
		return nil, reject(err)
	}
	observability.ListingTransitions.WithLabelValues(event).Inc()
	observeTrades(trade)
	return &trade, nil
}

// BuyPrimary buys qty shares from the cooperative treasury at the current price.
func (s *Service) BuyPrimary(ctx context.Context, actor domain.Actor, coopID uuid.UUID, qty int64) (*domain.ShareTrade, error) {
	if !actor.Valid() {
		return nil, fmt.Errorf("buy: %w", domain.ErrPermission)
	}
	if qty <= 0 {
		return nil, reject(domain.ErrInvalidQuantity)
	}

	var trade domain.ShareTrade
	err := s.run(ctx, coordination.CooperativeKey(coopID), func(tx *gorm.DB) error {
		coop, err := ledger.LockCooperative(tx, coopID)
		if err != nil {
			return err
		}
		if coop.AvailablePrimaryShares < qty {
			return &domain.Shortfall{Source: string(SourcePrimary), Requested: qty, Available: coop.AvailablePrimaryShares}
		}
		if trade, err = s.sellPrimary(tx, actor, coop, qty); err != nil {
			return err
		}
		return ledger.CreditHolding(tx, coopID, actor.UserID, qty)
	})
	if err != nil {
		return nil, reject(err)
	}
	observeTrades(trade)
	return &trade, nil
}

// BuyFromMarketplace buys qty shares routed by source. Primary inventory is
// drained before listings; listings are drained oldest first and the buyer's
// own listings are skipped. Availability is checked and consumed under the
// same cooperative lock, so a purchase either completes in full or not at all.
func (s *Service) BuyFromMarketplace(ctx context.Context, actor domain.Actor, coopID uuid.UUID, qty int64, source Source) (*Purchase, error) {
	if !actor.Valid() {
		return nil, fmt.Errorf("buy: %w", domain.ErrPermission)
	}
	if qty <= 0 {
		return nil, reject(domain.ErrInvalidQuantity)
	}
	if !source.usesPrimary() && !source.usesSecondary() {
		return nil, reject(fmt.Errorf("unknown source %q: %w", source, domain.ErrInvalidArgument))
	}

	purchase := &Purchase{Trades: []domain.ShareTrade{}}
	var events []string
	err := s.run(ctx, coordination.CooperativeKey(coopID), func(tx *gorm.DB) error {
		coop, err := ledger.LockCooperative(tx, coopID)
		if err != nil {
			return err
		}

		var primary int64
		if source.usesPrimary() {
			primary = coop.AvailablePrimaryShares
		}
		var listings []domain.ShareListing
		if source.usesSecondary() {
			if listings, err = ledger.ActiveListingsFIFO(tx, coopID, actor.UserID, true); err != nil {
				return err
			}
		}
		if available := primary + ledger.SumQuantity(listings); available < qty {
			return &domain.Shortfall{Source: string(source), Requested: qty, Available: available}
		}

		remaining := qty
		if primary > 0 {
			take := min(primary, remaining)
			trade, err := s.sellPrimary(tx, actor, coop, take)
			if err != nil {
				return err
			}
			purchase.add(trade)
			remaining -= take
		}
		for i := range listings {
			if remaining == 0 {
				break
			}
			take := min(listings[i].QuantityAvailable, remaining)
			trade, event, err := s.fillListing(tx, actor, &listings[i], take)
			if err != nil {
				return err
			}
			purchase.add(trade)
			events = append(events, event)
			remaining -= take
		}
		if remaining != 0 {
			return fmt.Errorf("%d shares left unfilled: %w", remaining, domain.ErrConsistency)
		}
		return ledger.CreditHolding(tx, coopID, actor.UserID, qty)
	})
	if err != nil {
		return nil, reject(err)
	}
	for _, e := range events {
		observability.ListingTransitions.WithLabelValues(e).Inc()
	}
	observeTrades(purchase.Trades...)
	return purchase, nil
}

// sellPrimary moves qty treasury shares to the buyer's trade record. The
// caller holds the cooperative row lock and credits the buyer.
func (s *Service) sellPrimary(tx *gorm.DB, actor domain.Actor, coop *domain.Cooperative, qty int64) (domain.ShareTrade, error) {
	if err := ledger.DebitPrimaryInventory(tx, coop.CooperativeID, qty); err != nil {
		return domain.ShareTrade{}, err
	}
	coop.AvailablePrimaryShares -= qty
	trade := domain.ShareTrade{
		CooperativeID: coop.CooperativeID,
		BuyerID:       actor.UserID,
		Quantity:      qty,
		PricePerShare: coop.PricePerShare,
		CreatedAt:     s.now(),
	}
	if err := ledger.AppendTrade(tx, &trade); err != nil {
		return domain.ShareTrade{}, err
	}
	return trade, nil
}

// fillListing takes qty from a locked listing, appends the trade and the
// fill event. The caller credits the buyer.
func (s *Service) fillListing(tx *gorm.DB, actor domain.Actor, l *domain.ShareListing, qty int64) (domain.ShareTrade, string, error) {
	if err := ledger.TakeFromListing(tx, l, qty); err != nil {
		return domain.ShareTrade{}, "", err
	}
	now := s.now()
	listingID, sellerID := l.ListingID, l.SellerID
	trade := domain.ShareTrade{
		CooperativeID: l.CooperativeID,
		BuyerID:       actor.UserID,
		SellerID:      &sellerID,
		ListingID:     &listingID,
		Quantity:      qty,
		PricePerShare: l.PricePerShare,
		CreatedAt:     now,
	}
	if err := ledger.AppendTrade(tx, &trade); err != nil {
		return domain.ShareTrade{}, "", err
	}

	event := domain.EventPartiallyFilled
	if l.Status == domain.ListingSoldOut {
		event = domain.EventFilled
	}
	err := ledger.RecordListingEvent(tx, l.ListingID, event, &actor.UserID, now, map[string]interface{}{
		"trade_id":           trade.TradeID,
		"quantity":           qty,
		"quantity_remaining": l.QuantityAvailable,
	})
	return trade, event, err
}

func observeTrades(trades ...domain.ShareTrade) {
	for _, t := range trades {
		kind := "secondary"
		if t.IsPrimary() {
			kind = "primary"
		}
		observability.TradesExecuted.WithLabelValues(kind).Inc()
		observability.SharesTraded.WithLabelValues(kind).Add(float64(t.Quantity))
	}
}
