package booking

import "fmt"

// RateCard is a property's live price list. Bookings never store it directly;
// they snapshot it at creation time.
type RateCard struct {
	perNight    AmountCents
	cleaningFee AmountCents
	serviceFee  AmountCents
	currency    Currency
}

// NewRateCard validates a rate card; the nightly rate must be positive.
func NewRateCard(perNight AmountCents, cleaningFee AmountCents, serviceFee AmountCents, currency Currency) (RateCard, error) {
	if perNight <= 0 {
		return RateCard{}, fmt.Errorf("%w: nightly rate must be greater than zero", ErrInvalidRateCard)
	}
	if currency.String() == "" {
		return RateCard{}, fmt.Errorf("%w: missing currency", ErrInvalidRateCard)
	}
	return RateCard{
		perNight:    perNight,
		cleaningFee: cleaningFee,
		serviceFee:  serviceFee,
		currency:    currency,
	}, nil
}

// PerNight returns the nightly rate.
func (rates RateCard) PerNight() AmountCents {
	return rates.perNight
}

// CleaningFee returns the one-time cleaning fee.
func (rates RateCard) CleaningFee() AmountCents {
	return rates.cleaningFee
}

// ServiceFee returns the one-time service fee.
func (rates RateCard) ServiceFee() AmountCents {
	return rates.serviceFee
}

// Currency returns the rate card currency.
func (rates RateCard) Currency() Currency {
	return rates.currency
}

// PricingSnapshot captures a booking's price at creation time. Later changes
// to the property's rate card never alter it.
type PricingSnapshot struct {
	perNight    AmountCents
	cleaningFee AmountCents
	serviceFee  AmountCents
	subtotal    AmountCents
	total       AmountCents
	currency    Currency
}

// NewPricingSnapshot prices a fresh booking from the property's current rate
// card: subtotal = nights x perNight, total = subtotal + fees.
func NewPricingSnapshot(rates RateCard, nights int) (PricingSnapshot, error) {
	if nights <= 0 {
		return PricingSnapshot{}, fmt.Errorf("%w: nights must be greater than zero", ErrInvalidStayRange)
	}
	subtotal := AmountCents(int64(nights) * rates.perNight.Int64())
	return PricingSnapshot{
		perNight:    rates.perNight,
		cleaningFee: rates.cleaningFee,
		serviceFee:  rates.serviceFee,
		subtotal:    subtotal,
		total:       subtotal + rates.cleaningFee + rates.serviceFee,
		currency:    rates.currency,
	}, nil
}

// NewExtensionPricing prices extra nights at the parent booking's nightly
// rate; one-time fees are not re-applied.
func NewExtensionPricing(perNight AmountCents, currency Currency, nights int) (PricingSnapshot, error) {
	if perNight <= 0 {
		return PricingSnapshot{}, fmt.Errorf("%w: nightly rate must be greater than zero", ErrInvalidAmountCents)
	}
	if nights <= 0 {
		return PricingSnapshot{}, fmt.Errorf("%w: nights must be greater than zero", ErrInvalidStayRange)
	}
	subtotal := AmountCents(int64(nights) * perNight.Int64())
	return PricingSnapshot{
		perNight: perNight,
		subtotal: subtotal,
		total:    subtotal,
		currency: currency,
	}, nil
}

// RestorePricingSnapshot rebuilds a stored snapshot without recomputation.
// Stores use it when mapping persisted rows back into the domain.
func RestorePricingSnapshot(perNight, cleaningFee, serviceFee, subtotal, total AmountCents, currency Currency) PricingSnapshot {
	return PricingSnapshot{
		perNight:    perNight,
		cleaningFee: cleaningFee,
		serviceFee:  serviceFee,
		subtotal:    subtotal,
		total:       total,
		currency:    currency,
	}
}

// PerNight returns the snapshotted nightly rate.
func (pricing PricingSnapshot) PerNight() AmountCents {
	return pricing.perNight
}

// CleaningFee returns the snapshotted cleaning fee.
func (pricing PricingSnapshot) CleaningFee() AmountCents {
	return pricing.cleaningFee
}

// ServiceFee returns the snapshotted service fee.
func (pricing PricingSnapshot) ServiceFee() AmountCents {
	return pricing.serviceFee
}

// Subtotal returns nights x perNight.
func (pricing PricingSnapshot) Subtotal() AmountCents {
	return pricing.subtotal
}

// Total returns subtotal plus one-time fees.
func (pricing PricingSnapshot) Total() AmountCents {
	return pricing.total
}

// Currency returns the snapshotted currency.
func (pricing PricingSnapshot) Currency() Currency {
	return pricing.currency
}
