package affordability

import "github.com/iwvelando/mortgage-calculator/pkg/constants"

// Segment is a coarse price band used to group calculations.
type Segment string

// Price segments, cheapest first.
const (
	SegmentStarter   Segment = "starter"
	SegmentMidMarket Segment = "mid_market"
	SegmentPremium   Segment = "premium"
	SegmentLuxury    Segment = "luxury"
)

// SegmentForPrice classifies a purchase price. Limits are exclusive.
func SegmentForPrice(price float64) Segment {
	switch {
	case price < constants.StarterSegmentLimit:
		return SegmentStarter
	case price < constants.MidMarketSegmentLimit:
		return SegmentMidMarket
	case price < constants.PremiumSegmentLimit:
		return SegmentPremium
	default:
		return SegmentLuxury
	}
}
