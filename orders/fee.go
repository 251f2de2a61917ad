package orders

import (
	"math"

	"github.com/shopspring/decimal"
)

const earthRadiusKm = 6371.0

// FeeSchedule prices delivery as a base fee plus a per-kilometre rate.
type FeeSchedule struct {
	Base  decimal.Decimal
	PerKm decimal.Decimal
}

// Fee returns Base when either end has no coordinates, otherwise
// Base + PerKm * great-circle distance, rounded to cents.
func (f FeeSchedule) Fee(fromLat, fromLng float64, toLat, toLng *float64) decimal.Decimal {
	if toLat == nil || toLng == nil || (fromLat == 0 && fromLng == 0) {
		return f.Base.Round(2)
	}
	km := decimal.NewFromFloat(haversineKm(fromLat, fromLng, *toLat, *toLng))
	return f.Base.Add(f.PerKm.Mul(km)).Round(2)
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
