package scoring

import (
	"fmt"
	"math"

	"github.com/maltedev/car-deal-analyzer/internal/models"
)

func reasoning(f factors, carMake string) []string {
	var out []string

	abs := math.Abs(f.pricePct)
	switch {
	case f.pricePct <= -15:
		out = append(out, fmt.Sprintf("This vehicle is priced %.1f%% below market average, representing an exceptional value opportunity.", abs))
	case f.pricePct <= -10:
		out = append(out, fmt.Sprintf("This vehicle is priced %.1f%% below market average, making it an attractive deal.", abs))
	case f.pricePct <= -5:
		out = append(out, fmt.Sprintf("This vehicle is priced %.1f%% below market average, offering good value.", abs))
	case f.pricePct >= 15:
		out = append(out, fmt.Sprintf("This vehicle is priced %.1f%% above market average, which significantly reduces its value proposition.", f.pricePct))
	case f.pricePct >= 10:
		out = append(out, fmt.Sprintf("This vehicle is priced %.1f%% above market average, making it less attractive than similar options.", f.pricePct))
	case f.pricePct >= 5:
		out = append(out, fmt.Sprintf("This vehicle is priced %.1f%% above market average, which may not be the best value.", f.pricePct))
	default:
		out = append(out, fmt.Sprintf("The price is within %.1f%% of market average, which is reasonable.", abs))
	}

	switch {
	case f.mileagePct <= -30:
		out = append(out, fmt.Sprintf("With %.1f%% fewer miles than similar vehicles, this car shows significantly less wear and tear.", math.Abs(f.mileagePct)))
	case f.mileagePct <= -20:
		out = append(out, fmt.Sprintf("With %.1f%% fewer miles than similar vehicles, this car shows less wear and tear.", math.Abs(f.mileagePct)))
	case f.mileagePct >= 30:
		out = append(out, fmt.Sprintf("This vehicle has %.1f%% more miles than similar listings, which may affect its long-term reliability.", f.mileagePct))
	case f.mileagePct >= 20:
		out = append(out, fmt.Sprintf("This vehicle has %.1f%% more miles than similar listings, which may impact its value.", f.mileagePct))
	}

	switch f.trend {
	case models.TrendDecreasing:
		out = append(out, "Market prices for this model are trending downward, making it a favorable time to purchase.")
	case models.TrendIncreasing:
		out = append(out, "Market prices for this model are increasing, so waiting might result in higher prices.")
	}

	switch {
	case f.age <= 2:
		unit := "years"
		if f.age == 1 {
			unit = "year"
		}
		out = append(out, fmt.Sprintf("This is a very recent model year (%d %s old), which typically commands a premium.", f.age, unit))
	case f.age >= 8:
		out = append(out, fmt.Sprintf("This is an older model year (%d years old), which may require more maintenance and have fewer modern features.", f.age))
	}

	switch {
	case f.reliability > 0:
		out = append(out, fmt.Sprintf("%s is known for reliability, which adds value to this vehicle.", carMake))
	case f.reliability < 0:
		out = append(out, fmt.Sprintf("%s may have reliability concerns that could affect long-term ownership costs.", carMake))
	}

	return out
}

func prosAndCons(f factors) (pros, cons []string) {
	switch {
	case f.pricePct <= -10:
		pros = append(pros, "Significantly below market average")
	case f.pricePct <= -5:
		pros = append(pros, "Below market average")
	case f.pricePct >= 10:
		cons = append(cons, "Significantly above market average")
	case f.pricePct >= 5:
		cons = append(cons, "Above market average")
	}

	switch {
	case f.mileagePct <= -20:
		pros = append(pros, "Low mileage for its age")
	case f.mileagePct >= 20:
		cons = append(cons, "High mileage for its age")
	}

	switch {
	case f.age <= 3:
		pros = append(pros, "Recent model year")
	case f.age >= 8:
		cons = append(cons, "Older model year")
	}

	switch f.trend {
	case models.TrendDecreasing:
		pros = append(pros, "Favorable market conditions")
	case models.TrendIncreasing:
		cons = append(cons, "Rising market prices")
	}

	if f.desirable {
		pros = append(pros, "Desirable location")
	}

	switch {
	case f.reliability > 0:
		pros = append(pros, "Reliable brand")
	case f.reliability < 0:
		cons = append(cons, "Brand reliability concerns")
	}

	if len(pros) == 0 {
		pros = []string{fillerPro}
	}
	if len(cons) == 0 {
		cons = []string{fillerCon}
	}
	return pros, cons
}
