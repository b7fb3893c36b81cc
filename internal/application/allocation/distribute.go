// Package allocation turns project contributions into integer share grants
// and owns the project lifecycle around that conversion.
package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Distribute splits pool shares across amounts in proportion to each amount,
// using the largest-remainder method. Every entry first gets the floor of its
// exact share; the leftover units go one each to the largest remainders, ties
// broken by the larger amount and then by input order.
//
// When the total or the pool is not positive every entry gets zero.
// Otherwise the result always sums to pool.
func Distribute(amounts []int64, pool int64) []int64 {
	out := make([]int64, len(amounts))
	var total int64
	for _, a := range amounts {
		total += a
	}
	if total <= 0 || pool <= 0 {
		return out
	}

	type part struct {
		idx    int
		amount int64
		rem    decimal.Decimal
	}
	dPool := decimal.NewFromInt(pool)
	dTotal := decimal.NewFromInt(total)

	parts := make([]part, len(amounts))
	var base int64
	for i, a := range amounts {
		// a*pool/total as quotient and remainder over the common denominator total
		q, r := decimal.NewFromInt(a).Mul(dPool).QuoRem(dTotal, 0)
		out[i] = q.IntPart()
		base += out[i]
		parts[i] = part{idx: i, amount: a, rem: r}
	}

	sort.SliceStable(parts, func(i, j int) bool {
		if c := parts[i].rem.Cmp(parts[j].rem); c != 0 {
			return c > 0
		}
		return parts[i].amount > parts[j].amount
	})

	leftover := pool - base
	for k := 0; int64(k) < leftover && k < len(parts); k++ {
		out[parts[k].idx]++
	}
	return out
}
