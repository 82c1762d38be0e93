package member

import "math"

type Tier struct {
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
}

// Tiers are sorted by MinPoints.
var Tiers = []Tier{
	{Name: "Bronze", MinPoints: 0},
	{Name: "Silver", MinPoints: 50},
	{Name: "Gold", MinPoints: 150},
	{Name: "Platinum", MinPoints: 300},
}

// TierFor returns the highest tier reached with the given points.
func TierFor(points int) Tier {
	tier := Tiers[0]
	for _, t := range Tiers[1:] {
		if points < t.MinPoints {
			break
		}
		tier = t
	}
	return tier
}

// NextTier returns the tier after the one reached with points, if any.
func NextTier(points int) (Tier, bool) {
	for _, t := range Tiers {
		if points < t.MinPoints {
			return t, true
		}
	}
	return Tier{}, false
}

type Progress struct {
	Tier         Tier    `json:"tier"`
	NextTier     *Tier   `json:"next_tier,omitempty"`
	PointsToNext int     `json:"points_to_next"`
	Percent      float64 `json:"percent"`
}

// ProgressFor describes how far points are from the next tier. Percent is 100 at the last tier.
func ProgressFor(points int) Progress {
	curr := TierFor(points)
	next, ok := NextTier(points)
	if !ok {
		return Progress{Tier: curr, Percent: 100}
	}
	span := float64(next.MinPoints - curr.MinPoints)
	pct := float64(points-curr.MinPoints) / span * 100
	return Progress{
		Tier:         curr,
		NextTier:     &next,
		PointsToNext: next.MinPoints - points,
		Percent:      math.Round(pct*10) / 10,
	}
}

// RankedUp reports whether going from before to after points crossed into a higher tier.
func RankedUp(before, after int) bool {
	return TierFor(after).MinPoints > TierFor(before).MinPoints
}
