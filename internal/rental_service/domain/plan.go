package domain

import "time"

// Plan describes a subscription offering. Duration is the full length of the
// granted subscription window.
type Plan struct {
	Key      string
	Name     string
	Price    string
	Duration time.Duration
}

// Plans is the ordered set of subscription offerings. Keyed iteration order
// matters for keyboard construction, hence a slice rather than a map.
var Plans = []Plan{
	{Key: "6_hours", Name: "6 hours", Price: "$0.50", Duration: 6 * time.Hour},
	{Key: "1_day", Name: "1 day", Price: "$1.2", Duration: 24 * time.Hour},
	{Key: "7_days", Name: "7 days", Price: "$5", Duration: 168 * time.Hour},
	{Key: "15_days", Name: "15 days", Price: "$10", Duration: 360 * time.Hour},
}

// PlanByKey looks up a plan by its key. Returns nil when the key is unknown.
func PlanByKey(key string) *Plan {
	for i := range Plans {
		if Plans[i].Key == key {
			return &Plans[i]
		}
	}
	return nil
}
