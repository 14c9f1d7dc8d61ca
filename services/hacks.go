package services

import (
	"strings"
	"time"
)

type TravelHack struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Savings     string `json:"savings,omitempty"`
}

type TravelHacksRequest struct {
	Destination string `json:"destination"`
	BudgetLevel string `json:"budget_level"`
	Month       string `json:"month,omitempty"`
}

var universalHacks = []TravelHack{
	{"flights", "Search in incognito and compare one-way tickets", "Two one-way fares on different airlines are often cheaper than a return.", "10-25%"},
	{"flights", "Be flexible by a day or two", "Tuesday and Wednesday departures are usually the cheapest of the week.", "up to 20%"},
	{"money", "Pay in local currency", "Decline dynamic currency conversion at card terminals and ATMs.", "3-7%"},
	{"packing", "Travel carry-on only", "Skipping checked bags saves fees and time at arrival.", "30-70 per flight"},
}

var budgetHacks = map[string][]TravelHack{
	"budget": {
		{"lodging", "Stay one stop outside the centre", "Neighbourhoods a short metro ride away are far cheaper than the old town.", "20-40%"},
		{"food", "Eat your main meal at lunch", "Many restaurants serve set lunch menus at half the dinner price.", "up to 50%"},
		{"transport", "Buy a city transit pass", "Multi-day passes pay off after a few rides and often include museums.", ""},
	},
	"moderate": {
		{"lodging", "Book refundable, then re-check prices", "Hotel rates drift; rebook if the price drops before your stay.", "10-15%"},
		{"activities", "Look for city cards", "Bundled attraction passes are worth it when you plan three or more sights a day.", ""},
	},
	"luxury": {
		{"lodging", "Ask for loyalty upgrades at check-in", "Elite status and polite requests at quiet times get suite upgrades.", ""},
		{"flights", "Use points for premium cabins", "Award seats in business class give the best value per point.", ""},
	},
}

var seasonHacks = map[string]TravelHack{
	"peak":     {"timing", "Book early for peak season", "Summer and holiday fares climb steadily from about eight weeks out.", ""},
	"shoulder": {"timing", "Enjoy shoulder season", "Good weather, thinner crowds and lower hotel rates.", "15-30%"},
	"off":      {"timing", "Take advantage of off-season rates", "Hotels and tours discount heavily; check opening hours of attractions.", "30-50%"},
}

var destinationHacks = map[string][]TravelHack{
	"paris":    {{"activities", "First Sunday museum entry", "Many Paris museums are free on the first Sunday of the month.", ""}},
	"london":   {{"transport", "Tap in with contactless", "Oyster-style daily caps apply automatically to contactless cards.", ""}},
	"tokyo":    {{"transport", "Get a Suica or Pasmo card", "One card for trains, buses and convenience stores.", ""}},
	"new york": {{"activities", "Ride the Staten Island Ferry", "Free views of the Statue of Liberty.", ""}},
	"rome":     {{"food", "Drink from the nasoni", "Rome's public fountains have clean drinking water.", ""}},
	"lisbon":   {{"transport", "Skip tram 28 queues", "Board at the Martim Moniz terminus or use the Viva Viagem card on other lines.", ""}},
	"bangkok":  {{"transport", "Use river boats", "Chao Phraya express boats dodge traffic and cost very little.", ""}},
}

// season classifies a month for the northern hemisphere.
func season(month string) string {
	m := strings.ToLower(strings.TrimSpace(month))
	for i := time.January; i <= time.December; i++ {
		name := strings.ToLower(i.String())
		if m == name || (len(m) >= 3 && strings.HasPrefix(name, m)) {
			switch i {
			case time.June, time.July, time.August, time.December:
				return "peak"
			case time.April, time.May, time.September, time.October:
				return "shoulder"
			default:
				return "off"
			}
		}
	}
	return ""
}

// TravelHacks returns a deterministic list of tips for the trip.
func TravelHacks(req TravelHacksRequest) []TravelHack {
	out := make([]TravelHack, 0, 10)
	out = append(out, destinationHacks[strings.ToLower(strings.TrimSpace(req.Destination))]...)

	level := strings.ToLower(req.BudgetLevel)
	if _, ok := budgetHacks[level]; !ok {
		level = "moderate"
	}
	out = append(out, budgetHacks[level]...)

	if h, ok := seasonHacks[season(req.Month)]; ok {
		out = append(out, h)
	}
	return append(out, universalHacks...)
}
