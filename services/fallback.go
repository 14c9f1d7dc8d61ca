package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fallback generators are pure functions of their input. They keep every route
// usable when a provider is down or not configured.

var titleCaser = cases.Title(language.English)

// TitleCase normalises a free-text place name, e.g. "new york" → "New York".
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(s)))
}

// ─── Flights & hotels ─────────────────────────────────────────────────────────

type routeInfo struct {
	basePrice float64
	duration  int // minutes
}

var fallbackRoutes = map[string]routeInfo{
	"JFK-LHR": {450, 420}, "LHR-JFK": {450, 480},
	"JFK-CDG": {480, 435}, "CDG-JFK": {480, 500},
	"LAX-NRT": {750, 690}, "NRT-LAX": {750, 600},
	"LHR-CDG": {80, 75}, "CDG-LHR": {80, 75},
	"LHR-DXB": {420, 420}, "DXB-LHR": {420, 460},
	"FRA-IST": {150, 165}, "IST-FRA": {150, 195},
	"BER-LHR": {100, 110}, "LHR-BER": {100, 105},
	"LIS-MAD": {70, 80}, "MAD-LIS": {70, 75},
	"SFO-HNL": {380, 330}, "HNL-SFO": {380, 300},
}

type airlineOption struct {
	name     string
	code     string
	priceMod float64
	stops    int
}

var fallbackAirlines = []airlineOption{
	{"Lufthansa", "LH", 1.15, 0},
	{"British Airways", "BA", 1.10, 0},
	{"Turkish Airlines", "TK", 1.00, 1},
	{"Emirates", "EK", 1.30, 1},
	{"Wizz Air", "W6", 0.65, 1},
}

// GenerateFlightsFallback produces plausible estimated offers for a route.
func GenerateFlightsFallback(q FlightQuery) []Flight {
	info, ok := fallbackRoutes[q.Origin+"-"+q.Destination]
	if !ok {
		info = routeInfo{350, 240}
	}

	adults := max(1, q.Adults)
	depDate, err := time.Parse(time.DateOnly, q.DepartureDate)
	if err != nil {
		depDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	retDate, retErr := time.Parse(time.DateOnly, q.ReturnDate)

	flights := make([]Flight, 0, len(fallbackAirlines))
	for i, opt := range fallbackAirlines {
		if q.NonStop && opt.stops > 0 {
			continue
		}
		price := math.Floor(info.basePrice*opt.priceMod/5) * 5 * float64(adults)

		dur := info.duration
		if opt.stops > 0 {
			dur += 90
		}
		dep := time.Date(depDate.Year(), depDate.Month(), depDate.Day(), 6+i*3, 0, 0, 0, time.UTC)

		f := Flight{
			Price:         price,
			Currency:      currencyOr(q.Currency),
			Airline:       opt.name,
			AirlineCode:   opt.code,
			FlightNumber:  fmt.Sprintf("%s%d", opt.code, 100+i*37),
			Origin:        q.Origin,
			Destination:   q.Destination,
			DepartureTime: dep.Format("2006-01-02T15:04:05"),
			ArrivalTime:   dep.Add(time.Duration(dur) * time.Minute).Format("2006-01-02T15:04:05"),
			Duration:      formatDurationMin(dur),
			Stops:         opt.stops,
		}
		if retErr == nil {
			ret := time.Date(retDate.Year(), retDate.Month(), retDate.Day(), 8+i*2, 0, 0, 0, time.UTC)
			f.ReturnDepartureTime = ret.Format("2006-01-02T15:04:05")
			f.ReturnArrivalTime = ret.Add(time.Duration(dur) * time.Minute).Format("2006-01-02T15:04:05")
			f.ReturnDuration = formatDurationMin(dur)
			f.ReturnStops = opt.stops
		}
		flights = append(flights, f)
	}

	sort.SliceStable(flights, func(i, j int) bool { return flights[i].Price < flights[j].Price })
	return flights
}

type hotelSeed struct {
	name   string
	price  float64
	rating float64
	area   string
}

var fallbackHotels = map[string][]hotelSeed{
	"PAR": {
		{"Hotel Le Marais", 220, 4.6, "Le Marais, Paris"},
		{"Pullman Paris Tour Eiffel", 280, 4.5, "7th Arr., Paris"},
		{"Ibis Paris Montmartre", 95, 4.0, "Montmartre, Paris"},
		{"Generator Paris", 55, 3.8, "10th Arr., Paris"},
	},
	"LON": {
		{"Hilton London Tower Bridge", 180, 4.4, "Tower Bridge, London"},
		{"Premier Inn London City", 95, 4.1, "City of London"},
		{"The Hoxton Shoreditch", 165, 4.5, "Shoreditch, London"},
		{"citizenM London Bankside", 145, 4.4, "Bankside, London"},
	},
	"NYC": {
		{"The Standard High Line", 320, 4.5, "Meatpacking District, New York"},
		{"Pod 51", 140, 4.0, "Midtown East, New York"},
		{"Arlo SoHo", 230, 4.4, "SoHo, New York"},
		{"YOTEL Times Square", 190, 4.1, "Times Square, New York"},
	},
	"DXB": {
		{"JW Marriott Marquis", 220, 4.6, "Business Bay, Dubai"},
		{"Rove Downtown", 95, 4.3, "Downtown Dubai"},
		{"Atlantis The Palm", 380, 4.7, "Palm Jumeirah, Dubai"},
	},
	"BER": {
		{"Hotel Adlon Kempinski", 320, 4.8, "Mitte, Berlin"},
		{"Motel One Berlin Hackescher Markt", 85, 4.2, "Mitte, Berlin"},
		{"Michelberger Hotel", 130, 4.5, "Friedrichshain, Berlin"},
	},
	"TYO": {
		{"Park Hotel Tokyo", 210, 4.5, "Shiodome, Tokyo"},
		{"Hotel Gracery Shinjuku", 150, 4.3, "Shinjuku, Tokyo"},
		{"Nine Hours Asakusa", 45, 3.9, "Asakusa, Tokyo"},
	},
	"LIS": {
		{"Memmo Alfama", 190, 4.7, "Alfama, Lisbon"},
		{"Lisboa Pessoa Hotel", 140, 4.5, "Chiado, Lisbon"},
		{"Home Lisbon Hostel", 40, 4.6, "Baixa, Lisbon"},
	},
}

// GenerateHotelsFallback returns static hotels for the city, or generic ones.
func GenerateHotelsFallback(q HotelQuery) []Hotel {
	city := airportToCity(strings.ToUpper(q.CityCode))
	seeds, ok := fallbackHotels[city]
	if !ok {
		name := q.CityCode
		seeds = []hotelSeed{
			{"Grand City Hotel", 150, 4.5, "City Center, " + name},
			{"Boutique Residence", 120, 4.4, "Arts District, " + name},
			{"Business Inn", 95, 4.2, "Business District, " + name},
			{"Economy Suites", 65, 3.9, "Near Airport, " + name},
		}
	}

	hotels := make([]Hotel, 0, len(seeds))
	for _, s := range seeds {
		hotels = append(hotels, Hotel{
			Name:     s.name,
			Price:    s.price,
			Currency: currencyOr(q.Currency),
			Rating:   s.rating,
			Location: s.area,
		})
	}
	return hotels
}

// fallbackLocations answers location lookups for well-known airports.
var fallbackLocations = []Location{
	{"JFK", "John F Kennedy Intl", "New York", "US", "AIRPORT"},
	{"LAX", "Los Angeles Intl", "Los Angeles", "US", "AIRPORT"},
	{"SFO", "San Francisco Intl", "San Francisco", "US", "AIRPORT"},
	{"LHR", "Heathrow", "London", "GB", "AIRPORT"},
	{"CDG", "Charles de Gaulle", "Paris", "FR", "AIRPORT"},
	{"FRA", "Frankfurt am Main", "Frankfurt", "DE", "AIRPORT"},
	{"BER", "Berlin Brandenburg", "Berlin", "DE", "AIRPORT"},
	{"MAD", "Adolfo Suarez Barajas", "Madrid", "ES", "AIRPORT"},
	{"BCN", "El Prat", "Barcelona", "ES", "AIRPORT"},
	{"LIS", "Humberto Delgado", "Lisbon", "PT", "AIRPORT"},
	{"FCO", "Fiumicino", "Rome", "IT", "AIRPORT"},
	{"AMS", "Schiphol", "Amsterdam", "NL", "AIRPORT"},
	{"IST", "Istanbul Airport", "Istanbul", "TR", "AIRPORT"},
	{"DXB", "Dubai Intl", "Dubai", "AE", "AIRPORT"},
	{"NRT", "Narita Intl", "Tokyo", "JP", "AIRPORT"},
	{"HND", "Haneda", "Tokyo", "JP", "AIRPORT"},
	{"SIN", "Changi", "Singapore", "SG", "AIRPORT"},
	{"BKK", "Suvarnabhumi", "Bangkok", "TH", "AIRPORT"},
	{"SYD", "Kingsford Smith", "Sydney", "AU", "AIRPORT"},
	{"MEX", "Benito Juarez Intl", "Mexico City", "MX", "AIRPORT"},
}

// FallbackLocations matches keyword against code, airport and city names.
func FallbackLocations(keyword string) []Location {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	out := []Location{}
	if kw == "" {
		return out
	}
	for _, l := range fallbackLocations {
		if strings.HasPrefix(strings.ToLower(l.IATACode), kw) ||
			strings.Contains(strings.ToLower(l.Name), kw) ||
			strings.Contains(strings.ToLower(l.CityName), kw) {
			out = append(out, l)
		}
	}
	return out
}

// ─── Suggestions ──────────────────────────────────────────────────────────────

type destinationSeed struct {
	destination string
	country     string
	dailyCost   float64 // per traveller, lodging and food
	flightCost  float64 // per traveller, return
	styles      []string
	bestTime    string
	highlights  []string
	summary     string
}

var destinationCatalogue = []destinationSeed{
	{"Lisbon", "Portugal", 110, 450, []string{"culture", "food", "relaxation"}, "March to October",
		[]string{"Alfama viewpoints", "Pasteis de nata in Belem", "Day trip to Sintra"},
		"Sunny hills, tiled facades and one of Europe's best value food scenes."},
	{"Kyoto", "Japan", 160, 900, []string{"culture", "food", "nature"}, "March to May, October to November",
		[]string{"Fushimi Inari gates", "Arashiyama bamboo grove", "Nishiki market"},
		"Temples, gardens and tea houses in Japan's former imperial capital."},
	{"Mexico City", "Mexico", 90, 500, []string{"food", "culture", "nightlife"}, "October to May",
		[]string{"Museo Nacional de Antropologia", "Tacos in Roma Norte", "Teotihuacan pyramids"},
		"A huge, creative capital with world-class museums and street food."},
	{"Reykjavik", "Iceland", 220, 600, []string{"adventure", "nature"}, "June to August, February for aurora",
		[]string{"Golden Circle drive", "Blue Lagoon", "Northern lights tours"},
		"Gateway to glaciers, geysers and waterfalls."},
	{"Bali", "Indonesia", 70, 1100, []string{"relaxation", "nature", "adventure"}, "April to October",
		[]string{"Ubud rice terraces", "Uluwatu temple at sunset", "Surfing in Canggu"},
		"Beaches, jungle and temples at a gentle daily cost."},
	{"Barcelona", "Spain", 140, 480, []string{"culture", "food", "nightlife", "relaxation"}, "May to June, September",
		[]string{"Sagrada Familia", "Tapas in El Born", "Barceloneta beach"},
		"Gaudi architecture, beaches and late-night dining."},
	{"Cape Town", "South Africa", 100, 1200, []string{"adventure", "nature", "food"}, "November to March",
		[]string{"Table Mountain hike", "Cape Point", "Winelands day trip"},
		"Dramatic coastline and mountains with excellent wine nearby."},
	{"Hanoi", "Vietnam", 50, 1000, []string{"food", "culture", "adventure"}, "October to April",
		[]string{"Old Quarter street food", "Ha Long Bay cruise", "Temple of Literature"},
		"Lively streets, rich history and some of Asia's best street food."},
	{"Queenstown", "New Zealand", 180, 1500, []string{"adventure", "nature"}, "December to February, June to August for skiing",
		[]string{"Bungee at Kawarau Bridge", "Milford Sound", "Skyline gondola"},
		"The adventure capital of the southern hemisphere."},
	{"Prague", "Czech Republic", 90, 520, []string{"culture", "nightlife"}, "April to June, September",
		[]string{"Charles Bridge at dawn", "Prague Castle", "Beer halls of Vinohrady"},
		"A fairytale old town that stays affordable."},
}

// FallbackSuggestions ranks the static catalogue against the preferences and returns the top three.
func FallbackSuggestions(prefs TripPreferences) []TripSuggestion {
	travelers := max(1, prefs.Travelers)
	days := max(1, prefs.DurationDays)

	wanted := map[string]bool{}
	if prefs.TravelStyle != "" {
		wanted[strings.ToLower(prefs.TravelStyle)] = true
	}
	for _, in := range prefs.Interests {
		wanted[strings.ToLower(in)] = true
	}

	type scored struct {
		s     TripSuggestion
		score int
	}
	ranked := make([]scored, 0, len(destinationCatalogue))
	for _, d := range destinationCatalogue {
		cost := (d.dailyCost*float64(days) + d.flightCost) * float64(travelers)

		score := 50
		for _, st := range d.styles {
			if wanted[st] {
				score += 15
			}
		}
		if prefs.Budget > 0 {
			if cost <= prefs.Budget {
				score += 20
			} else {
				score -= int(math.Min(40, (cost-prefs.Budget)/prefs.Budget*100))
			}
		}
		score = max(0, min(100, score))

		ranked = append(ranked, scored{
			s: TripSuggestion{
				Destination:   d.destination,
				Country:       d.country,
				Summary:       d.summary,
				EstimatedCost: math.Round(cost),
				BestTime:      d.bestTime,
				Highlights:    append([]string(nil), d.highlights...),
				MatchScore:    score,
			},
			score: score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].s.EstimatedCost < ranked[j].s.EstimatedCost
	})

	out := make([]TripSuggestion, 0, 3)
	for i := 0; i < len(ranked) && i < 3; i++ {
		out = append(out, ranked[i].s)
	}
	return out
}

// ─── Itinerary ────────────────────────────────────────────────────────────────

type activitySeed struct {
	title    string
	category string
	cost     float64
}

var activitiesByInterest = map[string][]activitySeed{
	"culture":    {{"Old town walking tour", "culture", 20}, {"National museum", "culture", 18}, {"Historic cathedral visit", "culture", 10}},
	"food":       {{"Local market breakfast", "food", 15}, {"Street food tasting", "food", 25}, {"Cooking class", "food", 60}},
	"nature":     {{"Botanical garden stroll", "nature", 8}, {"Scenic viewpoint hike", "nature", 0}, {"Riverside park picnic", "nature", 12}},
	"adventure":  {{"Bike tour", "adventure", 35}, {"Kayak trip", "adventure", 45}, {"Climbing gym session", "adventure", 25}},
	"nightlife":  {{"Rooftop bar", "nightlife", 30}, {"Live music venue", "nightlife", 25}, {"Night market", "nightlife", 15}},
	"relaxation": {{"Spa afternoon", "relaxation", 70}, {"Beach or lakeside time", "relaxation", 0}, {"Cafe hopping", "relaxation", 15}},
}

var budgetMultiplier = map[string]float64{"budget": 0.7, "moderate": 1, "luxury": 1.8}

// FallbackItinerary builds a morning/afternoon/evening plan rotating through the interests.
func FallbackItinerary(req ItineraryRequest) *ItineraryPlan {
	dest := TitleCase(req.Destination)
	days := max(1, req.Days)

	interests := make([]string, 0, len(req.Interests))
	for _, in := range req.Interests {
		in = strings.ToLower(strings.TrimSpace(in))
		if _, ok := activitiesByInterest[in]; ok {
			interests = append(interests, in)
		}
	}
	if len(interests) == 0 {
		interests = []string{"culture", "food", "nature"}
	}

	mult, ok := budgetMultiplier[strings.ToLower(req.BudgetLevel)]
	if !ok {
		mult = 1
	}

	start, startErr := time.Parse(time.DateOnly, req.StartDate)
	slots := []string{"09:00", "13:00", "19:00"}

	plan := &ItineraryPlan{
		Destination: dest,
		Days:        make([]ItineraryDay, 0, days),
		Currency:    "USD",
		Tips: []string{
			"Buy a public transport day pass on arrival.",
			"Book popular museums online to skip the queue.",
			"Keep a copy of your passport separate from the original.",
		},
	}

	var total float64
	for d := 0; d < days; d++ {
		day := ItineraryDay{Day: d + 1, Title: fmt.Sprintf("Day %d in %s", d+1, dest)}
		if startErr == nil {
			day.Date = start.AddDate(0, 0, d).Format(time.DateOnly)
		}
		if d == 0 {
			day.Title = "Arrival and first impressions"
		}
		for i, slot := range slots {
			interest := interests[(d+i)%len(interests)]
			seeds := activitiesByInterest[interest]
			seed := seeds[(d+i)%len(seeds)]
			cost := math.Round(seed.cost * mult)
			total += cost
			day.Activities = append(day.Activities, Activity{
				Time:          slot,
				Title:         seed.title,
				Description:   fmt.Sprintf("%s in %s.", seed.title, dest),
				Location:      dest,
				Category:      seed.category,
				EstimatedCost: cost,
			})
		}
		plan.Days = append(plan.Days, day)
	}
	plan.EstimatedDailyCost = math.Round(total / float64(days))
	return plan
}

// ─── Walking tour ─────────────────────────────────────────────────────────────

var tourStopTemplates = []struct {
	name string
	desc string
	tip  string
}{
	{"Central Square", "Start where the city gathers and get your bearings.", "Grab a coffee before setting off."},
	{"Old Town Lanes", "Wander the oldest streets and their small workshops.", "Look up at the facades."},
	{"Cathedral", "The main place of worship and the city's tallest landmark.", "Shoulders covered inside."},
	{"Market Hall", "Local produce, snacks and crafts under one roof.", "Try whatever has the longest local queue."},
	{"Riverside Promenade", "A flat stretch with views back over the centre.", "Good spot for photos at golden hour."},
	{"City Museum", "A compact overview of local history.", "Free entry is common one evening a week."},
	{"Hilltop Viewpoint", "Finish with a panorama over the rooftops.", "Sunset is the busiest time."},
}

// FallbackWalkingTour returns a generic loop sized to the requested duration.
func FallbackWalkingTour(req WalkingTourRequest) *WalkingTour {
	hours := max(1, req.DurationHours)
	stops := min(len(tourStopTemplates), 2+hours)
	perStop := hours * 60 / stops

	theme := req.Theme
	if theme == "" {
		theme = "highlights"
	}
	tour := &WalkingTour{
		City:            TitleCase(req.City),
		Theme:           theme,
		DistanceKM:      math.Round(float64(stops)*0.8*10) / 10,
		DurationMinutes: hours * 60,
		Stops:           make([]TourStop, 0, stops),
	}
	for i := 0; i < stops; i++ {
		t := tourStopTemplates[i]
		tour.Stops = append(tour.Stops, TourStop{
			Order:           i + 1,
			Name:            t.name,
			Description:     t.desc,
			DurationMinutes: perStop,
			Tip:             t.tip,
		})
	}
	return tour
}
