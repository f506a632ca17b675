package conversation

import "propalyst/internal/model"

// areaCatalog is the recommendation set for completed sessions. Static for
// now; a real ranking over preferences would slot in here.
var areaCatalog = []model.Area{
	{
		AreaName:           "Whitefield",
		Image:              "https://images.unsplash.com/photo-1600607687939-ce8a6c25118c?q=80&w=2053",
		ChildFriendlyScore: 9,
		SchoolsNearby:      12,
		AverageCommute:     "15-20 min",
		BudgetRange:        "₹60K - ₹85K",
		Highlights:         []string{"IT Hub", "Great Schools", "Metro Access"},
	},
	{
		AreaName:           "Marathahalli",
		Image:              "https://images.unsplash.com/photo-1600596542815-ffad4c1539a9?q=80&w=2075",
		ChildFriendlyScore: 8,
		SchoolsNearby:      10,
		AverageCommute:     "20-25 min",
		BudgetRange:        "₹50K - ₹75K",
		Highlights:         []string{"Good Connectivity", "Family Friendly", "Shopping"},
	},
	{
		AreaName:           "Indiranagar",
		Image:              "https://images.unsplash.com/photo-1613490493576-7fde63acd811?q=80&w=2071",
		ChildFriendlyScore: 7,
		SchoolsNearby:      8,
		AverageCommute:     "25-30 min",
		BudgetRange:        "₹70K - ₹90K",
		Highlights:         []string{"Upscale Area", "Parks", "Cafes & Restaurants"},
	},
	{
		AreaName:           "Brookefield",
		Image:              "https://images.unsplash.com/photo-1600585154340-be6161a56a0c?q=80&w=2070",
		ChildFriendlyScore: 9,
		SchoolsNearby:      15,
		AverageCommute:     "10-15 min",
		BudgetRange:        "₹55K - ₹80K",
		Highlights:         []string{"Close to Whitefield", "Quiet", "Premium Schools"},
	},
	{
		AreaName:           "Koramangala",
		Image:              "https://images.unsplash.com/photo-1512917774080-9991f1c4c750?q=80&w=2070",
		ChildFriendlyScore: 7,
		SchoolsNearby:      9,
		AverageCommute:     "30-35 min",
		BudgetRange:        "₹65K - ₹95K",
		Highlights:         []string{"Vibrant", "Startups", "Nightlife"},
	},
	{
		AreaName:           "HSR Layout",
		Image:              "https://images.unsplash.com/photo-1580587771525-78b9dba3b914?q=80&w=2074",
		ChildFriendlyScore: 8,
		SchoolsNearby:      11,
		AverageCommute:     "25-30 min",
		BudgetRange:        "₹55K - ₹80K",
		Highlights:         []string{"Parks", "Shopping", "Well-planned"},
	},
}

// EnsureAreas populates recommended areas for a completed session exactly
// once. The Calculated flag makes repeated completion turns idempotent.
func EnsureAreas(state *model.ConversationState) {
	if state.Calculated {
		return
	}
	areas := make([]model.Area, len(areaCatalog))
	copy(areas, areaCatalog)

	state.RecommendedAreas = areas
	state.Calculated = true
	state.CurrentStep++
}
