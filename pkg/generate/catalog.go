package generate

// Fixed categorical sets the generators sample from. Weights line up by
// index with their set and need not sum to 1.

// Cuisines available to restaurants
var Cuisines = []string{
	"Italian", "Chinese", "Mexican", "Indian", "American", "Japanese",
	"Thai", "Mediterranean", "Vietnamese", "Korean", "Greek", "French",
	"Spanish", "Middle Eastern", "Burger", "Pizza", "Sushi", "BBQ",
	"Vegetarian", "Vegan", "Seafood", "Steakhouse",
}

// Areas customers, restaurants and drivers belong to
var Areas = []string{"Downtown", "Uptown", "Midtown", "West Side", "East Side"}

// PriceTiers and their sampling weights; mid-range dominates
var (
	PriceTiers       = []string{"$", "$$", "$$$", "$$$$"}
	priceTierWeights = []float64{0.30, 0.40, 0.20, 0.10}
)

// tierEconomics maps a price tier to its menu pricing and delivery fee
var tierEconomics = map[string]struct {
	BasePrice   float64
	PriceStdDev float64
	DeliveryFee float64
}{
	"$":    {BasePrice: 8, PriceStdDev: 3, DeliveryFee: 2.99},
	"$$":   {BasePrice: 15, PriceStdDev: 5, DeliveryFee: 3.99},
	"$$$":  {BasePrice: 25, PriceStdDev: 8, DeliveryFee: 4.99},
	"$$$$": {BasePrice: 40, PriceStdDev: 15, DeliveryFee: 5.99},
}

// VehicleTypes and weights; most drivers use cars
var (
	VehicleTypes   = []string{"Car", "Motorcycle", "Bicycle", "Scooter", "On foot"}
	vehicleWeights = []float64{0.60, 0.20, 0.10, 0.08, 0.02}
)

// Segments classify customers by ordering behavior
var (
	Segments       = []string{"New", "Occasional", "Regular", "Frequent", "VIP"}
	segmentWeights = []float64{0.15, 0.25, 0.30, 0.20, 0.10}

	// segmentOrderWeight biases order sampling toward heavy users
	segmentOrderWeight = map[string]float64{
		"New":        0.5,
		"Occasional": 1.0,
		"Regular":    2.0,
		"Frequent":   3.0,
		"VIP":        5.0,
	}
)

// PaymentMethods and weights
var (
	PaymentMethods = []string{"Credit Card", "Debit Card", "PayPal", "Apple Pay", "Google Pay", "Cash"}
	paymentWeights = []float64{0.40, 0.30, 0.15, 0.08, 0.05, 0.02}
)

// OrderStatuses and weights; most orders complete
var (
	OrderStatuses = []string{"Completed", "Cancelled", "Refunded"}
	statusWeights = []float64{0.93, 0.05, 0.02}

	// StatusCompleted is the status carrying delivery ratings and issues
	StatusCompleted = "Completed"
)

// MenuCategories and weights; main courses dominate
var (
	MenuCategories  = []string{"Appetizer", "Main Course", "Side", "Dessert", "Beverage"}
	categoryWeights = []float64{0.20, 0.50, 0.15, 0.10, 0.05}
)

// DeliveryIssues reported on a fraction of completed deliveries
var DeliveryIssues = []string{
	"Food was cold",
	"Missing items",
	"Late delivery",
	"Wrong order",
	"Damaged packaging",
	"Incorrect address",
}

// mealPeriod is a named daily time bucket. End may wrap past midnight.
type mealPeriod struct {
	Name      string
	StartHour int
	EndHour   int
	Weight    float64
}

// mealPeriods weight order timestamps toward lunch and dinner
var mealPeriods = []mealPeriod{
	{Name: "Breakfast", StartHour: 6, EndHour: 10, Weight: 0.15},
	{Name: "Lunch", StartHour: 11, EndHour: 14, Weight: 0.30},
	{Name: "Afternoon", StartHour: 15, EndHour: 16, Weight: 0.10},
	{Name: "Dinner", StartHour: 17, EndHour: 21, Weight: 0.35},
	{Name: "Late Night", StartHour: 22, EndHour: 5, Weight: 0.10},
}

// MealPeriodFor buckets an hour of day into its meal period name.
// Hours no period claims fall back to the nearest earlier period.
func MealPeriodFor(hour int) string {
	for _, p := range mealPeriods {
		if p.StartHour <= p.EndHour {
			if hour >= p.StartHour && hour <= p.EndHour {
				return p.Name
			}
		} else if hour >= p.StartHour || hour <= p.EndHour {
			return p.Name
		}
	}
	return "Late Night"
}

// Name fragments for generated people and places
var (
	firstNames = []string{
		"James", "Maria", "Wei", "Aisha", "Carlos", "Elena", "Raj", "Yuki",
		"Omar", "Sofia", "Liam", "Priya", "Diego", "Hannah", "Kwame", "Ingrid",
		"Mateo", "Fatima", "Noah", "Amara", "Lucas", "Mei", "Andre", "Zara",
	}
	lastNames = []string{
		"Smith", "Garcia", "Chen", "Patel", "Johnson", "Kim", "Nguyen", "Okafor",
		"Silva", "Petrov", "Tanaka", "Hassan", "Brown", "Rossi", "Kowalski", "Ali",
		"Martinez", "Larsen", "Osei", "Dubois", "Yamamoto", "Novak", "Reyes", "Khan",
	}
	restaurantPrefixes = []string{
		"Golden", "Rustic", "Urban", "Coastal", "Spicy", "Royal", "Little",
		"Mama's", "Blue", "Green", "Crimson", "Old Town", "Sunset", "Harbor",
	}
	restaurantSuffixes = []string{
		"Kitchen", "Table", "Grill", "Bistro", "House", "Garden", "Corner",
		"Spot", "Fork", "Flame", "Oven", "Cellar", "Terrace", "Pantry",
	}
	dishPrefixes = []string{
		"Grilled", "Crispy", "Braised", "Smoked", "Roasted", "Spiced",
		"Stuffed", "Glazed", "Charred", "Seared", "House", "Classic",
	}
	dishSuffixes = []string{
		"Plate", "Bowl", "Special", "Delight", "Combo", "Platter", "Wrap", "Skillet",
	}
)
