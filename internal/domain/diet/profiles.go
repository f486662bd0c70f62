package diet

import "github.com/okian/foodlca/internal/domain/model"

// Built-in profile names.
const (
	ProfileMonitor2024          = "monitor_2024"
	ProfileSchijfVan5           = "schijf_van_5"
	ProfileEATLancet            = "eat_lancet"
	ProfileDutchGoal            = "dutch_goal_60_40"
	ProfileAmsterdamGoal        = "amsterdam_goal_70_30"
	ProfileMetropolitan         = "metropolitan"
	ProfileMediterranean        = "mediterranean"
	ProfileAmsterdamTheoretical = "amsterdam_theoretical"
)

type grams = map[model.Category]float64

// DefaultProfiles returns the built-in diets in grams per person per day.
// Monitor 2024 is the measured Amsterdam diet; the others are scenarios.
func DefaultProfiles() map[string]model.DietProfile {
	p := map[string]grams{
		ProfileMonitor2024: {
			model.Beef: 10, model.Pork: 15, model.Chicken: 25, model.Cheese: 35, model.Milk: 220,
			model.Fish: 22, model.Eggs: 28, model.Pulses: 15, model.Nuts: 15, model.MeatSubs: 20,
			model.Grains: 230, model.Vegetables: 160, model.Fruits: 145, model.Potatoes: 45,
			model.Sugar: 35, model.Processed: 140,
			model.Coffee: 12, model.Tea: 3, model.Alcohol: 25, model.Oils: 25, model.Snacks: 45, model.Condiments: 20,
		},
		ProfileSchijfVan5: {
			model.Beef: 10, model.Pork: 10, model.Chicken: 25, model.Cheese: 30, model.Milk: 250,
			model.Fish: 25, model.Eggs: 20, model.Pulses: 30, model.Nuts: 25, model.MeatSubs: 20,
			model.Grains: 240, model.Vegetables: 250, model.Fruits: 200, model.Potatoes: 70,
			model.Sugar: 25, model.Processed: 60,
			model.Coffee: 10, model.Tea: 4, model.Alcohol: 15, model.Oils: 20, model.Snacks: 30, model.Condiments: 15,
		},
		ProfileEATLancet: {
			model.Beef: 7, model.Pork: 7, model.Chicken: 29, model.Cheese: 0, model.Milk: 250,
			model.Fish: 28, model.Eggs: 13, model.Pulses: 75, model.Nuts: 50, model.MeatSubs: 0,
			model.Grains: 232, model.Vegetables: 300, model.Fruits: 200, model.Potatoes: 50,
			model.Sugar: 30, model.Processed: 0,
			model.Coffee: 8, model.Tea: 5, model.Alcohol: 10, model.Oils: 18, model.Snacks: 15, model.Condiments: 12,
		},
		ProfileDutchGoal: {
			model.Beef: 15, model.Pork: 15, model.Chicken: 25, model.Cheese: 35, model.Milk: 250,
			model.Fish: 15, model.Eggs: 20, model.Pulses: 40, model.Nuts: 20, model.MeatSubs: 25,
			model.Grains: 225, model.Vegetables: 200, model.Fruits: 180, model.Potatoes: 90,
			model.Sugar: 30, model.Processed: 80,
			model.Coffee: 10, model.Tea: 4, model.Alcohol: 20, model.Oils: 22, model.Snacks: 35, model.Condiments: 15,
		},
		ProfileAmsterdamGoal: {
			model.Beef: 5, model.Pork: 5, model.Chicken: 10, model.Cheese: 20, model.Milk: 100,
			model.Fish: 15, model.Eggs: 15, model.Pulses: 80, model.Nuts: 40, model.MeatSubs: 40,
			model.Grains: 250, model.Vegetables: 250, model.Fruits: 200, model.Potatoes: 80,
			model.Sugar: 20, model.Processed: 50,
			model.Coffee: 9, model.Tea: 5, model.Alcohol: 12, model.Oils: 20, model.Snacks: 25, model.Condiments: 12,
		},
		ProfileMetropolitan: {
			model.Beef: 45, model.Pork: 25, model.Chicken: 60, model.Cheese: 50, model.Milk: 200,
			model.Fish: 15, model.Eggs: 30, model.Pulses: 5, model.Nuts: 5, model.MeatSubs: 5,
			model.Grains: 180, model.Vegetables: 110, model.Fruits: 100, model.Potatoes: 80,
			model.Sugar: 80, model.Processed: 200,
			model.Coffee: 15, model.Tea: 2, model.Alcohol: 35, model.Oils: 30, model.Snacks: 70, model.Condiments: 25,
		},
		ProfileMediterranean: {
			model.Beef: 8, model.Pork: 8, model.Chicken: 20, model.Cheese: 30, model.Milk: 200,
			model.Fish: 35, model.Eggs: 18, model.Pulses: 60, model.Nuts: 30, model.MeatSubs: 10,
			model.Grains: 240, model.Vegetables: 300, model.Fruits: 220, model.Potatoes: 60,
			model.Sugar: 20, model.Processed: 50,
			model.Coffee: 8, model.Tea: 5, model.Alcohol: 30, model.Oils: 30, model.Snacks: 25, model.Condiments: 15,
		},
		ProfileAmsterdamTheoretical: {
			model.Beef: 12, model.Pork: 20, model.Chicken: 28, model.Cheese: 40, model.Milk: 260,
			model.Fish: 10, model.Eggs: 25, model.Pulses: 8, model.Nuts: 10, model.MeatSubs: 15,
			model.Grains: 220, model.Vegetables: 150, model.Fruits: 130, model.Potatoes: 50,
			model.Sugar: 40, model.Processed: 150,
			model.Coffee: 12, model.Tea: 4, model.Alcohol: 30, model.Oils: 30, model.Snacks: 50, model.Condiments: 25,
		},
	}
	out := make(map[string]model.DietProfile, len(p))
	for name, g := range p {
		out[name] = model.DietProfile{Name: name, Grams: g}
	}
	return out
}
