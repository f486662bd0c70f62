// Package model contains domain models passed between pipeline stages.
package model

import (
	"fmt"
	"strings"
)

// Category identifies one canonical food category. The set is closed: only
// the constants below are valid and ParseCategory rejects anything else.
type Category string

// Canonical food categories.
const (
	Beef            Category = "Beef"
	Pork            Category = "Pork"
	Lamb            Category = "Lamb"
	Chicken         Category = "Chicken"
	Fish            Category = "Fish"
	Cheese          Category = "Cheese"
	Milk            Category = "Milk"
	Dairy           Category = "Dairy"
	Butter          Category = "Butter"
	Eggs            Category = "Eggs"
	Pulses          Category = "Pulses"
	Nuts            Category = "Nuts"
	MeatSubs        Category = "Meat_Subs"
	Grains          Category = "Grains"
	Bread           Category = "Bread"
	Pasta           Category = "Pasta"
	Rice            Category = "Rice"
	Vegetables      Category = "Vegetables"
	Fruits          Category = "Fruits"
	Potatoes        Category = "Potatoes"
	Processed       Category = "Processed"
	Snacks          Category = "Snacks"
	ReadyMeals      Category = "Ready_Meals"
	InstantNoodles  Category = "Instant_Noodles"
	InstantPasta    Category = "Instant_Pasta"
	Coffee          Category = "Coffee"
	Tea             Category = "Tea"
	Alcohol         Category = "Alcohol"
	Sugar           Category = "Sugar"
	Oils            Category = "Oils"
	AnimalFats      Category = "Animal_Fats"
	FryingOilAnimal Category = "Frying_Oil_Animal"
	CondimentSauces Category = "Condiment_Sauces"
	SpiceMixes      Category = "Spice_Mixes"
	Condiments      Category = "Condiments"
)

var allCategories = []Category{
	Beef, Pork, Lamb, Chicken, Fish,
	Cheese, Milk, Dairy, Butter, Eggs,
	Pulses, Nuts, MeatSubs,
	Grains, Bread, Pasta, Rice,
	Vegetables, Fruits, Potatoes,
	Processed, Snacks, ReadyMeals, InstantNoodles, InstantPasta,
	Coffee, Tea, Alcohol, Sugar,
	Oils, AnimalFats, FryingOilAnimal,
	CondimentSauces, SpiceMixes, Condiments,
}

var categoryIndex = func() map[string]int {
	idx := make(map[string]int, len(allCategories))
	for i, c := range allCategories {
		idx[strings.ToLower(string(c))] = i
	}
	return idx
}()

// AllCategories returns every category in canonical order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory resolves an identifier case-insensitively to its canonical form.
func ParseCategory(s string) (Category, error) {
	i, ok := categoryIndex[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return allCategories[i], nil
}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	_, ok := categoryIndex[strings.ToLower(string(c))]
	return ok && allCategories[categoryIndex[strings.ToLower(string(c))]] == c
}

// Order returns the position of c in canonical order, or -1.
func (c Category) Order() int {
	if !c.Valid() {
		return -1
	}
	return categoryIndex[strings.ToLower(string(c))]
}

func (c Category) String() string { return string(c) }
