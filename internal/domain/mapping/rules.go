package mapping

import "github.com/okian/foodlca/internal/domain/model"

// DefaultRules returns the built-in rule table: Dutch and English search
// terms per category, with exclusions for the known false positives.
func DefaultRules() []Rule {
	return []Rule{
		{Category: model.Beef, Include: []string{"beef", "veal", "rundvlees", "kalfsvlees", "rund", "steak", "hamburger", "biefstuk"},
			Exclude: []string{"vegetarisch", "vegetarian", "soup", "soep"}},
		{Category: model.Pork, Include: []string{"pork", "varken", "bacon", "ham", "worst", "sausage", "spek", "salami"},
			Exclude: []string{"hamburger", "vegetarisch", "vegetarian"}},
		{Category: model.Lamb, Include: []string{"lamb", "lam", "sheep", "schaap", "mutton"},
			Exclude: []string{"salami"}},
		{Category: model.Chicken, Include: []string{"chicken", "kip", "poultry", "gevogelte", "turkey", "kalkoen"},
			Exclude: []string{"vegetarisch", "vegetarian", "soup", "soep"}},
		{Category: model.Fish, Include: []string{"fish", "vis", "salmon", "zalm", "tuna", "tonijn", "cod", "kabeljauw", "haring", "herring", "seafood"},
			Exclude: []string{"fish sauce", "vissaus"}},
		{Category: model.Cheese, Include: []string{"cheese", "kaas", "cheddar", "gouda", "brie"},
			Exclude: []string{"cake", "taart"}},
		{Category: model.Milk, Include: []string{"milk", "melk", "yogurt", "yoghurt", "kwark", "quark", "buttermilk", "karnemelk"},
			Exclude: []string{"chocolate", "chocolade", "coconut", "kokos"}},
		{Category: model.Dairy, Include: []string{"dairy", "zuivel", "cream", "room"},
			Exclude: []string{"ice cream", "champignon", "mushroom"}},
		{Category: model.Butter, Include: []string{"butter", "boter"},
			Exclude: []string{"peanut", "pinda", "buttermilk", "karnemelk", "cake", "koek"}},
		{Category: model.Eggs, Include: []string{"egg", "ei", "eieren"},
			Exclude: []string{"eggplant", "aubergine", "noodle", "noedel"}},
		{Category: model.Pulses, Include: []string{"beans", "bonen", "lentils", "linzen", "chickpeas", "kikkererwten", "peas", "erwten", "legumes", "peulvruchten"},
			Exclude: []string{"coffee", "koffie", "cacao"}},
		{Category: model.Nuts, Include: []string{"nuts", "noten", "almonds", "amandelen", "walnuts", "walnoten", "peanuts", "pinda", "cashew", "hazelnut", "hazelnoot"},
			Exclude: []string{"coconut", "kokos", "nutmeg", "nootmuskaat"}},
		{Category: model.MeatSubs, Include: []string{"tofu", "tempeh", "seitan", "meat substitute", "vleesvervangers", "veggie burger", "vegetarische"},
			Exclude: []string{"cake", "pie", "peanut"}},
		{Category: model.Grains, Include: []string{"grain", "graan", "oats", "haver", "barley", "gerst", "wheat", "tarwe", "rye", "rogge", "quinoa"},
			Exclude: []string{"bread", "brood"}},
		{Category: model.Bread, Include: []string{"bread", "brood", "roll", "broodje", "baguette", "croissant", "crispbread", "knackebrod", "beschuit"},
			Exclude: []string{"breadcrumbs", "paneermeel"}},
		{Category: model.Pasta, Include: []string{"pasta", "noodles", "noedel", "spaghetti", "macaroni"},
			Exclude: []string{"instant"}},
		{Category: model.Rice, Include: []string{"rice", "rijst"},
			Exclude: []string{"rice cake", "rijstwafel"}},
		{Category: model.Vegetables, Include: []string{"vegetables", "groente", "vegetable", "tomato", "tomaat", "lettuce", "sla", "carrot", "wortel", "onion", "ui", "pepper", "paprika", "cucumber", "komkommer", "cabbage", "kool"},
			Exclude: []string{"vegetable oil", "plantaardige olie", "salade dressing", "ketchup", "kooldioxide"}},
		{Category: model.Fruits, Include: []string{"fruit", "apple", "appel", "banana", "banaan", "orange", "sinaasappel", "strawberry", "aardbei", "grape", "druif", "pear", "peer", "peach", "perzik", "kiwi", "mango", "melon", "meloen"},
			Exclude: []string{"juice", "sap", "jam", "yoghurt", "yogurt"}},
		{Category: model.Potatoes, Include: []string{"potato", "aardappel", "fries", "chips"},
			Exclude: []string{"sweet potato", "zoete aardappel"}},
		{Category: model.Processed, Include: []string{"processed", "verwerkt", "canned", "blik", "frozen", "diepvries"}},
		{Category: model.Snacks, Include: []string{"snack", "chips", "crisps", "biscuit", "cookie", "koek"}},
		{Category: model.ReadyMeals, Include: []string{"ready meal", "kant-en-klaar", "prepared", "bereid"},
			Exclude: []string{"unprepared", "onbereid"}},
		{Category: model.InstantNoodles, Include: []string{"instant noodles", "instant noedel", "noodles dried", "pasta unprepared"},
			Exclude: []string{"soup", "salad", "prepared", "w sauce"}},
		{Category: model.InstantPasta, Include: []string{"instant pasta", "pasta unprepared", "macaroni unprepared", "spaghetti unprepared", "pasta product dried"},
			Exclude: []string{"soup", "salad", "prepared", "w sauce", "cheese"}},
		{Category: model.Coffee, Include: []string{"coffee", "koffie"}},
		{Category: model.Tea, Include: []string{"tea", "thee"},
			Exclude: []string{"steak", "teaspoon"}},
		{Category: model.Alcohol, Include: []string{"beer", "bier", "wine", "wijn", "alcohol", "whisky", "gin", "jenever"},
			Exclude: []string{"alcoholvrij", "alcohol free", "alcohol-free", "vinegar", "azijn", "ginger", "gember"}},
		{Category: model.Sugar, Include: []string{"sugar", "suiker", "honey", "honing", "syrup", "siroop"},
			Exclude: []string{"sugar free", "suikervrij"}},
		{Category: model.Oils, Include: []string{"oil", "olie", "olive oil", "olijfolie", "sunflower", "zonnebloem"},
			Exclude: []string{"tuna", "tonijn", "sardine", "fish", "vis"}},
		{Category: model.AnimalFats, Include: []string{"animal fat", "dierlijk vet", "lard", "reuzel", "ghee"},
			Exclude: []string{"cake", "pie", "peanut", "chocolate"}},
		{Category: model.FryingOilAnimal, Include: []string{"frying oil animal", "frituurvet dierlijk", "frying oil", "frituurvet"},
			Exclude: []string{"tuna", "fish", "sardine", "meat", "sauce", "salad dressing"}},
		{Category: model.CondimentSauces, Include: []string{"sauce", "saus", "ketchup", "mayonnaise", "mayo", "mustard", "mosterd"}},
		{Category: model.SpiceMixes, Include: []string{"spice", "kruiden", "herbs", "seasoning", "kruidenmix"}},
		{Category: model.Condiments, Include: []string{"condiment", "vinegar", "azijn", "salt", "zout"},
			Exclude: []string{"unsalted", "ongezouten"}},
	}
}
