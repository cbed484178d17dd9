package meals

// Meal is one logged food item, either a smart entry scaled from the food
// database or a manual macro entry. Meals are append-only: once logged,
// there is no update or delete path.
type Meal struct {
	// Date is the log day as written in the sheet, normally YYYY-MM-DD;
	// kept raw here so that hand-edited rows with odd formats survive the
	// round trip and only get dropped at aggregation time
	Date      string  `json:"date"`
	Timestamp string  `json:"timestamp"`
	Name      string  `json:"mealName"`
	Protein   float64 `json:"protein"`
	Fat       float64 `json:"fat"`
	Carbs     float64 `json:"carbs"`
	Calories  float64 `json:"calories"`
	Notes     string  `json:"notes"`
	ImageURL  string  `json:"imageUrl"`
}

// CaloriesFromMacros is the 4/9/4 kcal rule used for manual entries
func CaloriesFromMacros(protein, fat, carbs float64) float64 {
	return protein*4 + fat*9 + carbs*4
}
