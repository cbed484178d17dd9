package weights

// Sample is one morning weigh-in
type Sample struct {
	Date  string  `json:"date"`
	Kilos float64 `json:"kilos"`
}
