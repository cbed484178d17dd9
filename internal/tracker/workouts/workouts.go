package workouts

// Workout is one logged training session, usually a youtube follow-along
type Workout struct {
	Date        string `json:"date"`
	Name        string `json:"workoutName"`
	YoutubeLink string `json:"youtubeLink"`
	Notes       string `json:"notes"`
}
