package emergency

// Hotline is a phone or text crisis line.
type Hotline struct {
	Name        string `json:"name"`
	Number      string `json:"number"`
	Description string `json:"description"`
}

// Website is an informational resource.
type Website struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// App is a recommended safety-planning app.
type App struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Resources is the static crisis-support directory.
type Resources struct {
	Hotlines []Hotline `json:"hotlines"`
	Websites []Website `json:"websites"`
	Apps     []App     `json:"apps"`
}

// CrisisResources returns the crisis-support directory shown to users.
func CrisisResources() Resources {
	return Resources{
		Hotlines: []Hotline{
			{Name: "National Suicide Prevention Lifeline", Number: "988", Description: "24/7 crisis support"},
			{Name: "Crisis Text Line", Number: "Text HOME to 741741", Description: "24/7 crisis support via text"},
			{Name: "National Alliance on Mental Illness (NAMI)", Number: "1-800-950-NAMI (6264)", Description: "Mental health support and resources"},
		},
		Websites: []Website{
			{Name: "National Institute of Mental Health", URL: "https://www.nimh.nih.gov/", Description: "Mental health information and resources"},
			{Name: "Mental Health America", URL: "https://www.mhanational.org/", Description: "Mental health advocacy and resources"},
		},
		Apps: []App{
			{Name: "My3", Description: "Safety planning app"},
			{Name: "Safety Plan", Description: "Crisis intervention app"},
		},
	}
}
