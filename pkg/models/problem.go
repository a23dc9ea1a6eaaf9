package models

// APIProblem represents an RFC 7807 Problem Details response for Swagger docs.
// Component handlers reference it in annotations without importing the server package.
type APIProblem struct {
	Type     string `json:"type" example:"https://moodwatch.dev/problems/bad-request"`
	Title    string `json:"title" example:"Bad Request"`
	Status   int    `json:"status" example:"400"`
	Detail   string `json:"detail,omitempty" example:"score must be between 1 and 10"`
	Instance string `json:"instance,omitempty" example:"/api/v1/mood"`
}
