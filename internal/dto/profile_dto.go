package dto

type UpsertProfileRequest struct {
	DisplayName  string   `json:"display_name"`
	Gender       string   `json:"gender"`
	Organization string   `json:"organization"`
	CohortYear   string   `json:"cohort_year"`
	Track        string   `json:"track"`
	BioPrompt    *string  `json:"bio_prompt"`
	Interests    []string `json:"interests"`
}

type UpsertPreferencesRequest struct {
	PreferredCohort string `json:"preferred_cohort"`
	PreferredTrack  string `json:"preferred_track"`
}
