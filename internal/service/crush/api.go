package crush

// Outcome values of SubmitCrushesResponse.
const (
	OutcomeAccepted      = "accepted"
	OutcomeInvalidTarget = "invalid_target"
	OutcomeOverLimit     = "over_limit"
)

// Person is the public view of a registered person. Stubs have an empty name.
type Person struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Quota is a person's standing in the current epoch.
// NextRefresh is a YYYY-MM-DD calendar date.
type Quota struct {
	NumLeft     int    `json:"num_left"`
	NumUsed     int    `json:"num_used"`
	NumAllowed  int    `json:"num_allowed"`
	NextRefresh string `json:"next_refresh"`
}

type SubmitCrushesRequest struct {
	AskerEmail string   `json:"asker_email"`
	Targets    []string `json:"targets"`
}

// SubmitCrushesResponse carries exactly one outcome. Matches is set for
// accepted submissions, InvalidEmail and Reason for invalid_target.
type SubmitCrushesResponse struct {
	Outcome      string   `json:"outcome"`
	Matches      []Person `json:"matches,omitempty"`
	Quota        *Quota   `json:"quota,omitempty"`
	InvalidEmail string   `json:"invalid_email,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

type CheckMatchRequest struct {
	AskerEmail  string `json:"asker_email"`
	TargetEmail string `json:"target_email"`
}

type CheckMatchResponse struct {
	Match bool `json:"match"`
}

type GetQuotaRequest struct {
	Email string `json:"email"`
}

type GetQuotaResponse struct {
	Quota Quota `json:"quota"`
}

type RegisterPersonRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type RegisterPersonResponse struct {
	Person Person `json:"person"`
}

type SearchPeopleRequest struct {
	Term            string  `json:"term"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int     `json:"limit,omitempty"`
}

type SearchPeopleResponse struct {
	People              []Person `json:"people"`
	NextPaginationToken *string  `json:"next_pagination_token,omitempty"`
}

type AddCheckpointRequest struct {
	Date string `json:"date"`
}

type AddCheckpointResponse struct {
	Date string `json:"date"`
}

type ListCheckpointsRequest struct{}

type ListCheckpointsResponse struct {
	Dates []string `json:"dates"`
}
