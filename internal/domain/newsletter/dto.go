package newsletter

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type CampaignRequest struct {
	Subject  string `json:"subject" binding:"required"`
	BodyHTML string `json:"body_html" binding:"required"`
}

// CampaignResult tallies one blast.
type CampaignResult struct {
	Recipients int `json:"recipients"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}
