package content

type UpsertBlockRequest struct {
	TitleHe string `json:"title_he" binding:"required"`
	TitleEn string `json:"title_en"`
	BodyHe  string `json:"body_he" binding:"required"`
	BodyEn  string `json:"body_en"`
}
