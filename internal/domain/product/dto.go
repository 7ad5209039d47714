package product

type CreateProductRequest struct {
	Slug          string   `json:"slug" binding:"required"`
	NameHe        string   `json:"name_he" binding:"required"`
	NameEn        string   `json:"name_en"`
	DescriptionHe string   `json:"description_he"`
	DescriptionEn string   `json:"description_en"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	Section       string   `json:"section" binding:"required"`
	Category      string   `json:"category"`
	Images        []string `json:"images"`
	Stock         int      `json:"stock" binding:"min=0"`
}

type UpdateProductRequest struct {
	NameHe        *string   `json:"name_he"`
	NameEn        *string   `json:"name_en"`
	DescriptionHe *string   `json:"description_he"`
	DescriptionEn *string   `json:"description_en"`
	Price         *float64  `json:"price"`
	Section       *string   `json:"section"`
	Category      *string   `json:"category"`
	Images        []string  `json:"images"`
	Stock         *int      `json:"stock"`
	IsActive      *bool     `json:"is_active"`
}

type ListFilters struct {
	Section  string `form:"section"`
	Category string `form:"category"`
}
