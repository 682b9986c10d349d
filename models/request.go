package models

// ScrapeRequest is the payload for POST /api/scrape.
type ScrapeRequest struct {
	// URL is the product page to scrape. Required.
	URL string `json:"url" binding:"required,url"`

	// ProductModel overrides the extracted model for naming and the result.
	ProductModel string `json:"product_model,omitempty" binding:"omitempty,max=100"`

	// WebhookURL receives a signed POST when the job finishes.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}
