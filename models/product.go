package models

// DefaultModel is the product model used when nothing better is found.
const DefaultModel = "product"

// RawPageExtract is what the extractor pulls out of a rendered product
// page. It is never mutated after creation.
type RawPageExtract struct {
	ProductName  string `json:"product_name"`
	ProductModel string `json:"product_model"`
	Summary      string `json:"summary"`
	Description  string `json:"description"`

	// ImageURLs are absolute, deduplicated by scheme://host/path and
	// capped at 50, in first-seen order.
	ImageURLs []string `json:"image_urls"`

	SourceURL string `json:"source_url"`
}

// ProductResult is the final record for one product page: extracted
// text plus the filenames of the images that survived processing.
type ProductResult struct {
	ProductName   string   `json:"product_name"`
	ProductModel  string   `json:"product_model"`
	MainImages    []string `json:"main_images"`
	GalleryImages []string `json:"gallery_images"`
	Summary       string   `json:"summary"`
	Description   string   `json:"description"`
	SourceURL     string   `json:"source_url"`
}

// ImageCandidate is an <img> that passed the extractor's cheap filters.
// Width and Height are the declared attribute values, 0 when undeclared.
type ImageCandidate struct {
	URL    string
	Width  int
	Height int
}
