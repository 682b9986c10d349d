package extractor

import (
	"regexp"
	"strings"
)

// maxImages caps the number of candidate image URLs per page.
const maxImages = 50

// minDeclaredSize is the smallest width/height attribute an <img> may
// declare and still count as a product image.
const minDeclaredSize = 200

// excludedURL matches image URLs that are chrome rather than product.
var excludedURL = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`icon`, `logo`, `banner`, `sprite`, `social`,
	`facebook`, `twitter`, `instagram`, `youtube`, `pinterest`,
	`tracking`, `pixel`, `analytics`, `badge`, `flag`,
	`arrow`, `btn`, `button`, `cart`, `search`,
	`placeholder`, `spacer`, `divider`, `bg[-_]`,
	`avatar`, `favicon`, `1x1`, `blank\.gif`,
	`rating`, `star[-_]`, `review`,
	`payment`, `visa`, `mastercard`, `paypal`,
	`shipping`, `delivery`, `warranty`,
	`\.svg$`,
}, "|"))

// excludedSection matches class/id text of page sections whose images
// belong to other products or to site chrome. Headers and modals are
// handled by excludedUnlessImage since they are fine when "image" follows.
var excludedSection = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`gnav`, `global[-_]?nav`, `mega[-_]?menu`,
	`related`, `recommend`, `also[-_\s]?like`, `you[-_\s]?may`,
	`similar`, `upsell`, `cross[-_\s]?sell`, `recently[-_\s]?viewed`,
	`footer`, `site[-_]?footer`, `global[-_]?footer`,
	`nav[-_]?bar`, `nav[-_]?menu`, `main[-_]?nav`, `site[-_]?nav`,
	`site[-_]?header`,
	`sidebar`, `newsletter`, `subscribe`, `signup`,
	`compare`, `accessori`, `compatible`,
	`cookie`, `consent`, `popup`,
	`breadcrumb`,
}, "|"))

var excludedUnlessImage = []string{"header", "modal"}

// productImageContainer matches class/id text of image gallery containers.
var productImageContainer = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`pdp[-_]?image`, `product[-_]?image`, `product[-_]?gallery`,
	`product[-_]?photo`, `product[-_]?media`,
	`primary[-_]?image`, `main[-_]?image`, `hero[-_]?image`,
	`gallery[-_]?image`, `gallery[-_]?container`,
	`carousel`, `slider`, `slick`,
	`zoom[-_]?container`, `image[-_]?viewer`,
}, "|"))

// skuKeywords are class/id fragments of elements that hold a model number.
var skuKeywords = keywordPatterns(
	"sku", "model-number", "model_number", "modelNumber",
	"product-model", "mpn", "part-number", "partNumber",
)

// descriptionKeywords are class/id fragments of product detail sections,
// in priority order.
var descriptionKeywords = keywordPatterns(
	"product-description", "product-detail", "product-info",
	"productDescription", "productDetail", "productInfo",
	"prod-desc", "prod-detail", "item-description", "item-detail",
	"description", "detail", "spec", "feature", "overview",
	"product_description", "product_detail", "product_info",
)

// modelLabel strips a leading "SKU:", "Model:", "Part No.:" style label.
var modelLabel = regexp.MustCompile(`(?i)^(SKU|Model|Part\s*(No\.?|Number)|MPN)\s*[:：]\s*`)

// pageExtension strips a trailing page extension from a URL segment.
var pageExtension = regexp.MustCompile(`(?i)\.(html?|php|aspx?)$`)

// modelToken finds an upper-case model number such as "RT-AX88U" or
// "WH-1000XM5". The token must not touch a word character or a slash on
// either side; the boundary characters are consumed and group 1 holds the
// token itself.
var modelToken = regexp.MustCompile(`(?:^|[^/_\p{L}\p{N}])([A-Z]{1,6}[-\s]?[A-Z0-9]*\d[A-Z0-9]*(?:[-\s][A-Z0-9]+)*)(?:[^/_\p{L}\p{N}]|$)`)

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`\d`)
)

func keywordPatterns(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(w))
	}
	return out
}

// isExcludedSection reports whether the combined class and id text of an
// element marks a non-product section.
func isExcludedSection(classAndID string) bool {
	if excludedSection.MatchString(classAndID) {
		return true
	}
	lower := strings.ToLower(classAndID)
	for _, kw := range excludedUnlessImage {
		// Only the last occurrence matters: if any occurrence has no
		// "image" after it, the last one has none either.
		if i := strings.LastIndex(lower, kw); i >= 0 && !strings.Contains(lower[i+len(kw):], "image") {
			return true
		}
	}
	return false
}

// findModelToken returns the first model token in s.
func findModelToken(s string) (string, bool) {
	m := modelToken.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
