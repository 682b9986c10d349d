package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const longText = "This cordless drill delivers 60 Nm of torque and ships with two batteries."

func TestExtract_ProductName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{"og title wins", `<head><meta property="og:title" content=" Drill X "><title>T</title></head><h1>H</h1>`, "Drill X"},
		{"empty og title falls to h1", `<meta property="og:title" content=""><h1>Big <span>Drill</span></h1>`, "Big Drill"},
		{"title", `<head><title> Shop | Drill </title></head>`, "Shop | Drill"},
		{"unknown", `<p>nothing here</p>`, "Unknown Product"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tt.html, "https://shop.example.com/p/drill")
			assert.Equal(t, tt.want, got.ProductName)
		})
	}
}

func TestExtract_ProductModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		url  string
		want string
	}{
		{
			name: "json-ld sku beats every other source",
			html: `<script type="application/ld+json">{"@type":"Product","sku":" ABC-123 "}</script>
				<span class="product-sku">SKU: ZZZ-999</span><h1>Router RT-AX88U</h1>`,
			url:  "https://shop.example.com/p/rt-be58u/",
			want: "ABC-123",
		},
		{
			name: "short sku falls through to mpn",
			html: `<script type="application/ld+json">[{"sku":"AB","mpn":"MPN-0042"}]</script>`,
			url:  "https://shop.example.com/",
			want: "MPN-0042",
		},
		{
			name: "offers list",
			html: `<script type="application/ld+json">{"offers":[{"sku":"OFF-77"},{"sku":"OFF-88"}]}</script>`,
			url:  "https://shop.example.com/",
			want: "OFF-77",
		},
		{
			name: "graph member",
			html: `<script type="application/ld+json">{"@graph":[{"@type":"WebPage"},{"@type":"Product","productID":"G-5000"}]}</script>`,
			url:  "https://shop.example.com/",
			want: "G-5000",
		},
		{
			name: "broken json-ld is skipped",
			html: `<script type="application/ld+json">{not json</script>
				<script type="application/ld+json">"just a string"</script>
				<div id="modelNumber">Model： KX-55</div>`,
			url:  "https://shop.example.com/",
			want: "KX-55",
		},
		{
			name: "sku class with label",
			html: `<div class="pdp"><span class="product-sku">SKU: XJ-900</span></div>`,
			url:  "https://shop.example.com/",
			want: "XJ-900",
		},
		{
			name: "sku element too long is ignored",
			html: `<p class="sku">` + strings.Repeat("A", 31) + `</p>`,
			url:  "https://shop.example.com/c/shoes",
			want: "product",
		},
		{
			name: "url segment",
			html: `<h1>Wireless Router</h1>`,
			url:  "https://shop.example.com/p/rt-be58u/",
			want: "RT-BE58U",
		},
		{
			name: "url segment extension stripped",
			html: ``,
			url:  "https://shop.example.com/items/BPD008btWH.html?ref=x",
			want: "BPD008BTWH",
		},
		{
			name: "product name token",
			html: `<meta property="og:title" content="Sony WH-1000XM5 Wireless Headphones">`,
			url:  "https://shop.example.com/headphones",
			want: "WH-1000XM5",
		},
		{
			name: "meta content token of at least four chars",
			html: `<h1>Gaming Router</h1><meta name="a" content="AX1 only"><meta name="keywords" content="router, GT-AX11000 tri-band">`,
			url:  "https://shop.example.com/routers",
			want: "GT-AX11000",
		},
		{
			name: "fallback",
			html: `<h1>Plain Mug</h1>`,
			url:  "https://shop.example.com/mugs/plain",
			want: "product",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tt.html, tt.url)
			assert.Equal(t, tt.want, got.ProductModel)
		})
	}
}

func TestExtract_Summary(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 600)
	tests := []struct {
		name string
		html string
		want string
	}{
		{"og description", `<meta property="og:description" content="OG"><meta name="description" content="D">`, "OG"},
		{"meta description", `<meta name="description" content=" Plain ">`, "Plain"},
		{"short paragraphs skipped", `<p>short</p><p>` + longText + `</p>`, longText},
		{"truncated to 500 runes", `<p>` + long + `</p>`, strings.Repeat("é", 500)},
		{"none", `<p>short</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Extract(tt.html, "https://shop.example.com/").Summary)
		})
	}
}

func TestExtract_Description(t *testing.T) {
	t.Parallel()

	t.Run("sections in keyword order", func(t *testing.T) {
		t.Parallel()
		html := `
			<div class="spec-table"><table><tr><td>Weight</td><td>1.2 kg net without battery</td></tr></table></div>
			<div class="product-description"><p>First line of the description.</p><p>Second line.</p></div>
			<div id="overview">tiny</div>`
		got := Extract(html, "https://shop.example.com/").Description
		assert.Equal(t,
			"First line of the description.\nSecond line.\n\nWeight\n1.2 kg net without battery",
			got)
	})

	t.Run("duplicates dropped and capped at five", func(t *testing.T) {
		t.Parallel()
		var b strings.Builder
		for i := 0; i < 7; i++ {
			b.WriteString(`<div class="feature">Feature block number ` + string(rune('A'+i)) + ` with enough text</div>`)
		}
		b.WriteString(`<div class="feature">Feature block number A with enough text</div>`)
		got := Extract(b.String(), "https://shop.example.com/").Description
		parts := strings.Split(got, "\n\n")
		assert.Len(t, parts, 5)
		assert.Equal(t, "Feature block number A with enough text", parts[0])
		assert.Equal(t, "Feature block number E with enough text", parts[4])
	})

	t.Run("paragraph fallback", func(t *testing.T) {
		t.Parallel()
		html := `<p>` + longText + `</p><p>short</p><p>` + longText + ` Again.</p>`
		got := Extract(html, "https://shop.example.com/").Description
		assert.Equal(t, longText+"\n\n"+longText+" Again.", got)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", Extract(`<p>short</p>`, "https://shop.example.com/").Description)
	})
}

func TestExtract_NeverFails(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "<<<>>>", "\x00\x01", `<script type="application/ld+json">[1,2,null]</script>`} {
		got := Extract(in, "::not a url::")
		assert.Equal(t, "Unknown Product", got.ProductName)
		assert.Equal(t, "product", got.ProductModel)
		assert.NotNil(t, got.ImageURLs)
		assert.Equal(t, "::not a url::", got.SourceURL)
	}
}
