package snapshot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const productPage = `<!doctype html><html><head><title>Trail Shoe X2</title></head><body>
<nav><a href="/">Home</a><a href="/men">Men</a></nav>
<article>
  <h1>Trail Shoe X2</h1>
  <p>The Trail Shoe X2 is built for technical terrain with a grippy outsole and a rock plate.</p>
  <p>Its breathable upper keeps feet cool on long summer runs while the heel counter stays firm.</p>
  <table><tr><th>Weight</th><td>280 g</td></tr><tr><th>Drop</th><td>6 mm</td></tr></table>
  <p>See the <a href="/size-guide">size guide</a> before ordering.</p>
</article>
<footer>Copyright Shop</footer>
<script>trackEverything()</script>
</body></html>`

func TestRender(t *testing.T) {
	t.Parallel()

	md := NewRenderer().Render(productPage, "https://shop.example.com/p/x2")

	assert.True(t, strings.HasPrefix(md, "# "), "starts with the title heading")
	assert.Contains(t, md, "Source: <https://shop.example.com/p/x2>")
	assert.Contains(t, md, "technical terrain")
	assert.Contains(t, md, "https://shop.example.com/size-guide")
	assert.NotContains(t, md, "trackEverything")
	assert.NotContains(t, md, "Copyright Shop")
}

func TestRender_Degrades(t *testing.T) {
	t.Parallel()

	r := NewRenderer()
	assert.Equal(t, "", r.Render("", "https://shop.example.com/"))
	assert.Equal(t, "", r.Render(productPage, "://bad"))

	short := r.Render("<p>Just a line.</p>", "https://shop.example.com/")
	assert.Contains(t, short, "Just a line.")
}

func TestStripChrome(t *testing.T) {
	t.Parallel()

	out, err := stripChrome(`<body><nav>menu</nav><main>keep</main><form><input></form></body>`)
	assert.NoError(t, err)
	assert.Contains(t, out, "keep")
	assert.NotContains(t, out, "menu")
	assert.NotContains(t, out, "<form")
}
