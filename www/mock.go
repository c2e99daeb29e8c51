package www

import (
	"context"
	"strings"
	"time"
)

// MockFetcher serves canned restaurant pages keyed by URL substring, for
// offline runs and tests.
type MockFetcher struct{}

var mockPages = []struct {
	key  string
	html string
}{
	{"hradcany", `
<html>
<head><title>Restaurace Hradčany</title></head>
<body>
	<header>
		<h1>Restaurace Hradčany</h1>
		<nav>Menu | Kontakt | O nás</nav>
	</header>
	<main>
		<section class="daily-menu">
			<h2>Denní menu - neděle 27.10.2025</h2>
			<div class="menu-items">
				<div class="soup">
					<h3>Polévka</h3>
					<p>Hovězí vývar s nudlemi a zeleninou (1,3,9) - 45,-</p>
				</div>
				<div class="main-dishes">
					<h3>Hlavní chod</h3>
					<ul>
						<li>Smažený řízek s bramborovou kaší (1,3,7) - 185,- / 200g</li>
						<li>Grilovaný losos s rýží (4,9) - 220,- / 180g</li>
						<li>Vegetariánské rizoto (7,9) - 165,- / 250g</li>
					</ul>
				</div>
				<div class="desserts">
					<h3>Dezert</h3>
					<p>Jablečný štrúdl s vanilkovou omáčkou (1,3,7) - 85,- / 120g</p>
				</div>
			</div>
			<div class="allergens">
				<p>Alergeny: 1-obiloviny, 3-vejce, 4-ryby, 7-mléko, 9-celer</p>
			</div>
		</section>
	</main>
	<footer>
		<p>© 2025 Restaurace Hradčany</p>
	</footer>
</body>
</html>`},
	{"vlasta", `
<html>
<body>
	<h1>Restaurace Vlasta</h1>
	<div id="poledni-menu">
		<h2>Polední menu</h2>
		<table class="menu-table">
			<tr><td>Polévka dne</td><td>Gulášová polévka</td><td>42 Kč</td></tr>
			<tr><td>Menu 1</td><td>Kuřecí steak s bramborami (1,7)</td><td>175 Kč</td></tr>
			<tr><td>Menu 2</td><td>Těstoviny s rajčatovou omáčkou (1,3)</td><td>145 Kč</td></tr>
		</table>
	</div>
</body>
</html>`},
	{"ujezdu", `
<html>
<body>
	<div class="restaurant-header">
		<h1>Restaurant U Jezdu</h1>
	</div>
	<section class="dnesni-nabidka">
		<h2>Dnešní nabídka - středa</h2>
		<div class="menu-category">
			<h3>Polévky</h3>
			<p>Bramborová polévka s klobásou 48,-</p>
		</div>
		<div class="menu-category">
			<h3>Hlavní jídla</h3>
			<p>Svíčková na smetaně (1,3,7,9) 195,- (150g)</p>
			<p>Smažené kuřecí řízky (1,3) 180,- (180g)</p>
			<p>Grilovaná zelenina (7) 155,- (200g)</p>
		</div>
		<div class="menu-category">
			<h3>Přílohy</h3>
			<p>Houskové knedlíky (1,3) 25,-</p>
			<p>Vařené brambory 20,-</p>
		</div>
	</section>
</body>
</html>`},
}

const mockGeneric = `
<html>
<body>
	<h1>Test Restaurant</h1>
	<div class="menu">
		<h2>Daily Menu</h2>
		<p>Polévka: Zeleninová polévka 40,-</p>
		<p>Hlavní chod: Kuřecí s rýží (1,7) 160,-</p>
		<p>Nápoj: Cola 0.5l 35,-</p>
	</div>
</body>
</html>`

// MockPage returns the canned page for url.
func MockPage(url string) string {
	lower := strings.ToLower(url)
	for _, p := range mockPages {
		if strings.Contains(lower, p.key) {
			return p.html
		}
	}
	return mockGeneric
}

func (MockFetcher) Fetch(_ context.Context, url string) (*FetchResult, error) {
	return &FetchResult{
		URL:        url,
		StatusCode: 200,
		FinalURL:   url,
		HTML:       MockPage(url),
		FetchedAt:  time.Now(),
		Strategy:   StrategyMock,
	}, nil
}
