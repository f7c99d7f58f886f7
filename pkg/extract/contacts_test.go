package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}
	return doc
}

func TestPhoneFromTelLink(t *testing.T) {
	doc := parse(t, `<html><body>
		<a href="tel:+12145550134">Call us</a>
		<p>Our fax is 214-555-9999</p>
	</body></html>`)

	c := Contacts(doc, "Our fax is 214-555-9999")
	if len(c.Phones) == 0 {
		t.Fatal("no phone extracted")
	}
	// The tel: link wins; the free-text number is not merged in.
	if c.Phones[0] != "(214) 555-0134" {
		t.Errorf("got %q", c.Phones[0])
	}
	if len(c.Phones) != 1 {
		t.Errorf("regex result merged despite markup hit: %v", c.Phones)
	}
}

func TestPhoneFromJSONLD(t *testing.T) {
	doc := parse(t, `<html><head>
		<script type="application/ld+json">{"@type":"LocalBusiness","name":"Joe's","telephone":"214-555-0134"}</script>
	</head><body><p>Call 972-555-1111 today</p></body></html>`)

	c := Contacts(doc, "Call 972-555-1111 today")
	if len(c.Phones) != 1 || c.Phones[0] != "(214) 555-0134" {
		t.Errorf("structured data should beat free text: %v", c.Phones)
	}
}

func TestPhoneFreeTextFallback(t *testing.T) {
	doc := parse(t, `<html><body><p>Call (214) 555-0134 today!</p></body></html>`)
	c := Contacts(doc, "Call (214) 555-0134 today!")
	if len(c.Phones) != 1 || c.Phones[0] != "(214) 555-0134" {
		t.Errorf("got %v", c.Phones)
	}
}

func TestEmailPriority(t *testing.T) {
	doc := parse(t, `<html><body>
		<a href="mailto:Owner@JoesPlumbing.com?subject=hi">Email</a>
		<p>other@elsewhere.com</p>
	</body></html>`)

	c := Contacts(doc, "other@elsewhere.com")
	if len(c.Emails) != 1 || c.Emails[0] != "owner@joesplumbing.com" {
		t.Errorf("mailto should win and lowercase: %v", c.Emails)
	}
}

func TestEmailObfuscationOnlyAsLastResort(t *testing.T) {
	doc := parse(t, `<html><body><p>Reach us: info [at] joesplumbing [dot] com</p></body></html>`)
	c := Contacts(doc, "Reach us: info [at] joesplumbing [dot] com")
	if len(c.Emails) != 1 || c.Emails[0] != "info@joesplumbing.com" {
		t.Errorf("deobfuscation failed: %v", c.Emails)
	}

	// With a direct hit present the deobfuscation pass must not run.
	doc2 := parse(t, `<html><body><p>real@joesplumbing.com and fake [at] spam [dot] com</p></body></html>`)
	c2 := Contacts(doc2, "real@joesplumbing.com and fake [at] spam [dot] com")
	for _, e := range c2.Emails {
		if e == "fake@spam.com" {
			t.Error("deobfuscation ran despite direct match")
		}
	}
}

func TestAddressFromJSONLD(t *testing.T) {
	doc := parse(t, `<html><head><script type="application/ld+json">
	{"@type":"LocalBusiness","address":{"@type":"PostalAddress","streetAddress":"123 Main St","addressLocality":"Dallas","addressRegion":"TX","postalCode":"75201"}}
	</script></head><body></body></html>`)

	c := Contacts(doc, "")
	if c.Address != "123 Main St, Dallas, TX, 75201" {
		t.Errorf("got %q", c.Address)
	}
}

func TestAddressFromMicrodata(t *testing.T) {
	doc := parse(t, `<html><body>
		<div itemscope itemtype="https://schema.org/PostalAddress">
			<span itemprop="streetAddress">456 Oak Ave</span>
			<span itemprop="addressLocality">Plano</span>
			<span itemprop="addressRegion">TX</span>
			<span itemprop="postalCode">75023</span>
		</div>
	</body></html>`)

	c := Contacts(doc, "")
	if c.Address != "456 Oak Ave, Plano, TX, 75023" {
		t.Errorf("got %q", c.Address)
	}
}

func TestAddressFromFreeText(t *testing.T) {
	body := "Visit our shop at 789 Elm Street, Dallas, TX 75202 for a quote."
	doc := parse(t, "<html><body><p>"+body+"</p></body></html>")
	c := Contacts(doc, body)
	if !strings.Contains(c.Address, "789 Elm Street") || !strings.Contains(c.Address, "75202") {
		t.Errorf("got %q", c.Address)
	}
}

func TestSocialLinks(t *testing.T) {
	doc := parse(t, `<html><body>
		<a href="https://facebook.com/joesplumbing">FB</a>
		<a href="https://www.instagram.com/joesplumbing/">IG</a>
		<a href="https://example.com/page">Other</a>
	</body></html>`)

	c := Contacts(doc, "")
	if len(c.Social) != 2 {
		t.Errorf("got %v", c.Social)
	}
}

func TestSiteName(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
	}{
		{
			"jsonld",
			`<html><head><script type="application/ld+json">{"@type":"LocalBusiness","name":"Joe's Plumbing"}</script><title>Home | Something Else</title></head><body></body></html>`,
			"Joe's Plumbing",
		},
		{
			"og site name",
			`<html><head><meta property="og:site_name" content="Joe's Plumbing"><title>Welcome</title></head><body></body></html>`,
			"Joe's Plumbing",
		},
		{
			"logo alt",
			`<html><body><img src="/img/logo.png" alt="Joe's Plumbing logo"></body></html>`,
			"Joe's Plumbing",
		},
		{
			"copyright",
			`<html><body><footer>© 2025 Joe's Plumbing. All rights reserved.</footer></body></html>`,
			"Joe's Plumbing",
		},
		{
			"title split",
			`<html><head><title>Joe's Plumbing | Dallas TX</title></head><body></body></html>`,
			"Joe's Plumbing",
		},
		{
			"h1 fallback",
			`<html><body><h1>Joe's Plumbing</h1></body></html>`,
			"Joe's Plumbing",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := SiteName(parse(t, c.html))
			if got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}
