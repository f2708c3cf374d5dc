// Package pages renders the server-side HTML pages.
package pages

import (
	"fmt"
	"html/template"
	"io"
)

type Feature struct {
	Icon        string
	Title       string
	Description string
}

type Landing struct {
	Brand        string
	Headline     string
	Highlight    string
	Intro        string
	DashboardAPI string
	SearchMode   string
	Features     []Feature
}

// DefaultLanding is the marketing page content.
func DefaultLanding(searchMode string) Landing {
	return Landing{
		Brand:        "HP Music",
		Headline:     "Your Music,",
		Highlight:    "Your Way",
		Intro:        "Discover, create, and share your favorite playlists with HP Music Player. Stream millions of songs and create the perfect soundtrack for your life.",
		DashboardAPI: "/api/dashboard/sessions",
		SearchMode:   searchMode,
		Features: []Feature{
			{Icon: "headphones", Title: "High Quality Audio", Description: "Experience crystal clear sound with our premium audio streaming."},
			{Icon: "users", Title: "Social Playlists", Description: "Create and share playlists with friends and discover new music."},
			{Icon: "music", Title: "Unlimited Library", Description: "Access millions of songs from your favorite artists and genres."},
		},
	}
}

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>{{.Brand}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            min-height: 100vh;
            color: #fff;
            background: linear-gradient(135deg, #581c87, #1e3a8a, #312e81);
        }
        nav, main { max-width: 1100px; margin: 0 auto; padding: 24px; }
        nav { display: flex; justify-content: space-between; align-items: center; }
        .brand { font-size: 1.5rem; font-weight: bold; }
        .hero { text-align: center; padding: 80px 0 40px; }
        .hero h1 { font-size: 3.5rem; margin-bottom: 24px; }
        .hero h1 span { color: #c084fc; }
        .hero p { color: #d1d5db; font-size: 1.25rem; max-width: 640px; margin: 0 auto 32px; }
        .cta { background: #9333ea; color: #fff; padding: 16px 32px; border-radius: 8px; text-decoration: none; }
        .features { display: grid; grid-template-columns: repeat(3, 1fr); gap: 32px; margin-top: 80px; }
        .feature { text-align: center; padding: 24px; background: rgba(255, 255, 255, 0.1); border-radius: 12px; }
        .feature p { color: #d1d5db; }
        footer { text-align: center; padding: 24px; color: #9ca3af; }
        footer a { color: #c084fc; }
    </style>
</head>
<body>
    <nav>
        <span class="brand">{{.Brand}}</span>
        <a class="cta" href="{{.DashboardAPI}}">Dashboard</a>
    </nav>
    <main>
        <section class="hero">
            <h1>{{.Headline}} <span>{{.Highlight}}</span></h1>
            <p>{{.Intro}}</p>
            <a class="cta" id="get-started" href="{{.DashboardAPI}}">Get Started Free</a>
        </section>
        <section class="features">
            {{range .Features}}<div class="feature" data-icon="{{.Icon}}">
                <h3>{{.Title}}</h3>
                <p>{{.Description}}</p>
            </div>
            {{end}}
        </section>
    </main>
    <footer>
        <small>Search mode: <span id="search-mode">{{.SearchMode}}</span></small> &middot;
        <a href="/privacy">Privacy</a> &middot; <a href="/terms">Terms</a>
    </footer>
</body>
</html>`))

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
        }
        pre {
            white-space: pre-wrap;
            word-wrap: break-word;
        }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <pre>{{.Body}}</pre>
</body>
</html>`))

func RenderLanding(w io.Writer, data Landing) error {
	if err := landingTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render landing page: %w", err)
	}
	return nil
}

// RenderDocument renders a plain text document such as the privacy policy.
func RenderDocument(w io.Writer, title string, body string) error {
	data := struct {
		Title string
		Body  string
	}{title, body}
	if err := documentTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", title, err)
	}
	return nil
}

const PrivacyPolicy = `HP Music does not store personal data on its servers.

Dashboard sessions, playlists and player state are held in memory for the duration of
a visit and discarded when the session ends or expires. Search queries are forwarded to
the music catalogue provider to retrieve results and are not retained.

Track metadata returned by the provider may be cached for a limited time to speed up
repeated lookups. Error reports may include request paths for diagnosing failures.`

const TermsOfService = `By using HP Music you agree to the following terms.

Music previews and metadata are provided by a third-party catalogue and remain the
property of their respective owners. Playlists you create are available only within
your current session. The service is provided as-is, without guarantees of
availability, and may change at any time.`
