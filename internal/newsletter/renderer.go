// Package newsletter renders digests into email messages and delivers them.
package newsletter

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/crehub/news-digest/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Message struct {
	Subject string
	HTML    string
	Text    string
}

type Renderer struct {
	html           *htmltemplate.Template
	text           *texttemplate.Template
	unsubscribeURL string
}

// NewRenderer parses the embedded templates. unsubscribeBaseURL may be empty to omit the link.
func NewRenderer(unsubscribeBaseURL string) (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/digest.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	text, err := texttemplate.New("digest.txt.tmpl").
		Funcs(texttemplate.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/digest.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	return &Renderer{html: html, text: text, unsubscribeURL: strings.TrimSpace(unsubscribeBaseURL)}, nil
}

type viewItem struct {
	Title       string
	Description string
	Link        string
	ImageURL    string
	Places      string
}

type view struct {
	Title          string
	DateLine       string
	Greeting       string
	Items          []viewItem
	UnsubscribeURL string
}

func (r *Renderer) Render(d domain.Digest) (Message, error) {
	v := r.view(d)

	var html bytes.Buffer
	if err := r.html.Execute(&html, v); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	var text bytes.Buffer
	if err := r.text.Execute(&text, v); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}

	return Message{
		Subject: v.Title,
		HTML:    html.String(),
		Text:    strings.TrimSpace(text.String()) + "\n",
	}, nil
}

func (r *Renderer) view(d domain.Digest) view {
	v := view{
		Title:          d.Title,
		DateLine:       d.RunAt.In(d.Subscriber.Location()).Format("Monday, January 2, 2006"),
		UnsubscribeURL: r.unsubscribeLink(d.Subscriber),
	}
	if name := strings.TrimSpace(d.Subscriber.FirstName); name != "" {
		v.Greeting = "Hi " + name + ", here is your latest roundup."
	}
	for _, it := range d.Items {
		v.Items = append(v.Items, viewItem{
			Title:       it.Title,
			Description: it.Description,
			Link:        it.Article.Link,
			ImageURL:    it.Article.ImageURL,
			Places:      places(it.Article),
		})
	}
	return v
}

func (r *Renderer) unsubscribeLink(sub domain.Subscriber) string {
	if r.unsubscribeURL == "" {
		return ""
	}
	u, err := url.Parse(r.unsubscribeURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("id", sub.ID.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// places lists the article's geography, leaving out the catch-all county.
func places(a domain.Article) string {
	parts := append([]string{}, a.Cities...)
	for _, c := range a.Counties {
		if c != domain.OtherCounty {
			parts = append(parts, c+" County")
		}
	}
	return strings.Join(parts, " · ")
}
