package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sjsage522/foreclosureworker/helpers"
	apperrors "sjsage522/foreclosureworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// FormSession drives the site without a browser. It keeps the last fetched
// document and replays ASP.NET postbacks by re-submitting every form field
// (including __VIEWSTATE and __EVENTVALIDATION) together with pending edits
// and the clicked button.
type FormSession struct {
	client  *http.Client
	doc     *goquery.Document
	current *url.URL
	pending map[string]string
}

// NewFormSession creates a session over client. A nil client gets a cookie-aware default.
func NewFormSession(client *http.Client) *FormSession {
	if client == nil {
		client = helpers.NewClient(30 * time.Second)
	}
	return &FormSession{
		client:  client,
		pending: make(map[string]string),
	}
}

// FormSessionOpener returns a SessionOpener creating a fresh FormSession, and
// so a fresh cookie jar, per run.
func FormSessionOpener(timeout time.Duration) SessionOpener {
	return func(context.Context) (Session, error) {
		return NewFormSession(helpers.NewClient(timeout)), nil
	}
}

func (s *FormSession) Navigate(ctx context.Context, target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", target, err)
	}
	body, err := helpers.FetchWithRandomHeaders(ctx, s.client, target)
	if err != nil {
		return err
	}
	return s.load(body, u)
}

func (s *FormSession) WaitFor(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.doc == nil || s.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", ErrElementTimeout, selector)
	}
	return nil
}

func (s *FormSession) SetValue(ctx context.Context, selector, value string) error {
	if err := s.WaitFor(ctx, selector, 0); err != nil {
		return err
	}
	name, ok := s.doc.Find(selector).First().Attr("name")
	if !ok || name == "" {
		return fmt.Errorf("element %s has no name attribute", selector)
	}
	s.pending[name] = value
	return nil
}

func (s *FormSession) Click(ctx context.Context, selector string) error {
	if err := s.WaitFor(ctx, selector, 0); err != nil {
		return err
	}

	button := s.doc.Find(selector).First()
	form := button.Closest("form")
	if form.Length() == 0 {
		form = s.doc.Find("form").First()
	}
	if form.Length() == 0 {
		return fmt.Errorf("no form to submit for %s", selector)
	}

	values := formValues(form)
	for name, value := range s.pending {
		values.Set(name, value)
	}
	if name, ok := button.Attr("name"); ok && name != "" {
		value, _ := button.Attr("value")
		values.Set(name, value)
	}

	action, err := s.resolve(form.AttrOr("action", ""))
	if err != nil {
		return err
	}

	var body io.Reader
	if strings.EqualFold(form.AttrOr("method", "post"), "get") {
		action.RawQuery = values.Encode()
		body, err = helpers.FetchWithRandomHeaders(ctx, s.client, action.String())
	} else {
		body, err = helpers.PostFormWithRandomHeaders(ctx, s.client, action.String(), values, s.current.String())
	}
	if err != nil {
		return err
	}
	return s.load(body, action)
}

func (s *FormSession) HTML(context.Context) (string, error) {
	if s.doc == nil {
		return "", fmt.Errorf("no document loaded")
	}
	return s.doc.Html()
}

func (s *FormSession) URL(context.Context) (string, error) {
	if s.current == nil {
		return "", nil
	}
	return s.current.String(), nil
}

func (s *FormSession) Close() error {
	s.doc = nil
	s.current = nil
	s.pending = make(map[string]string)
	s.client.CloseIdleConnections()
	return nil
}

func (s *FormSession) load(body io.Reader, u *url.URL) error {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return apperrors.NewParsing(u.Host, "failed to parse HTML", err)
	}
	s.doc = doc
	s.current = u
	s.pending = make(map[string]string)
	return nil
}

func (s *FormSession) resolve(action string) (*url.URL, error) {
	if s.current == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	ref, err := url.Parse(strings.TrimSpace(action))
	if err != nil {
		return nil, fmt.Errorf("invalid form action %q: %w", action, err)
	}
	return s.current.ResolveReference(ref), nil
}

// formValues collects the fields a browser would submit, leaving out buttons
// and unchecked boxes.
func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}

	form.Find("input[name]").Each(func(_ int, in *goquery.Selection) {
		name, _ := in.Attr("name")
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); !checked {
				return
			}
			values.Add(name, in.AttrOr("value", "on"))
		default:
			values.Add(name, in.AttrOr("value", ""))
		}
	})

	form.Find("select[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		opt := sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = sel.Find("option").First()
		}
		if opt.Length() > 0 {
			values.Add(name, opt.AttrOr("value", strings.TrimSpace(opt.Text())))
		}
	})

	form.Find("textarea[name]").Each(func(_ int, ta *goquery.Selection) {
		name, _ := ta.Attr("name")
		values.Add(name, ta.Text())
	})

	return values
}
