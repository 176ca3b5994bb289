package uicheck

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"wastenot-e2e/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const report_static_navigate = "static.navigate"

// StaticDriver fetches pages over plain HTTP and inspects the served HTML,
// scripts are not run.
type StaticDriver struct {
	client *resty.Client
	tel    telemetry.API
}

func NewStaticDriver(client *resty.Client, tel telemetry.API) StaticDriver {
	if client == nil {
		client = resty.New()
	}
	return StaticDriver{
		client: client,
		tel:    telemetry.NewScopedAPI("uicheck", tel),
	}
}

func (d StaticDriver) Open(ctx context.Context) (Page, error) {
	return &staticPage{driver: d}, nil
}

func (d StaticDriver) Close() error {
	return nil
}

type staticPage struct {
	driver StaticDriver
	doc    *goquery.Document
}

func (p *staticPage) Navigate(ctx context.Context, url string) error {
	res, err := p.driver.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		p.driver.tel.ReportBroken(report_static_navigate, err, url)
		return err
	}
	if res.IsError() {
		return fmt.Errorf("unexpected status %d", res.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return err
	}
	p.doc = doc
	return nil
}

func (p *staticPage) find(loc Locator) (*goquery.Selection, error) {
	if p.doc == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	sel := p.doc.Find(loc.Selector)
	if loc.Text != "" {
		sel = sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(normalizeText(s.Text()), loc.Text)
		})
	}
	return sel.First(), nil
}

func hidden(sel *goquery.Selection) bool {
	for s := sel; s.Length() > 0; s = s.Parent() {
		if _, ok := s.Attr("hidden"); ok {
			return true
		}
		style, _ := s.Attr("style")
		if strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
			return true
		}
	}
	return false
}

func (p *staticPage) Text(ctx context.Context, loc Locator) (string, error) {
	sel, err := p.find(loc)
	if err != nil {
		return "", err
	}
	if sel.Length() == 0 {
		return "", fmt.Errorf("element not found")
	}
	return normalizeText(sel.Text()), nil
}

func (p *staticPage) Visible(ctx context.Context, loc Locator) (bool, error) {
	sel, err := p.find(loc)
	if err != nil {
		return false, err
	}
	return sel.Length() > 0 && !hidden(sel), nil
}

func (p *staticPage) Close() error {
	p.doc = nil
	return nil
}
