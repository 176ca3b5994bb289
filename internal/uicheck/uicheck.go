// Package uicheck drives the WasteNot web UI far enough to assert that pages
// render what users expect.
package uicheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const DefaultLoginURL = "https://cafemanager.dev.bamcotest.com/cafemanager/login"

// Locator finds the first element matching Selector, and when Text is set,
// the first such element whose text contains it.
type Locator struct {
	Selector string
	Text     string
}

func (l Locator) String() string {
	if l.Text == "" {
		return l.Selector
	}
	return fmt.Sprintf("%s[text~=%q]", l.Selector, l.Text)
}

type Page interface {
	Navigate(ctx context.Context, url string) error
	// Text returns the trimmed text of the located element.
	Text(ctx context.Context, loc Locator) (string, error)
	// Visible reports whether the located element exists and is shown, a
	// missing element is not an error.
	Visible(ctx context.Context, loc Locator) (bool, error)
	Close() error
}

type Driver interface {
	Open(ctx context.Context) (Page, error)
	Close() error
}

// Expectation requires the located element to be visible, and to have
// exactly WantText when it is set.
type Expectation struct {
	Locator  Locator
	WantText string
}

func (e Expectation) check(ctx context.Context, page Page) error {
	if e.WantText != "" {
		text, err := page.Text(ctx, e.Locator)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Locator, err)
		}
		if text != e.WantText {
			return fmt.Errorf("%s: expected text %q, got %q", e.Locator, e.WantText, text)
		}
		return nil
	}
	visible, err := page.Visible(ctx, e.Locator)
	if err != nil {
		return fmt.Errorf("%s: %w", e.Locator, err)
	}
	if !visible {
		return fmt.Errorf("%s: expected to be visible", e.Locator)
	}
	return nil
}

// Check navigates to url and evaluates every expectation, all failures are
// returned together.
func Check(ctx context.Context, page Page, url string, expectations []Expectation) error {
	err := page.Navigate(ctx, url)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	var errs []error
	for _, e := range expectations {
		err = e.check(ctx, page)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoginPage is what an anonymous visitor must see on the Café Manager login page.
func LoginPage() []Expectation {
	return []Expectation{
		{Locator: Locator{Selector: "h1"}, WantText: "Café Manager"},
		{Locator: Locator{Selector: "a", Text: "New User?"}},
		{Locator: Locator{Selector: "a", Text: "Forgot Password?"}},
	}
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
