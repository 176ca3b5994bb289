package uicheck

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"wastenot-e2e/internal/components/telemetry"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	report_rod_open  = "rod.open"
	report_rod_close = "rod.close"
)

const DefaultElementTimeout = 15 * time.Second

type RodConfig struct {
	// attaches to a running browser instead of launching one
	DebuggerURL string `json:"debugger_url"`

	// chrome binary, found automatically when empty
	Bin       string `json:"bin"`
	Headful   bool   `json:"headful"`
	Timeout   string `json:"element_timeout"`
	NoSandbox bool   `json:"no_sandbox"`
}

// RodDriver drives a real Chrome over the devtools protocol.
type RodDriver struct {
	browser *rod.Browser
	launch  *launcher.Launcher
	timeout time.Duration
	tel     telemetry.API
}

func NewRodDriver(ctx context.Context, cfg RodConfig, tel telemetry.API) (*RodDriver, error) {
	tel = telemetry.NewScopedAPI("uicheck", tel)

	timeout := DefaultElementTimeout
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse element_timeout: %w", err)
		}
		timeout = parsed
	}

	d := &RodDriver{timeout: timeout, tel: tel}

	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		d.launch = launcher.New().Headless(!cfg.Headful).NoSandbox(cfg.NoSandbox)
		if cfg.Bin != "" {
			d.launch = d.launch.Bin(cfg.Bin)
		}
		u, err := d.launch.Launch()
		if err != nil {
			tel.ReportBroken(report_rod_open, err)
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	err := browser.Connect()
	if err != nil {
		tel.ReportBroken(report_rod_open, err, controlURL)
		d.kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	d.browser = browser
	return d, nil
}

func (d *RodDriver) kill() {
	if d.launch != nil {
		d.launch.Kill()
		d.launch.Cleanup()
	}
}

func (d *RodDriver) Open(ctx context.Context) (Page, error) {
	page, err := d.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		d.tel.ReportBroken(report_rod_open, err)
		return nil, err
	}
	return rodPage{page: page, timeout: d.timeout}, nil
}

func (d *RodDriver) Close() error {
	err := d.browser.Close()
	if err != nil {
		d.tel.ReportWarning(report_rod_close, err)
	}
	d.kill()
	return err
}

type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

func (p rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	err := page.Navigate(url)
	if err != nil {
		return err
	}
	return page.WaitLoad()
}

func (p rodPage) element(ctx context.Context, loc Locator) (*rod.Element, error) {
	page := p.page.Context(ctx).Timeout(p.timeout)
	if loc.Text == "" {
		return page.Element(loc.Selector)
	}
	return page.ElementR(loc.Selector, regexp.QuoteMeta(loc.Text))
}

func (p rodPage) Text(ctx context.Context, loc Locator) (string, error) {
	el, err := p.element(ctx, loc)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", err
	}
	return normalizeText(text), nil
}

func (p rodPage) Visible(ctx context.Context, loc Locator) (bool, error) {
	el, err := p.element(ctx, loc)
	if errors.Is(err, context.DeadlineExceeded) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return el.Visible()
}

func (p rodPage) Close() error {
	return p.page.Close()
}
