// Package locator drives the SSCWeb Locator form in headless Chrome and
// returns the report text for one day.
package locator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"windorbit/internal/config"
	"windorbit/internal/daterange"
	apperrors "windorbit/internal/errors"
	"windorbit/internal/record"
)

// Querier returns the raw Locator report for one window.
type Querier interface {
	Query(ctx context.Context, w daterange.Window) (record.RawFormResult, error)
}

// Client is a Querier backed by one Chrome process. Every query runs in a
// fresh tab which is closed afterwards.
type Client struct {
	cfg     config.LocatorConfig
	layout  FormLayout
	limiter *rate.Limiter
	logger  *slog.Logger

	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// Option configures a Client
type Option func(*Client)

// WithLayout overrides the form element selectors
func WithLayout(layout FormLayout) Option {
	return func(c *Client) { c.layout = layout }
}

// WithLogger sets the client's logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New starts Chrome and returns a ready client. Close must be called to stop
// the browser.
func New(ctx context.Context, cfg config.LocatorConfig, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:     cfg,
		layout:  DefaultFormLayout(),
		limiter: newLimiter(cfg.MinInterval),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so a missing Chrome fails here
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, apperrors.NewCollaboratorError("failed to start browser", err)
	}

	c.browserCtx = browserCtx
	c.cancelAlloc = cancelAlloc
	c.cancelBrowser = cancelBrowser

	c.logger.Info("Browser started",
		slog.Bool("headless", cfg.Headless),
		slog.String("url", cfg.URL))

	return c, nil
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Query fills and submits the form for w and returns the report lines.
func (c *Client) Query(ctx context.Context, w daterange.Window) (record.RawFormResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewCollaboratorError("query cancelled", err).
			WithContext("window", w.String())
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()

	if c.cfg.QueryTimeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, c.cfg.QueryTimeout)
		defer cancelTimeout()
	}

	// Cancelling the caller's context closes the tab
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()
	var text string
	if err := chromedp.Run(tabCtx, c.formTasks(w, &text)); err != nil {
		return nil, apperrors.NewCollaboratorError("locator query failed", err).
			WithContext("window", w.String()).
			WithContext("elapsed", time.Since(start).String())
	}

	raw := record.SplitLines(text)
	c.logger.Debug("Locator report received",
		slog.String("day", w.Start.Format("2006-01-02")),
		slog.Int("lines", len(raw)),
		slog.Duration("duration", time.Since(start)))

	return raw, nil
}

type stepKind int

const (
	stepNavigate stepKind = iota
	stepWaitVisible
	stepSelectSpacecraft
	stepSetValue
	stepClick
	stepText
)

// formStep is one interaction with the query form. sel is an element ID for
// stepWaitVisible and an XPath otherwise.
type formStep struct {
	kind  stepKind
	sel   string
	value string
}

// formSteps is the click sequence for one window
func (c *Client) formSteps(w daterange.Window) []formStep {
	l := c.layout

	steps := []formStep{
		{kind: stepNavigate, value: c.cfg.URL},
		{kind: stepWaitVisible, sel: l.SpacecraftSelectID},
		{kind: stepSelectSpacecraft, value: selectSpacecraftJS(l)},
		{kind: stepSetValue, sel: l.StartTime, value: w.FormStart()},
		{kind: stepSetValue, sel: l.StopTime, value: w.FormEnd()},
		{kind: stepClick, sel: l.OutputOptionsButton},
	}
	for _, sel := range l.OutputCheckboxes {
		steps = append(steps, formStep{kind: stepClick, sel: sel})
	}

	steps = append(steps, formStep{kind: stepClick, sel: l.FormattingButton})
	for _, sel := range l.FormatChoices {
		steps = append(steps, formStep{kind: stepClick, sel: sel})
	}

	return append(steps,
		formStep{kind: stepSetValue, sel: l.DistanceDecimals, value: l.DistanceDecimalsValue},
		formStep{kind: stepClick, sel: l.Submit},
		formStep{kind: stepText, sel: l.Result},
	)
}

// formTasks turns formSteps into chromedp actions; the result text lands in text
func (c *Client) formTasks(w daterange.Window, text *string) chromedp.Tasks {
	var selected bool

	steps := c.formSteps(w)
	tasks := make(chromedp.Tasks, 0, len(steps))
	for _, s := range steps {
		switch s.kind {
		case stepNavigate:
			tasks = append(tasks, chromedp.Navigate(s.value))
		case stepWaitVisible:
			tasks = append(tasks, chromedp.WaitVisible(s.sel, chromedp.ByID))
		case stepSelectSpacecraft:
			tasks = append(tasks, chromedp.Evaluate(s.value, &selected))
		case stepSetValue:
			tasks = append(tasks, chromedp.SetValue(s.sel, s.value, chromedp.BySearch))
		case stepClick:
			tasks = append(tasks, chromedp.Click(s.sel, chromedp.BySearch))
		case stepText:
			tasks = append(tasks, chromedp.Text(s.sel, text, chromedp.BySearch))
		}
	}
	return tasks
}

// selectSpacecraftJS deselects the preselected spacecraft and selects ours in
// the multi-select list
func selectSpacecraftJS(l FormLayout) string {
	return fmt.Sprintf(`(function() {
		const sel = document.getElementById(%s);
		for (const opt of sel.options) {
			if (opt.value === %s) opt.selected = false;
			if (opt.value === %s) opt.selected = true;
		}
		return true;
	})()`, strconv.Quote(l.SpacecraftSelectID), strconv.Quote(l.DeselectSpacecraft), strconv.Quote(l.Spacecraft))
}

// Close stops the browser
func (c *Client) Close() {
	if c.cancelBrowser != nil {
		c.cancelBrowser()
	}
	if c.cancelAlloc != nil {
		c.cancelAlloc()
	}
}
