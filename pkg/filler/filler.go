package filler

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/myusername/stis-uploader/internal/config"
	"github.com/myusername/stis-uploader/pkg/models"
	"github.com/myusername/stis-uploader/pkg/scraper"
)

var onlineURLRegex = regexp.MustCompile(`/online\.php\?u=\d+`)

// Options configure a Filler
type Options struct {
	Config *config.Config
	// WorkbookPath locates the diagnostic dumps; empty disables them.
	WorkbookPath string
	RunID        string
}

// Filler walks the registry from login to the saved online report
type Filler struct {
	page     Page
	cfg      *config.Config
	workbook string
	runID    string

	report     *models.Report
	editorOpen bool
	settle     time.Duration // pause after clicks that open editors or save
}

// New returns a Filler driving page
func New(page Page, opts Options) *Filler {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return &Filler{page: page, cfg: cfg, workbook: opts.WorkbookPath, runID: opts.RunID, settle: settleDelay}
}

// Run performs every step for one match. Field-level problems are collected
// as warnings in the report; a returned error means the run was aborted and
// the report holds what was done up to that point.
func (f *Filler) Run(ctx context.Context, creds models.Credentials, team models.TeamRecord, lineup models.Lineup) (*models.Report, error) {
	f.report = &models.Report{RunID: f.runID, Team: team.Name}
	f.editorOpen = false

	steps := []struct {
		step Step
		fn   func(context.Context) error
	}{
		{StepLogin, func(ctx context.Context) error { return f.Login(ctx, creds) }},
		{StepTeamPage, func(ctx context.Context) error { return f.OpenTeamPage(ctx, team) }},
		{StepOpenForm, f.OpenForm},
		{StepFillHeader, func(ctx context.Context) error { return f.FillHeader(ctx, team) }},
		{StepSubmitHeader, func(ctx context.Context) error { return f.SubmitHeader(ctx, team) }},
		{StepWaitEditor, f.WaitEditor},
		{StepFillLineup, func(ctx context.Context) error { return f.FillLineup(ctx, lineup) }},
		{StepSave, f.Save},
	}
	for _, s := range steps {
		log.Printf("[%s] step: %s", f.runID, s.step)
		if err := s.fn(ctx); err != nil {
			log.Printf("[%s] step %s failed: %v", f.runID, s.step, err)
			return f.report, err
		}
	}
	log.Printf("[%s] done: %d players, %d sets, %d warnings", f.runID, f.report.PlayersFilled, f.report.SetsFilled, len(f.report.Warnings))
	return f.report, nil
}

// Report returns the report of the current or last run
func (f *Filler) Report() *models.Report {
	if f.report == nil {
		f.report = &models.Report{RunID: f.runID}
	}
	return f.report
}

func (f *Filler) warn(step Step, field, format string, args ...any) {
	r := f.Report()
	r.Warn(string(step), field, format, args...)
	log.Printf("WARNING %s", r.Warnings[len(r.Warnings)-1])
}

// navError builds a fatal error, writing a DOM and screenshot dump when possible
func (f *Filler) navError(ctx context.Context, step Step, err error, format string, args ...any) error {
	e := &NavigationError{Step: step, Msg: fmt.Sprintf(format, args...), Err: err}
	if f.workbook != "" {
		dumpCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.cfg.NavTimeout)
		defer cancel()
		if dumpErr := scraper.Dump(dumpCtx, f.page, f.workbook); dumpErr != nil {
			log.Printf("DOM dump failed: %v", dumpErr)
		} else {
			e.Dumped = true
		}
	}
	return e
}

// waitFor polls cond until it holds or timeout passes. Errors from cond
// count as "not yet", since the page may be mid-navigation.
func (f *Filler) waitFor(ctx context.Context, timeout time.Duration, what string, cond func(context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("timeout after %s waiting for %s (last error: %v)", timeout, what, lastErr)
			}
			return fmt.Errorf("timeout after %s waiting for %s", timeout, what)
		case <-ticker.C:
		}
	}
}

func (f *Filler) visible(sel string) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		return f.page.Visible(ctx, sel)
	}
}

func (f *Filler) pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// fieldCtx bounds a single field action
func (f *Filler) fieldCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, f.cfg.FieldTimeout)
}

// Login signs in on the registry's login page
func (f *Filler) Login(ctx context.Context, creds models.Credentials) error {
	log.Printf("Navigating to login %s", f.cfg.LoginURL())
	if err := f.page.Navigate(ctx, f.cfg.LoginURL()); err != nil {
		return f.navError(ctx, StepLogin, err, "cannot open login page")
	}
	if err := f.waitFor(ctx, f.cfg.NavTimeout, "login form", f.visible(selLoginInput)); err != nil {
		return f.navError(ctx, StepLogin, err, "login form not shown")
	}

	fctx, cancel := f.fieldCtx(ctx)
	defer cancel()
	if err := f.page.SetValue(fctx, selLoginInput, creds.Login); err != nil {
		return f.navError(ctx, StepLogin, err, "cannot fill login")
	}
	if err := f.page.SetValue(fctx, selPasswordInput, creds.Password); err != nil {
		return f.navError(ctx, StepLogin, err, "cannot fill password")
	}
	if err := f.page.Click(fctx, selLoginSubmit); err != nil {
		return f.navError(ctx, StepLogin, err, "cannot submit login")
	}

	err := f.waitFor(ctx, f.cfg.NavTimeout, "login to complete", func(ctx context.Context) (bool, error) {
		n, err := f.page.Count(ctx, selLoginInput)
		return n == 0, err
	})
	if err != nil {
		return f.navError(ctx, StepLogin, err, "still on the login form, check login and password")
	}
	log.Printf("Logged in as %s", creds.Login)
	return nil
}

// OpenTeamPage opens the results page of the team
func (f *Filler) OpenTeamPage(ctx context.Context, team models.TeamRecord) error {
	url := f.cfg.TeamURL(team.ID)
	log.Printf("Open team page: %s", url)
	if err := f.page.Navigate(ctx, url); err != nil {
		return f.navError(ctx, StepTeamPage, err, "cannot open %s", url)
	}
	return nil
}

// formStrategies are the ways of reaching the match report form, best first
func (f *Filler) formStrategies() []Strategy {
	strategies := []Strategy{{
		Name: "link text",
		Locate: func(ctx context.Context) (Handle, bool, error) {
			found, err := f.page.MarkByText(ctx, "a, button", []string{"vlozitzapis", "upravitzapis"}, markFormLink)
			return Handle{Selector: markedSelector(markFormLink)}, found, err
		},
	}}
	strategies = append(strategies, bySelectors(f.page, "href", "a[href*='zapis.php']", "a[href*='zapis']")...)
	strategies = append(strategies, Strategy{
		Name: "anchor scan",
		Locate: func(ctx context.Context) (Handle, bool, error) {
			html, err := f.page.HTML(ctx)
			if err != nil {
				return Handle{}, false, err
			}
			links := scraper.ExtractFormLinks(html)
			if len(links) == 0 {
				return Handle{}, false, nil
			}
			base, err := f.page.Location(ctx)
			if err != nil {
				return Handle{}, false, err
			}
			return Handle{URL: scraper.ResolveRelativeURL(base, links[0])}, true, nil
		},
	})
	return strategies
}

// OpenForm follows the team page's link to the match report form
func (f *Filler) OpenForm(ctx context.Context) error {
	log.Printf("Looking for the 'vložit/upravit zápis' link")
	_, err := firstFound(ctx, "match form link", f.formStrategies(), func(ctx context.Context, h Handle) error {
		if h.URL != "" {
			log.Printf("Opening form directly: %s", h.URL)
			if err := f.page.Navigate(ctx, h.URL); err != nil {
				return err
			}
		} else {
			fctx, cancel := f.fieldCtx(ctx)
			defer cancel()
			if err := f.page.Click(fctx, h.Selector); err != nil {
				return err
			}
		}
		return f.waitFor(ctx, f.cfg.NavTimeout, "match form", func(ctx context.Context) (bool, error) {
			if ok, err := f.page.Visible(ctx, selHeaderForm); ok || err != nil {
				return ok, err
			}
			ok, err := f.page.Visible(ctx, selEditorEvent)
			if ok {
				f.editorOpen = true
			}
			return ok, err
		})
	})
	if err != nil {
		return f.navError(ctx, StepOpenForm, err, "match report form not reachable from the team page")
	}
	if f.editorOpen {
		log.Printf("Link led straight to the online editor, header is already saved")
	}
	return nil
}

// WaitEditor waits until the online editor shows events and set inputs
func (f *Filler) WaitEditor(ctx context.Context) error {
	err := f.waitFor(ctx, f.cfg.EditorTimeout, "online editor", func(ctx context.Context) (bool, error) {
		ok, err := f.page.Visible(ctx, selEditorEvent)
		if !ok || err != nil {
			return ok, err
		}
		return f.page.Visible(ctx, selSetInput)
	})
	if err != nil {
		log.Printf("Inputs did not appear, dumping DOM")
		return f.navError(ctx, StepWaitEditor, err, "online editor did not load")
	}
	f.editorOpen = true
	if u, err := f.page.Location(ctx); err == nil {
		log.Printf("Online editor ready: %s", u)
	}
	return nil
}
