package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/myusername/stis-uploader/internal/config"
	"github.com/myusername/stis-uploader/pkg/models"
)

// ErrNotFound is returned when a selector matches no element
var ErrNotFound = errors.New("element not found")

// Browser is a single Chrome tab driven over the DevTools protocol
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// Launch starts (or attaches to) a browser and opens one tab.
// Configured binaries are tried in order before chromedp's own lookup;
// the first one that starts is used.
func Launch(ctx context.Context, cfg *config.Config, headless bool) (*Browser, error) {
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
		b, err := newTab(allocCtx, allocCancel)
		if err != nil {
			return nil, fmt.Errorf("error attaching to %s: %w", cfg.RemoteURL, err)
		}
		log.Printf("Attached to browser at %s", cfg.RemoteURL)
		return b, nil
	}

	candidates := append(append([]string{}, cfg.ExecPaths...), "")
	var errs []error
	for _, path := range candidates {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", headless),
			chromedp.WindowSize(1280, 1000),
		)
		if path != "" {
			opts = append(opts, chromedp.ExecPath(path))
		}
		allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
		b, err := newTab(allocCtx, allocCancel)
		if err != nil {
			name := path
			if name == "" {
				name = "default browser"
			}
			log.Printf("Launching %s failed: %v", name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if path != "" {
			log.Printf("Launched %s (headless=%v)", path, headless)
		} else {
			log.Printf("Launched default browser (headless=%v)", headless)
		}
		return b, nil
	}
	return nil, fmt.Errorf("no browser could be started: %w", errors.Join(errs...))
}

func newTab(allocCtx context.Context, allocCancel context.CancelFunc) (*Browser, error) {
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(log.Printf),
	)
	// Running with no actions starts the browser
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, err
	}

	// Accept confirm() and alert() dialogs so that clicks on save are not blocked
	chromedp.ListenTarget(ctx, func(ev any) {
		if e, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			log.Printf("Accepting %s dialog: %s", e.Type, e.Message)
			go func() {
				if err := chromedp.Run(ctx, page.HandleJavaScriptDialog(true)); err != nil {
					log.Printf("Dialog handling failed: %v", err)
				}
			}()
		}
	})
	return &Browser{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

// Close closes the tab and stops the browser if this process started it
func (b *Browser) Close() {
	b.cancel()
	b.allocCancel()
}

// WaitClosed blocks until the user closes the browser window or ctx ends
func (b *Browser) WaitClosed(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.ctx.Done():
			return nil
		case <-ticker.C:
			var u string
			if err := chromedp.Run(b.ctx, chromedp.Location(&u)); err != nil {
				log.Printf("Browser closed: %v", err)
				return nil
			}
		}
	}
}

// run executes actions on the tab, bounded by the caller's context
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	if d, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, d)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (b *Browser) eval(ctx context.Context, js string, res any) error {
	return b.run(ctx, chromedp.Evaluate(js, res))
}

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}

// Navigate loads url and waits for the load event
func (b *Browser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

// Location returns the current URL
func (b *Browser) Location(ctx context.Context) (string, error) {
	var u string
	err := b.run(ctx, chromedp.Location(&u))
	return u, err
}

// HTML returns the serialized DOM
func (b *Browser) HTML(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Screenshot captures the full page as PNG
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Count returns the number of elements matching sel
func (b *Browser) Count(ctx context.Context, sel string) (int, error) {
	var n int
	err := b.eval(ctx, fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(sel)), &n)
	return n, err
}

// Visible reports whether any element matching sel is rendered
func (b *Browser) Visible(ctx context.Context, sel string) (bool, error) {
	var visible bool
	err := b.eval(ctx, fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).some(%s)`, jsString(sel), isVisibleJS), &visible)
	return visible, err
}

// Editable reports whether the first element matching sel accepts input
func (b *Browser) Editable(ctx context.Context, sel string) (bool, error) {
	var ok bool
	err := b.eval(ctx, fmt.Sprintf(`(el => !!el && !el.disabled && !el.readOnly)(document.querySelector(%s))`, jsString(sel)), &ok)
	return ok, err
}

// Value returns the value property of the first element matching sel
func (b *Browser) Value(ctx context.Context, sel string) (string, error) {
	var v string
	err := b.eval(ctx, fmt.Sprintf(`(el => el && el.value != null ? String(el.value) : '')(document.querySelector(%s))`, jsString(sel)), &v)
	return v, err
}

// Text returns what the first element matching sel displays:
// the selected option of a select, the value of an input, otherwise innerText.
func (b *Browser) Text(ctx context.Context, sel string) (string, error) {
	var v string
	err := b.eval(ctx, fmt.Sprintf(`(function(el) {
		if (!el) return '';
		if (el.tagName === 'SELECT') {
			const o = el.selectedOptions[0];
			return o ? o.text.trim() : '';
		}
		if (el.tagName === 'INPUT' || el.tagName === 'TEXTAREA') return String(el.value || '').trim();
		return (el.innerText || '').trim();
	})(document.querySelector(%s))`, jsString(sel)), &v)
	return v, err
}

// isVisibleJS is a script expression that keeps rendered elements only
const isVisibleJS = `(el => {
	const style = window.getComputedStyle(el);
	return el.offsetHeight !== 0 && style.display !== 'none' && style.visibility !== 'hidden';
})`

// Texts returns the innerText of every visible element matching sel
func (b *Browser) Texts(ctx context.Context, sel string) ([]string, error) {
	var v []string
	err := b.eval(ctx, fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).filter(%s).map(e => (e.innerText || '').trim())`,
		jsString(sel), isVisibleJS), &v)
	return v, err
}

// Options returns the options of the first select matching sel
func (b *Browser) Options(ctx context.Context, sel string) ([]models.SelectOption, error) {
	var opts []models.SelectOption
	err := b.eval(ctx, fmt.Sprintf(`(function(el) {
		if (!el || !el.options) return [];
		return Array.from(el.options).map(o => ({value: o.value, text: o.text.trim()}));
	})(document.querySelector(%s))`, jsString(sel)), &opts)
	return opts, err
}

// SetValue writes value into the first element matching sel and fires input and change events
func (b *Browser) SetValue(ctx context.Context, sel, value string) error {
	var ok bool
	err := b.eval(ctx, fmt.Sprintf(`(function(sel, v) {
		const el = document.querySelector(sel);
		if (!el) return false;
		el.focus();
		el.value = v;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})(%s, %s)`, jsString(sel), jsString(value)), &ok)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", sel, ErrNotFound)
	}
	return nil
}

// SelectValue picks the option with the given value. The change event is
// dispatched from script (and through jQuery when the page uses it), since
// some forms do not react to native select events.
func (b *Browser) SelectValue(ctx context.Context, sel, value string) error {
	var res string
	err := b.eval(ctx, fmt.Sprintf(`(function(sel, v) {
		const el = document.querySelector(sel);
		if (!el) return 'missing';
		if (!Array.from(el.options || []).some(o => o.value === v)) return 'no-option';
		el.value = v;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		if (window.jQuery) window.jQuery(el).trigger('change');
		return 'ok';
	})(%s, %s)`, jsString(sel), jsString(value)), &res)
	if err != nil {
		return err
	}
	switch res {
	case "ok":
		return nil
	case "missing":
		return fmt.Errorf("%s: %w", sel, ErrNotFound)
	}
	return fmt.Errorf("%s has no option %q", sel, value)
}

// Type replaces the content of an input by typing text key by key,
// which triggers autocomplete handlers that ignore scripted values.
func (b *Browser) Type(ctx context.Context, sel, text string) error {
	return b.run(ctx,
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, text, chromedp.ByQuery),
	)
}

// Keys sends key events to the focused element
func (b *Browser) Keys(ctx context.Context, keys string) error {
	return b.run(ctx, chromedp.KeyEvent(keys))
}

// Click clicks the first visible element matching sel
func (b *Browser) Click(ctx context.Context, sel string) error {
	return b.run(ctx, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible))
}

// MarkAttr is set by MarkByText, Mark, ClickNth and Index so that later actions can address the element
const MarkAttr = "data-stis"

// Marked returns the selector of the element tagged with mark
func Marked(mark string) string {
	return fmt.Sprintf(`[%s="%s"]`, MarkAttr, mark)
}

// ClickNth clicks the n-th visible element matching sel with a real mouse event
func (b *Browser) ClickNth(ctx context.Context, sel string, n int) error {
	var ok bool
	err := b.eval(ctx, fmt.Sprintf(`(function(sel, n, attr) {
		document.querySelectorAll('[' + attr + '="pick"]').forEach(e => e.removeAttribute(attr));
		const el = Array.from(document.querySelectorAll(sel)).filter(%s)[n];
		if (!el) return false;
		el.setAttribute(attr, 'pick');
		return true;
	})(%s, %d, %s)`, isVisibleJS, jsString(sel), n, jsString(MarkAttr)), &ok)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s[%d]: %w", sel, n, ErrNotFound)
	}
	return b.run(ctx, chromedp.Click(Marked("pick"), chromedp.ByQuery, chromedp.NodeVisible))
}

// MarkByText tags the first element matching sel whose text, with case and
// diacritics ignored, contains one of needles. needles must already be
// lowercase ASCII without spaces. The element is then addressable as Marked(mark).
func (b *Browser) MarkByText(ctx context.Context, sel string, needles []string, mark string) (bool, error) {
	list, _ := json.Marshal(needles)
	var found bool
	err := b.eval(ctx, fmt.Sprintf(`(function(sel, needles, attr, mark) {
		const norm = s => (s || '').normalize('NFD').replace(/[\u0300-\u036f]/g, '').toLowerCase().replace(/[^a-z0-9]+/g, '');
		document.querySelectorAll('[' + attr + '="' + mark + '"]').forEach(e => e.removeAttribute(attr));
		for (const el of document.querySelectorAll(sel)) {
			const text = norm(el.innerText || el.value || el.title);
			if (needles.some(n => text.includes(n))) {
				el.setAttribute(attr, mark);
				return true;
			}
		}
		return false;
	})(%s, %s, %s, %s)`, jsString(sel), string(list), jsString(MarkAttr), jsString(mark)), &found)
	return found, err
}

// Mark tags every element matching sel as Marked(mark) and returns how many
// were tagged. A mark on "html" lasts until the document is replaced, which
// tells a reloaded page from the one a click was made on.
func (b *Browser) Mark(ctx context.Context, sel, mark string) (int, error) {
	var n int
	err := b.eval(ctx, fmt.Sprintf(`(function(sel, attr, mark) {
		const all = document.querySelectorAll(sel);
		all.forEach(el => el.setAttribute(attr, mark));
		return all.length;
	})(%s, %s, %s)`, jsString(sel), jsString(MarkAttr), jsString(mark)), &n)
	return n, err
}

// Index numbers every element matching sel with a data-stis-index attribute
// and returns how many there are, so that "sel[data-stis-index='3']" picks the fourth.
func (b *Browser) Index(ctx context.Context, sel string) (int, error) {
	var n int
	err := b.eval(ctx, fmt.Sprintf(`(function(sel, attr) {
		const all = document.querySelectorAll(sel);
		all.forEach((el, i) => el.setAttribute(attr, String(i)));
		return all.length;
	})(%s, %s)`, jsString(sel), jsString(MarkAttr+"-index")), &n)
	return n, err
}
