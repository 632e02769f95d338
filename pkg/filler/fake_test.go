package filler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/myusername/stis-uploader/internal/config"
	"github.com/myusername/stis-uploader/pkg/models"
	"github.com/myusername/stis-uploader/pkg/parser"
)

const testBase = "https://registr.test"

type fakeElem struct {
	visible bool
	locked  bool
	value   string
	text    string
	options []models.SelectOption
}

// fakeSite is an in-memory registry. Elements are keyed by the exact
// selectors the filler uses; navigation and clicks rebuild the element set
// the way the real pages would.
type fakeSite struct {
	url     string
	html    string
	elems   map[string]*fakeElem
	lists   map[string][]string
	onClick map[string]func()
	events  int

	// behaviour knobs
	password    string
	linkText    bool   // team page has a "Vložit zápis" link
	formHTML    string // team page HTML for the anchor scan
	rejectStart int    // header submissions rejected for the start time
	rejectOther string // header submissions always rejected with this message
	notice      string // informational notice shown on the header form
	clickDelay  int    // Location polls before a header submit takes effect
	noEditor    bool   // online URL opens but the editor never renders
	selects     bool   // player cells are native selects
	editorInput string // selector of the autocomplete input opened by a click
	suggest     map[string][]string

	pending      func()
	pendingPolls int

	focused  string
	editing  string
	typed    map[string]string
	submits  int
	saved    bool
	keys     []string
	navigate []string
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		elems:       map[string]*fakeElem{},
		lists:       map[string][]string{},
		onClick:     map[string]func(){},
		password:    "secret",
		linkText:    true,
		editorInput: autocompleteInputs[0],
		suggest:     map[string][]string{},
		typed:       map[string]string{},
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.BaseURL = testBase
	cfg.NavTimeout = 300 * time.Millisecond
	cfg.FieldTimeout = 200 * time.Millisecond
	cfg.EditorTimeout = 300 * time.Millisecond
	cfg.AutocompleteTimeout = 50 * time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond
	return cfg
}

func newTestFiller(site *fakeSite, workbook string) *Filler {
	f := New(site, Options{Config: testConfig(), WorkbookPath: workbook, RunID: "test-run"})
	f.settle = 0
	return f
}

func (s *fakeSite) set(sel string, e *fakeElem) { s.elems[sel] = e }

func (s *fakeSite) get(sel string) (*fakeElem, error) {
	e, ok := s.elems[sel]
	if !ok {
		return nil, fmt.Errorf("%s not found", sel)
	}
	return e, nil
}

func (s *fakeSite) reset(url string) {
	s.url = url
	s.html = "<html><head><title>STIS</title></head><body></body></html>"
	s.elems = map[string]*fakeElem{}
	s.lists = map[string][]string{}
	s.onClick = map[string]func(){}
	s.focused, s.editing = "", ""
}

func (s *fakeSite) loginPage() {
	s.reset(testBase + "/htm/auth/login.php")
	s.set(selLoginInput, &fakeElem{visible: true})
	s.set(selPasswordInput, &fakeElem{visible: true})
	s.set(selLoginSubmit, &fakeElem{visible: true})
	s.onClick[selLoginSubmit] = func() {
		if s.elems[selPasswordInput].value == s.password {
			s.reset(testBase + "/htm/auth/")
		}
	}
}

func (s *fakeSite) teamPage(url string) {
	s.reset(url)
	if s.formHTML != "" {
		s.html = s.formHTML
	}
}

func (s *fakeSite) headerForm(url string) {
	s.reset(url)
	hours := make([]models.SelectOption, 0, 24)
	for h := 0; h < 24; h++ {
		hours = append(hours, models.SelectOption{Value: fmt.Sprintf("%02d", h), Text: fmt.Sprintf("%02d", h)})
	}
	var minutes []models.SelectOption
	for m := 0; m < 60; m += 5 {
		minutes = append(minutes, models.SelectOption{Value: fmt.Sprintf("%02d", m), Text: fmt.Sprintf("%02d", m)})
	}
	if s.notice != "" {
		s.html = `<html><body><div class="hlaska">` + s.notice + `</div><form></form></body></html>`
	}
	s.set(selHeaderForm, &fakeElem{visible: true})
	s.set(selRoom, &fakeElem{visible: true})
	s.set(selStartHour, &fakeElem{visible: true, options: hours})
	s.set(selStartMinute, &fakeElem{visible: true, options: minutes})
	s.set(selEndHour, &fakeElem{visible: true, options: hours})
	s.set(selEndMinute, &fakeElem{visible: true, options: minutes})
	s.set(selHomeCaptain, &fakeElem{visible: true})
	s.set(selAwayCaptain, &fakeElem{visible: true, locked: true})
	s.set("input[name='odeslat']", &fakeElem{visible: true})
	s.onClick["input[name='odeslat']"] = s.submitHeader
}

// submitHeader answers a header POST. Every answer is a new document, so the
// submit mark on the old one goes away.
func (s *fakeSite) submitHeader() {
	s.submits++
	delete(s.elems, markedSelector(markSubmit))
	switch {
	case s.rejectOther != "":
		s.html = `<html><body><p class="chyba">` + s.rejectOther + `</p></body></html>`
	case s.submits <= s.rejectStart:
		s.html = `<html><body><ul class="errors"><li>Vyplňte začátek utkání</li></ul></body></html>`
		s.elems[selStartHour].value = ""
	default:
		s.editor()
	}
}

var testPlayerCells = func() []string {
	var cells []string
	for _, c := range []string{".cell-player:first-child", ".cell-player:last-child"} {
		for _, side := range []string{".player.domaci", ".player.host"} {
			cells = append(cells, "#c0 "+c+" "+side, "#c1 "+c+" "+side)
		}
	}
	for i := 0; i < models.SinglesCount; i++ {
		cells = append(cells, fmt.Sprintf("#d%d .player.domaci", i), fmt.Sprintf("#d%d .player.host", i))
	}
	return cells
}()

var testRoster = []models.SelectOption{
	{Value: "0", Text: "-- vyberte --"},
	{Value: "15", Text: "Nováková Jana"},
	{Value: "11", Text: "Novák Jan"},
	{Value: "12", Text: "Dvořák Karel"},
	{Value: "13", Text: "Svoboda Petr"},
	{Value: "14", Text: "Malý Ivan"},
}

func (s *fakeSite) editor() {
	s.reset(testBase + "/htm/auth/klub/online.php?u=55")
	if s.noEditor {
		return
	}
	s.events = 2 + models.SinglesCount
	s.set(selEditorEvent, &fakeElem{visible: true})
	s.set(selSetInput, &fakeElem{visible: true})
	s.set(selEvents, &fakeElem{visible: true})
	for e := 0; e < s.events; e++ {
		for k := 1; k <= models.MaxSets; k++ {
			s.set(setSelector(e, k), &fakeElem{visible: true})
		}
	}
	for _, cell := range testPlayerCells {
		s.set(cell, &fakeElem{visible: true})
		if s.selects {
			s.set(cell+" select", &fakeElem{visible: true, options: testRoster})
			continue
		}
		name := cell + " .player-name"
		s.set(name, &fakeElem{visible: true})
		s.onClick[name] = func() {
			s.editing = name
			s.set(s.editorInput, &fakeElem{visible: true})
		}
	}
	s.set("input[name='ulozit']", &fakeElem{visible: true})
	s.onClick["input[name='ulozit']"] = func() { s.saved = true }
}

// commit ends typing in the focused field, the way Tab or a menu click does
func (s *fakeSite) commit(value string) {
	delete(s.elems, selMenuItems)
	delete(s.lists, selMenuItems)
	s.typed["keyboard"] = ""
	if s.editing != "" {
		s.elems[s.editing].text = value
		delete(s.elems, s.editorInput)
		s.editing = ""
		s.focused = ""
		return
	}
	if e, ok := s.elems[s.focused]; ok {
		e.value = value
	}
}

func (s *fakeSite) Navigate(ctx context.Context, url string) error {
	s.navigate = append(s.navigate, url)
	switch {
	case strings.Contains(url, "/login.php"):
		s.loginPage()
	case strings.Contains(url, "/vysledky/"):
		s.teamPage(url)
	case strings.Contains(url, "zapis"):
		s.headerForm(url)
	default:
		s.reset(url)
	}
	return nil
}

// Location also advances a delayed click, the way a real page finishes
// loading some time after Click returns
func (s *fakeSite) Location(ctx context.Context) (string, error) {
	if s.pending != nil {
		s.pendingPolls--
		if s.pendingPolls <= 0 {
			fn := s.pending
			s.pending = nil
			fn()
		}
	}
	return s.url, nil
}

func (s *fakeSite) HTML(ctx context.Context) (string, error) { return s.html, nil }
func (s *fakeSite) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (s *fakeSite) Count(ctx context.Context, sel string) (int, error) {
	if _, ok := s.elems[sel]; ok {
		return 1, nil
	}
	return 0, nil
}

func (s *fakeSite) Visible(ctx context.Context, sel string) (bool, error) {
	e, ok := s.elems[sel]
	return ok && e.visible, nil
}

func (s *fakeSite) Editable(ctx context.Context, sel string) (bool, error) {
	e, err := s.get(sel)
	if err != nil {
		return false, err
	}
	return !e.locked, nil
}

func (s *fakeSite) Value(ctx context.Context, sel string) (string, error) {
	e, ok := s.elems[sel]
	if !ok {
		return "", nil
	}
	return e.value, nil
}

func (s *fakeSite) Text(ctx context.Context, sel string) (string, error) {
	e, ok := s.elems[sel]
	if !ok {
		return "", nil
	}
	return e.text, nil
}

func (s *fakeSite) Texts(ctx context.Context, sel string) ([]string, error) {
	return s.lists[sel], nil
}

func (s *fakeSite) Options(ctx context.Context, sel string) ([]models.SelectOption, error) {
	e, ok := s.elems[sel]
	if !ok {
		return nil, nil
	}
	return e.options, nil
}

func (s *fakeSite) SetValue(ctx context.Context, sel, value string) error {
	e, err := s.get(sel)
	if err != nil {
		return err
	}
	e.value = value
	return nil
}

func (s *fakeSite) SelectValue(ctx context.Context, sel, value string) error {
	e, err := s.get(sel)
	if err != nil {
		return err
	}
	for _, o := range e.options {
		if o.Value == value {
			e.value, e.text = o.Value, o.Text
			return nil
		}
	}
	return fmt.Errorf("%s has no option %q", sel, value)
}

func (s *fakeSite) Type(ctx context.Context, sel, text string) error {
	e, err := s.get(sel)
	if err != nil {
		return err
	}
	e.value = text
	s.focused = sel
	s.typed[sel] = text
	if items, ok := s.suggest[text]; ok {
		s.lists[selMenuItems] = items
		s.set(selMenuItems, &fakeElem{visible: true})
	}
	return nil
}

func (s *fakeSite) Keys(ctx context.Context, keys string) error {
	s.keys = append(s.keys, keys)
	if keys == keyTab {
		if e, ok := s.elems[s.focused]; ok {
			s.commit(e.value)
		} else if s.editing != "" {
			s.commit(s.typed["keyboard"])
		}
		return nil
	}
	s.typed["keyboard"] += keys
	return nil
}

func (s *fakeSite) Click(ctx context.Context, sel string) error {
	if _, err := s.get(sel); err != nil {
		return err
	}
	fn, ok := s.onClick[sel]
	if !ok {
		return nil
	}
	if sel == "input[name='odeslat']" && s.clickDelay > 0 {
		s.pending, s.pendingPolls = fn, s.clickDelay
		return nil
	}
	fn()
	return nil
}

func (s *fakeSite) ClickNth(ctx context.Context, sel string, n int) error {
	items := s.lists[sel]
	if n < 0 || n >= len(items) {
		return fmt.Errorf("%s[%d] not found", sel, n)
	}
	s.commit(items[n])
	return nil
}

func (s *fakeSite) MarkByText(ctx context.Context, sel string, needles []string, mark string) (bool, error) {
	if !s.linkText || !strings.Contains(s.url, "/vysledky/") {
		return false, nil
	}
	const label = "Vložit zápis"
	for _, n := range needles {
		if strings.Contains(parser.Normalize(label), n) {
			target := testBase + "/htm/auth/klub/zapis.php?id=9"
			s.set(markedSelector(mark), &fakeElem{visible: true, text: label})
			s.onClick[markedSelector(mark)] = func() { s.headerForm(target) }
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSite) Mark(ctx context.Context, sel, mark string) (int, error) {
	if sel != "html" {
		return 0, fmt.Errorf("fake only marks html, got %s", sel)
	}
	s.set(markedSelector(mark), &fakeElem{})
	return 1, nil
}

func (s *fakeSite) Index(ctx context.Context, sel string) (int, error) {
	return s.events, nil
}
