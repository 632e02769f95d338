package filler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/myusername/stis-uploader/pkg/models"
	"github.com/myusername/stis-uploader/pkg/parser"
	"github.com/myusername/stis-uploader/pkg/scraper"
)

// FillHeader sets room, start and end time and the captains on the match form.
// Every field is best effort.
func (f *Filler) FillHeader(ctx context.Context, team models.TeamRecord) error {
	if f.editorOpen {
		return nil
	}

	if team.Room != "" {
		if f.present(ctx, selRoom) {
			fctx, cancel := f.fieldCtx(ctx)
			err := f.page.SetValue(fctx, selRoom, team.Room)
			cancel()
			if err != nil {
				f.warn(StepFillHeader, "room", "cannot fill %q: %v", team.Room, err)
			} else {
				log.Printf("Room filled: %s", team.Room)
			}
		} else {
			log.Printf("No room field on the form")
		}
	}

	if team.Start != "" {
		f.setClock(ctx, "start", team.Start, selStartHour, selStartMinute)
	}
	if team.End != "" && f.present(ctx, selEndHour) {
		f.setClock(ctx, "end", team.End, selEndHour, selEndMinute)
	}

	f.setCaptain(ctx, "home captain", selHomeCaptain, team.HomeCaptain)
	f.setCaptain(ctx, "away captain", selAwayCaptain, team.AwayCaptain)
	return nil
}

func (f *Filler) present(ctx context.Context, sel string) bool {
	n, err := f.page.Count(ctx, sel)
	return err == nil && n > 0
}

// setClock sets an hour and a minute select from "HH:MM"
func (f *Filler) setClock(ctx context.Context, field, hhmm, hourSel, minuteSel string) {
	hour, minute, ok := parser.SplitClock(hhmm)
	if !ok {
		f.warn(StepFillHeader, field, "unreadable time %q", hhmm)
		return
	}
	if err := f.selectNumber(ctx, hourSel, hour); err != nil {
		f.warn(StepFillHeader, field+" hour", "%v", err)
	} else {
		log.Printf("%s hour set: %s", field, hour)
	}
	if err := f.selectNumber(ctx, minuteSel, minute); err != nil {
		f.warn(StepFillHeader, field+" minute", "%v", err)
	} else {
		log.Printf("%s minute set: %s", field, minute)
	}
}

// selectNumber picks the option whose value or label is the number n,
// so "9" matches options valued "9" as well as "09".
func (f *Filler) selectNumber(ctx context.Context, sel, n string) error {
	ctx, cancel := f.fieldCtx(ctx)
	defer cancel()

	opts, err := f.page.Options(ctx, sel)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", sel, err)
	}
	if len(opts) == 0 {
		return fmt.Errorf("%s not found", sel)
	}
	want, _ := strconv.Atoi(n)
	value, found := "", false
	for _, o := range opts {
		if o.Value == n {
			value, found = o.Value, true
			break
		}
	}
	if !found {
		for _, o := range opts {
			v, errV := strconv.Atoi(strings.TrimSpace(o.Value))
			t, errT := strconv.Atoi(strings.TrimSpace(o.Text))
			if (errV == nil && v == want) || (errT == nil && t == want) {
				value, found = o.Value, true
				break
			}
		}
	}
	if !found {
		return fmt.Errorf("%s has no option %s", sel, n)
	}
	return f.page.SelectValue(ctx, sel, value)
}

// setCaptain types a captain into an autocomplete field unless the page has
// already locked or filled it
func (f *Filler) setCaptain(ctx context.Context, field, sel, name string) {
	if name == "" {
		return
	}
	if !f.present(ctx, sel) {
		log.Printf("No %s field on the form", field)
		return
	}
	if editable, err := f.page.Editable(ctx, sel); err == nil && !editable {
		log.Printf("%s is locked by the page, keeping it", field)
		return
	}
	if current, err := f.page.Value(ctx, sel); err == nil && strings.TrimSpace(current) != "" {
		log.Printf("%s already filled with %q, keeping it", field, current)
		return
	}

	fctx, cancel := f.fieldCtx(ctx)
	defer cancel()
	if err := f.page.Type(fctx, sel, name); err != nil {
		f.warn(StepFillHeader, field, "cannot type %q: %v", name, err)
		return
	}
	if !f.pickSuggestion(fctx, name) {
		// No menu: leave the typed text and move on
		if err := f.page.Keys(fctx, keyTab); err != nil {
			log.Printf("%s: Tab failed: %v", field, err)
		}
	}
	shown, _ := f.page.Value(fctx, sel)
	if !parser.NamesMatch(name, shown) {
		f.warn(StepFillHeader, field, "field shows %q instead of %q", shown, name)
		return
	}
	log.Printf("%s: %s", field, name)
}

// pickSuggestion waits for the autocomplete menu and clicks the entry naming
// the player, exact matches before prefix matches. It reports whether a
// suggestion was clicked.
func (f *Filler) pickSuggestion(ctx context.Context, name string) bool {
	if err := f.waitFor(ctx, f.cfg.AutocompleteTimeout, "suggestions", f.visible(selMenuItems)); err != nil {
		log.Printf("No suggestions for %q", name)
		return false
	}
	items, err := f.page.Texts(ctx, selMenuItems)
	if err != nil || len(items) == 0 {
		return false
	}
	i, exact := parser.BestName(name, items, f.cfg.SurnameFirst)
	if i < 0 {
		log.Printf("No suggestion matches %q among %q", name, items)
		return false
	}
	if err := f.page.ClickNth(ctx, selMenuItems, i); err != nil {
		log.Printf("Clicking suggestion %q failed: %v", items[i], err)
		return false
	}
	if !exact {
		log.Printf("Picked prefix match %q for %q", items[i], name)
	}
	return true
}

func (f *Filler) submitStrategies() []Strategy {
	return bySelectors(f.page, "button",
		"input[name='odeslat']",
		"input[value*='pokračovat']",
		"button[name='odeslat']",
	)
}

type submitOutcome int

const (
	outcomeEditor submitOutcome = iota
	outcomeRejected
)

// SubmitHeader clicks "Uložit a pokračovat" and waits for the online editor.
// A rejection about the start time is retried after setting the time again.
func (f *Filler) SubmitHeader(ctx context.Context, team models.TeamRecord) error {
	if f.editorOpen {
		return nil
	}

	var messages []string
	for attempt := 1; attempt <= f.cfg.SubmitRetries; attempt++ {
		log.Printf("Click 'Uložit a pokračovat' (attempt %d/%d)", attempt, f.cfg.SubmitRetries)
		if _, err := f.page.Mark(ctx, "html", markSubmit); err != nil {
			return f.navError(ctx, StepSubmitHeader, err, "cannot tag the header page")
		}
		_, err := firstFound(ctx, "submit button", f.submitStrategies(), func(ctx context.Context, h Handle) error {
			fctx, cancel := f.fieldCtx(ctx)
			defer cancel()
			return f.page.Click(fctx, h.Selector)
		})
		if err != nil {
			return f.navError(ctx, StepSubmitHeader, err, "'Uložit a pokračovat' not found")
		}

		outcome, msgs, err := f.waitSubmitOutcome(ctx)
		if err != nil {
			return f.navError(ctx, StepSubmitHeader, err, "no online editor after submitting the header")
		}
		if outcome == outcomeEditor {
			log.Printf("Header accepted")
			return nil
		}

		messages = msgs
		log.Printf("Header rejected: %s", strings.Join(msgs, "; "))
		if !mentionsStartTime(msgs) {
			return &SubmitValidationError{Attempts: attempt, Messages: msgs}
		}
		if team.Start == "" {
			f.warn(StepSubmitHeader, "start", "the form requires a start time and the workbook has none")
			return &SubmitValidationError{Attempts: attempt, Messages: msgs}
		}
		f.setClock(ctx, "start", team.Start, selStartHour, selStartMinute)
	}
	return &SubmitValidationError{Attempts: f.cfg.SubmitRetries, Messages: messages}
}

func mentionsStartTime(msgs []string) bool {
	for _, m := range msgs {
		if strings.Contains(parser.Normalize(m), "zacatek") {
			return true
		}
	}
	return false
}

// waitSubmitOutcome waits until either the online editor opens or the form
// comes back with error messages. The page the click was made on carries the
// submit mark; its messages are stale and are never read as the verdict.
func (f *Filler) waitSubmitOutcome(ctx context.Context) (submitOutcome, []string, error) {
	var outcome submitOutcome
	var msgs []string
	err := f.waitFor(ctx, f.cfg.NavTimeout, "online editor", func(ctx context.Context) (bool, error) {
		if u, err := f.page.Location(ctx); err == nil && onlineURLRegex.MatchString(u) {
			outcome = outcomeEditor
			return true, nil
		}
		if n, err := f.page.Count(ctx, markedSelector(markSubmit)); n > 0 || err != nil {
			return false, err
		}
		if ok, _ := f.page.Visible(ctx, selEditorEvent); ok {
			outcome = outcomeEditor
			return true, nil
		}
		if ok, err := f.page.Visible(ctx, selHeaderForm); !ok || err != nil {
			return false, err
		}
		html, err := f.page.HTML(ctx)
		if err != nil {
			return false, err
		}
		if found := scraper.ExtractMessages(html); len(found) > 0 {
			outcome, msgs = outcomeRejected, found
			return true, nil
		}
		return false, nil
	})
	return outcome, msgs, err
}
