package filler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/myusername/stis-uploader/pkg/models"
	"github.com/myusername/stis-uploader/pkg/parser"
)

const settleDelay = 300 * time.Millisecond

// autocompleteInputs locate the text box the editor opens after a name is clicked
var autocompleteInputs = []string{
	"input.ui-autocomplete-input:focus",
	"input.ac_input:focus",
	"input[type='text']:focus:not(.zapas-set):not([disabled])",
}

// slot is one player cell of the online editor
type slot struct {
	field string
	cell  string
	name  string
}

func doublesSlots(d models.DoublesEntry) []slot {
	row := fmt.Sprintf("#c%d ", d.Index)
	return []slot{
		{fmt.Sprintf("doubles %d home 1", d.Index+1), row + ".cell-player:first-child .player.domaci", d.Home1},
		{fmt.Sprintf("doubles %d home 2", d.Index+1), row + ".cell-player:last-child .player.domaci", d.Home2},
		{fmt.Sprintf("doubles %d away 1", d.Index+1), row + ".cell-player:first-child .player.host", d.Away1},
		{fmt.Sprintf("doubles %d away 2", d.Index+1), row + ".cell-player:last-child .player.host", d.Away2},
	}
}

func singlesSlots(s models.SinglesEntry) []slot {
	row := fmt.Sprintf("#d%d ", models.DOMIndex(s.Index))
	return []slot{
		{fmt.Sprintf("singles %d home", s.Index), row + ".player.domaci", s.Home},
		{fmt.Sprintf("singles %d away", s.Index), row + ".player.host", s.Away},
	}
}

// FillLineup enters players and set scores into the online editor
func (f *Filler) FillLineup(ctx context.Context, lineup models.Lineup) error {
	n, err := f.page.Index(ctx, selEvents)
	if err != nil {
		return f.navError(ctx, StepFillLineup, err, "cannot number the editor events")
	}
	log.Printf("Online editor has %d events", n)

	for _, d := range lineup.Doubles {
		for _, s := range doublesSlots(d) {
			f.fillPlayer(ctx, s)
		}
		f.fillSets(ctx, fmt.Sprintf("doubles %d", d.Index+1), d.Index, n, d.Sets)
	}
	for _, s := range lineup.Singles {
		if !models.ValidSinglesIndex(s.Index) {
			f.warn(StepFillLineup, fmt.Sprintf("singles %d", s.Index), "index outside %d..%d", models.FirstSinglesIndex, models.LastSinglesIndex)
			continue
		}
		for _, sl := range singlesSlots(s) {
			f.fillPlayer(ctx, sl)
		}
		f.fillSets(ctx, fmt.Sprintf("singles %d", s.Index), s.EventIndex(), n, s.Sets)
	}
	return nil
}

// fillPlayer puts one player into a cell, preferring a native select over
// the autocomplete editor, then checks what the cell shows
func (f *Filler) fillPlayer(ctx context.Context, s slot) {
	name := strings.TrimSpace(s.name)
	if name == "" {
		return
	}
	if !f.present(ctx, s.cell) {
		f.warn(StepFillLineup, s.field, "cell %s not found", s.cell)
		return
	}

	var err error
	if f.present(ctx, s.cell+" select") {
		err = f.choosePlayer(ctx, s)
	} else {
		err = f.typePlayer(ctx, s.cell, name)
	}
	if err != nil {
		f.warn(StepFillLineup, s.field, "cannot enter %q: %v", name, err)
		return
	}

	shown, _ := f.shownPlayer(ctx, s.cell)
	if !parser.NamesMatch(name, shown) {
		f.warn(StepFillLineup, s.field, "cell shows %q instead of %q", shown, name)
		return
	}
	f.Report().PlayersFilled++
	log.Printf(" ✓ %s → %s", name, s.field)
}

// shownPlayer reads the name a cell displays
func (f *Filler) shownPlayer(ctx context.Context, cell string) (string, error) {
	if f.present(ctx, cell+" select") {
		return f.page.Text(ctx, cell+" select")
	}
	if f.present(ctx, cell+" .player-name") {
		return f.page.Text(ctx, cell+" .player-name")
	}
	return f.page.Text(ctx, cell)
}

// choosePlayer picks the player from the cell's select: an exact spelling,
// then the surname, and as a last resort the first real option
func (f *Filler) choosePlayer(ctx context.Context, s slot) error {
	ctx, cancel := f.fieldCtx(ctx)
	defer cancel()

	sel := s.cell + " select"
	opts, err := f.page.Options(ctx, sel)
	if err != nil {
		return err
	}
	texts := make([]string, len(opts))
	for i, o := range opts {
		texts[i] = o.Text
	}

	i, exact := parser.BestName(s.name, texts, f.cfg.SurnameFirst)
	if !exact {
		i = -1
	}
	if i < 0 {
		for j, t := range texts {
			if parser.SurnameMatch(s.name, t) {
				i = j
				log.Printf("%s: %q chosen by surname for %q", s.field, t, s.name)
				break
			}
		}
	}
	if i < 0 {
		for j, o := range opts {
			if placeholderOption(o) {
				continue
			}
			i = j
			f.warn(StepFillLineup, s.field, "%q not offered, chose first option %q", s.name, o.Text)
			break
		}
	}
	if i < 0 {
		return fmt.Errorf("%s offers no players", sel)
	}
	return f.page.SelectValue(ctx, sel, opts[i].Value)
}

func placeholderOption(o models.SelectOption) bool {
	v := strings.TrimSpace(o.Value)
	return v == "" || v == "0" || v == "-1" || strings.Trim(o.Text, " -") == ""
}

// typePlayer opens the cell's autocomplete editor and types the name
func (f *Filler) typePlayer(ctx context.Context, cell, name string) error {
	fctx, cancel := f.fieldCtx(ctx)
	defer cancel()

	target := cell
	if f.present(fctx, cell+" .player-name") {
		target = cell + " .player-name"
	}
	if err := f.page.Click(fctx, target); err != nil {
		return err
	}
	f.pause(fctx, f.settle)

	_, err := firstFound(fctx, "name input", bySelectors(f.page, "input", autocompleteInputs...), func(ctx context.Context, h Handle) error {
		if err := f.page.Type(ctx, h.Selector, name); err != nil {
			return err
		}
		if !f.pickSuggestion(ctx, name) {
			return f.page.Keys(ctx, keyTab)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	log.Printf("No name input for %s, typing on the keyboard", cell)
	if err := f.page.Keys(fctx, name); err != nil {
		return err
	}
	return f.page.Keys(fctx, keyTab)
}

// setSelector addresses set k (1-based) of the n-th editor event
func setSelector(event, k int) string {
	return fmt.Sprintf(`%s .zapas-set[data-set="%d"]`, eventSelector(event), k)
}

// fillSets writes the set scores of one event
func (f *Filler) fillSets(ctx context.Context, field string, event, events int, sets []string) {
	if len(sets) == 0 {
		return
	}
	if event >= events {
		f.warn(StepFillLineup, field, "event #%d not on the page (%d events)", event, events)
		return
	}
	for i, v := range sets {
		if i >= models.MaxSets {
			break
		}
		v = parser.MapWO(v)
		if v == "" {
			continue
		}
		sel := setSelector(event, i+1)
		if !f.present(ctx, sel) {
			f.warn(StepFillLineup, fmt.Sprintf("%s set %d", field, i+1), "input not found for event #%d", event)
			continue
		}
		fctx, cancel := f.fieldCtx(ctx)
		err := f.page.SetValue(fctx, sel, v)
		cancel()
		if err != nil {
			f.warn(StepFillLineup, fmt.Sprintf("%s set %d", field, i+1), "cannot write %q: %v", v, err)
			continue
		}
		f.Report().SetsFilled++
		log.Printf(" set%d ← %s (event #%d)", i+1, v, event)
	}
}

// Save clicks "Uložit změny". Failing to save is reported, not fatal.
func (f *Filler) Save(ctx context.Context) error {
	log.Printf("Click 'Uložit změny'")
	strategies := bySelectors(f.page, "button",
		"input[name='ulozit']",
		"button[name='ulozit']",
		"input[value*='Uložit změny']",
	)
	_, err := firstFound(ctx, "save button", strategies, func(ctx context.Context, h Handle) error {
		fctx, cancel := f.fieldCtx(ctx)
		defer cancel()
		return f.page.Click(fctx, h.Selector)
	})
	if err != nil {
		f.warn(StepSave, "save", "%v", err)
		return nil
	}
	f.pause(ctx, 3*f.settle)
	f.Report().Saved = true
	log.Printf("Changes saved")
	return nil
}
