// Package filler drives the registry's match report forms from a lineup
package filler

import (
	"context"

	"github.com/myusername/stis-uploader/pkg/models"
)

// Page is the browser tab the filler works on. scraper.Browser implements it.
// Selectors are CSS; methods that read return zero values when nothing matches.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	Count(ctx context.Context, sel string) (int, error)
	Visible(ctx context.Context, sel string) (bool, error)
	Editable(ctx context.Context, sel string) (bool, error)
	Value(ctx context.Context, sel string) (string, error)
	Text(ctx context.Context, sel string) (string, error)
	Texts(ctx context.Context, sel string) ([]string, error)
	Options(ctx context.Context, sel string) ([]models.SelectOption, error)

	SetValue(ctx context.Context, sel, value string) error
	SelectValue(ctx context.Context, sel, value string) error
	Type(ctx context.Context, sel, text string) error
	Keys(ctx context.Context, keys string) error
	Click(ctx context.Context, sel string) error
	ClickNth(ctx context.Context, sel string, n int) error

	MarkByText(ctx context.Context, sel string, needles []string, mark string) (bool, error)
	Mark(ctx context.Context, sel, mark string) (int, error)
	Index(ctx context.Context, sel string) (int, error)
}

// Selectors of the registry's pages
const (
	selLoginInput    = "input[name='login']"
	selPasswordInput = "input[name='heslo']"
	selLoginSubmit   = "[name='send']"

	selRoom        = "input[name='zapis_herna']"
	selStartHour   = "select[name='zapis_zacatek_hodiny']"
	selStartMinute = "select[name='zapis_zacatek_minuty']"
	selEndHour     = "select[name='zapis_konec_hodiny']"
	selEndMinute   = "select[name='zapis_konec_minuty']"
	selHomeCaptain = "input[name='id_domaci_vedoucitext']"
	selAwayCaptain = "input[name='id_hoste_vedoucitext']"
	selHeaderForm  = "input[name='zapis_herna'], select[name='zapis_zacatek_hodiny'], input[name='odeslat']"

	selEditorEvent = "#zapis .event"
	selSetInput    = ".zapas-set"
	selEvents      = ".event"
	selMenuItems   = "ul.ui-autocomplete li, .ac_results li"

	markFormLink = "form-link"
	markSubmit   = "submit" // set on <html> before submitting the header
	keyTab       = "\t"
)

// markedSelector mirrors scraper.Marked
func markedSelector(mark string) string {
	return `[data-stis="` + mark + `"]`
}

func eventSelector(event int) string {
	return `.event[data-stis-index="` + itoa(event) + `"]`
}
