package filler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Handle is what a locator strategy found: a selector to act on or a URL to open
type Handle struct {
	Selector string
	URL      string
}

// Strategy is one way of finding an element. Locate reports found=false
// (NotFound) rather than an error when the element is simply absent.
type Strategy struct {
	Name   string
	Locate func(ctx context.Context) (h Handle, found bool, err error)
}

// bySelectors returns one strategy per selector, each found when the selector matches
func bySelectors(p Page, prefix string, selectors ...string) []Strategy {
	strategies := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		sel := sel
		strategies = append(strategies, Strategy{
			Name: prefix + " " + sel,
			Locate: func(ctx context.Context) (Handle, bool, error) {
				n, err := p.Count(ctx, sel)
				if err != nil || n == 0 {
					return Handle{}, false, err
				}
				return Handle{Selector: sel}, true, nil
			},
		})
	}
	return strategies
}

// firstFound tries strategies in order and passes each handle to use until
// one succeeds. It returns the name of the strategy that worked.
func firstFound(ctx context.Context, what string, strategies []Strategy, use func(context.Context, Handle) error) (string, error) {
	var attempts []string
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		h, found, err := s.Locate(ctx)
		switch {
		case err != nil:
			log.Printf("%s: %s failed: %v", what, s.Name, err)
			attempts = append(attempts, fmt.Sprintf("%s (%v)", s.Name, err))
			continue
		case !found:
			log.Printf("%s: %s found nothing", what, s.Name)
			attempts = append(attempts, s.Name+" (not found)")
			continue
		}
		if err := use(ctx, h); err != nil {
			log.Printf("%s: %s found %+v but using it failed: %v", what, s.Name, h, err)
			attempts = append(attempts, fmt.Sprintf("%s (%v)", s.Name, err))
			continue
		}
		log.Printf("%s: used %s", what, s.Name)
		return s.Name, nil
	}
	return "", fmt.Errorf("no strategy found %s; tried %s", what, strings.Join(attempts, ", "))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
