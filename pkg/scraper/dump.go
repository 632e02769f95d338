package scraper

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Snapshotter is a page that can be dumped for diagnosis
type Snapshotter interface {
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// DumpPaths returns the HTML and PNG paths written by Dump for a workbook path
func DumpPaths(workbookPath string) (htmlPath, pngPath string) {
	base := strings.TrimSuffix(workbookPath, filepath.Ext(workbookPath))
	return base + ".online_dump.html", base + ".online_dump.png"
}

// Dump writes the page's DOM and a full-page screenshot beside the workbook.
// Both files are attempted even if one fails.
func Dump(ctx context.Context, p Snapshotter, workbookPath string) error {
	htmlPath, pngPath := DumpPaths(workbookPath)
	var errs []string

	html, err := p.HTML(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("html: %v", err))
	} else if err := SaveContentToFile(htmlPath, html); err != nil {
		errs = append(errs, fmt.Sprintf("html: %v", err))
	} else {
		log.Printf("DOM dump of %q saved to %s", PageTitle(html), htmlPath)
	}

	buf, err := p.Screenshot(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("screenshot: %v", err))
	} else if err := os.WriteFile(pngPath, buf, 0644); err != nil {
		errs = append(errs, fmt.Sprintf("screenshot: %v", err))
	} else {
		log.Printf("Saved screenshot to %s", pngPath)
	}

	if len(errs) > 0 {
		return fmt.Errorf("dump incomplete: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SaveContentToFile saves content to a file, creating its directory
func SaveContentToFile(filename string, content string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
