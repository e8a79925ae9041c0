package extract

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	rpdf "rsc.io/pdf"
)

var endToken = regexp.MustCompile(`(?i)-\s*end\b`)

// ResolvePages expands a page selection into sorted 1-based page numbers.
// The selection syntax is "all" or comma separated pages and ranges, with
// "end" standing for the last page ("1,3-5,7-end").
func ResolvePages(path, selection string) ([]int, error) {
	n, err := pageCount(path)
	if err != nil {
		return nil, err
	}
	return selectPages(n, selection)
}

func selectPages(n int, selection string) ([]int, error) {
	sel := strings.TrimSpace(selection)
	if sel == "" || strings.EqualFold(sel, AllPages) {
		pages := make([]int, n)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}

	sel = endToken.ReplaceAllString(sel, "-")
	sel = strings.Join(strings.Fields(sel), "")
	parsed, err := api.ParsePageSelection(sel)
	if err != nil {
		return nil, fmt.Errorf("invalid page selection %q: %w", selection, err)
	}
	set, err := api.PagesForPageSelection(n, parsed, false, false)
	if err != nil {
		return nil, fmt.Errorf("invalid page selection %q: %w", selection, err)
	}
	var pages []int
	for p, ok := range set {
		if ok && p >= 1 && p <= n {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("page selection %q matches none of the %d pages", selection, n)
	}
	sort.Ints(pages)
	return pages, nil
}

// pageCount asks pdfcpu first and falls back to the more lenient rsc.io
// reader for files pdfcpu refuses to parse.
func pageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err == nil && n > 0 {
		return n, nil
	}
	if m := fallbackPageCount(path); m > 0 {
		return m, nil
	}
	if err == nil {
		err = fmt.Errorf("document has no pages")
	}
	return 0, fmt.Errorf("read page count: %w", err)
}

func fallbackPageCount(path string) (n int) {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	st, err := f.Stat()
	if err != nil {
		return 0
	}
	doc, err := rpdf.NewReader(f, st.Size())
	if err != nil {
		return 0
	}
	return doc.NumPage()
}
