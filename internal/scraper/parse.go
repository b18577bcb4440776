package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/pkg/errors"
)

// page is one parsed listing page.
type page struct {
	parts []*model.SparePart
	errs  []error
	seen  int
	next  string
}

var (
	pricePattern = regexp.MustCompile(`\d[\d.,\s]*`)
	spaces       = regexp.MustCompile(`\s+`)
)

func parsePage(site *Site, manufacturer string, body []byte) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse html")
	}

	p := &page{}
	doc.Find(site.Selectors.Product).Each(func(i int, card *goquery.Selection) {
		p.seen++
		part, err := parseProduct(site, manufacturer, card)
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("%s product %d: %w", manufacturer, i, err))
			return
		}
		p.parts = append(p.parts, part)
	})

	if site.Selectors.NextPage != "" {
		if href, ok := doc.Find(site.Selectors.NextPage).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			p.next = site.URL(strings.TrimSpace(href))
		}
	}
	return p, nil
}

// parseProduct turns one product card into a part. A panic inside a
// malformed card only fails that card.
func parseProduct(site *Site, manufacturer string, card *goquery.Selection) (part *model.SparePart, err error) {
	defer func() {
		if r := recover(); r != nil {
			part = nil
			err = fmt.Errorf("panic while parsing product: %v", r)
		}
	}()

	sel := site.Selectors
	name := text(card, sel.Name)
	if name == "" {
		return nil, errors.New("product has no name")
	}

	number := text(card, sel.PartNumber)
	number = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(number, "Art.-Nr.:"), "Part no.:"))
	if number == "" {
		return nil, fmt.Errorf("product %q has no part number", name)
	}

	part = &model.SparePart{
		PartNumber:       number,
		PartName:         name,
		Category:         site.Category,
		Manufacturer:     manufacturer,
		CompatibleModels: text(card, sel.Models),
		Currency:         site.Currency,
		Availability:     parseAvailability(text(card, sel.Availability)),
		SupplierName:     site.Supplier,
		SourceType:       model.SourceScraped,
	}

	if raw := text(card, sel.Price); raw != "" {
		price, err := parsePrice(raw)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", name, err)
		}
		part.SellingPrice = &price
	}
	if sel.Image != "" {
		img := card.Find(sel.Image).First()
		src, ok := img.Attr("data-src")
		if !ok {
			src, _ = img.Attr("src")
		}
		if src = strings.TrimSpace(src); src != "" {
			part.ImageURL = site.URL(src)
		}
	}
	if sel.Link != "" {
		if href, ok := card.Find(sel.Link).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			part.SupplierURL = site.URL(strings.TrimSpace(href))
		}
	}
	return part, nil
}

func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(spaces.ReplaceAllString(s.Find(selector).First().Text(), " "))
}

// parsePrice reads prices written as "€ 1.234,50", "12,90 EUR" or "$12.90".
func parsePrice(raw string) (float64, error) {
	m := pricePattern.FindString(raw)
	m = strings.ReplaceAll(strings.TrimSpace(m), " ", "")
	if m == "" {
		return 0, fmt.Errorf("no price in %q", raw)
	}

	comma := strings.LastIndex(m, ",")
	dot := strings.LastIndex(m, ".")
	switch {
	case comma > dot:
		// 1.234,50
		m = strings.ReplaceAll(m, ".", "")
		m = strings.Replace(m, ",", ".", 1)
	case dot > comma && comma >= 0:
		// 1,234.50
		m = strings.ReplaceAll(m, ",", "")
	}
	m = strings.TrimRight(m, ".")

	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return v, nil
}

func parseAvailability(raw string) model.Availability {
	s := strings.ToLower(raw)
	switch {
	case s == "":
		return model.AvailabilityAvailable
	case containsAny(s, "discontinued", "not produced", "fuori produzione", "nicht mehr"):
		return model.AvailabilityDiscontinued
	case containsAny(s, "out of stock", "sold out", "unavailable", "not available", "esaurito", "nicht verfügbar"):
		return model.AvailabilityOutOfStock
	case containsAny(s, "on order", "on request", "backorder", "su ordinazione", "lieferzeit"):
		return model.AvailabilityOnOrder
	}
	return model.AvailabilityAvailable
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
