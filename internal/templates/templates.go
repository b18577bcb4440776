// Package templates renders the outbound message bodies for every
// notification channel.
package templates

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrMessageTooLong  = errors.New("message exceeds channel limit")
)

const WhatsAppLimit = 4096

var (
	placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)
	whitespace  = regexp.MustCompile(`[\s]+`)
)

// Fill replaces every {{key}} with its value. Unknown keys render empty and
// values are flattened to a single line.
func Fill(tpl string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		return flatten(data[key])
	})
}

func flatten(v string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(v, " "))
}

// GenerateWhatsApp renders a WhatsApp body. WhatsApp bodies fall back to the
// SMS wording when no dedicated template exists.
func GenerateWhatsApp(key string, data map[string]string) (string, error) {
	tpl, ok := whatsappTemplates[key]
	if !ok {
		tpl, ok = smsTemplates[key]
	}
	if !ok {
		return "", ErrUnknownTemplate
	}
	body := Fill(tpl, data)
	if len([]rune(body)) > WhatsAppLimit {
		return "", ErrMessageTooLong
	}
	return body, nil
}

type Email struct {
	Subject string
	Text    string
	HTML    string
}

func GenerateEmail(key string, data map[string]string) (Email, error) {
	tpl, ok := emailTemplates[key]
	if !ok {
		return Email{}, ErrUnknownTemplate
	}
	text := fillMultiline(tpl.body, data)
	return Email{
		Subject: Fill(tpl.subject, data),
		Text:    text,
		HTML:    toHTML(text),
	}, nil
}

type Push struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

func GeneratePush(key string, data map[string]string) (Push, error) {
	tpl, ok := pushTemplates[key]
	if !ok {
		return Push{}, ErrUnknownTemplate
	}
	return Push{
		Title: Fill(tpl.subject, data),
		Body:  Fill(tpl.body, data),
		URL:   flatten(data["url"]),
	}, nil
}

// fillMultiline keeps the line breaks of the template itself.
func fillMultiline(tpl string, data map[string]string) string {
	lines := strings.Split(tpl, "\n")
	for i, l := range lines {
		lines[i] = Fill(l, data)
	}
	return strings.Join(lines, "\n")
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")

func toHTML(text string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, p := range strings.Split(text, "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(htmlEscaper.Replace(p), "\n", "<br>"))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func SMSKeys() []string {
	return keys(smsTemplates)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
