package templates

import (
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

type Encoding string

const (
	EncodingGSM7 Encoding = "GSM-7"
	EncodingUCS2 Encoding = "UCS-2"
)

const (
	SMSLimitGSM  = 160
	SMSLimitUCS2 = 70

	// per-part payload once a message is split with a UDH
	concatGSM  = 153
	concatUCS2 = 67

	ellipsis = "..."
)

type SMS struct {
	Body      string
	Encoding  Encoding
	Length    int
	Limit     int
	Segments  int
	Truncated bool
}

const gsmBasic = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
	"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"

const gsmExtended = "^{}\\[~]|€\f"

// letters without a canonical decomposition
var translit = map[rune]string{
	'đ': "dj", 'Đ': "Dj",
	'ł': "l", 'Ł': "L",
	'ı': "i",
	'œ': "oe", 'Œ': "OE",
	'þ': "th", 'Þ': "Th",
	'ð': "d", 'Ð': "D",
}

// GenerateSMS renders an SMS template and fits it into a single segment.
// Bodies longer than one segment are cut and end with "...".
func GenerateSMS(key string, data map[string]string) (SMS, error) {
	tpl, ok := smsTemplates[key]
	if !ok {
		return SMS{}, ErrUnknownTemplate
	}
	return FitSMS(Fill(tpl, data)), nil
}

// FitSMS measures body and truncates it to the single segment limit.
// Accented latin letters outside the GSM alphabet are folded first so a
// single "č" does not push the message to UCS-2.
func FitSMS(body string) SMS {
	body = Transliterate(body)
	enc := DetectEncoding(body)
	limit := SMSLimitGSM
	if enc == EncodingUCS2 {
		limit = SMSLimitUCS2
	}

	sms := SMS{Body: body, Encoding: enc, Limit: limit}
	sms.Length = Length(body, enc)
	if sms.Length > limit {
		sms.Body = truncate(body, enc, limit-Length(ellipsis, enc)) + ellipsis
		sms.Length = Length(sms.Body, enc)
		sms.Truncated = true
	}
	sms.Segments = Segments(sms.Length, enc)
	return sms
}

// Transliterate replaces letters that are not in the GSM alphabet with a
// GSM spelling when one exists. Anything else is left for UCS-2.
func Transliterate(s string) string {
	if DetectEncoding(s) == EncodingGSM7 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteString(foldRune(r))
	}
	return b.String()
}

func foldRune(r rune) string {
	if isGSM(r) {
		return string(r)
	}
	if t, ok := translit[r]; ok {
		return t
	}
	var b strings.Builder
	for _, d := range norm.NFD.String(string(r)) {
		if unicode.Is(unicode.Mn, d) {
			continue
		}
		if !isGSM(d) {
			return string(r)
		}
		b.WriteRune(d)
	}
	if b.Len() == 0 {
		return string(r)
	}
	return b.String()
}

func isGSM(r rune) bool {
	return strings.ContainsRune(gsmBasic, r) || strings.ContainsRune(gsmExtended, r)
}

func DetectEncoding(s string) Encoding {
	for _, r := range s {
		if !isGSM(r) {
			return EncodingUCS2
		}
	}
	return EncodingGSM7
}

// Length counts septets for GSM-7 and UTF-16 code units for UCS-2.
func Length(s string, enc Encoding) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r, enc)
	}
	return n
}

func runeWidth(r rune, enc Encoding) int {
	if enc == EncodingUCS2 {
		return len(utf16.Encode([]rune{r}))
	}
	if strings.ContainsRune(gsmExtended, r) {
		return 2
	}
	return 1
}

func Segments(length int, enc Encoding) int {
	single, multi := SMSLimitGSM, concatGSM
	if enc == EncodingUCS2 {
		single, multi = SMSLimitUCS2, concatUCS2
	}
	switch {
	case length == 0:
		return 0
	case length <= single:
		return 1
	default:
		return (length + multi - 1) / multi
	}
}

func truncate(s string, enc Encoding, max int) string {
	n := 0
	for i, r := range s {
		w := runeWidth(r, enc)
		if n+w > max {
			return strings.TrimRight(s[:i], " ")
		}
		n += w
	}
	return s
}
