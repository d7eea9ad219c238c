// Package validate holds the pure input checks run before a public submission
// reaches persistence. Nothing here touches the network or the store.
package validate

import (
	"strings"
	"time"

	"barbari/pkg/domain"
)

// BookingInput is the raw public booking form payload.
type BookingInput struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	ServiceType string `json:"service_type"`
	BookingDate string `json:"booking_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// ContactInput is the raw public contact form payload.
type ContactInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

// digitMap folds Persian and Arabic-Indic digits onto ASCII so phones typed
// with a Persian keyboard validate the same as ASCII input.
var digitMap = map[rune]rune{
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

func foldDigits(raw string) string {
	return strings.Map(func(r rune) rune {
		if ascii, ok := digitMap[r]; ok {
			return ascii
		}
		return r
	}, raw)
}

func stripSeparators(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-':
			return -1
		}
		return r
	}, foldDigits(raw))
}

// ValidPhone reports whether raw is a recognizable Iranian mobile number:
// an optional +98 or leading 0, then 9, then exactly nine digits.
// Whitespace and hyphens are ignored.
func ValidPhone(raw string) bool {
	s := stripSeparators(raw)
	if rest, ok := strings.CutPrefix(s, "+98"); ok {
		s = rest
	} else {
		s = strings.TrimPrefix(s, "0")
	}
	if len(s) != 10 || s[0] != '9' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizePhone returns the stored form of a phone number: separators
// stripped and the +98 country prefix rewritten to a leading 0.
// It does not validate; run ValidPhone first.
func NormalizePhone(raw string) string {
	s := stripSeparators(raw)
	if rest, ok := strings.CutPrefix(s, "+98"); ok {
		return "0" + rest
	}
	if !strings.HasPrefix(s, "0") && strings.HasPrefix(s, "9") {
		return "0" + s
	}
	return s
}

// FormatPhoneInput groups digits for progressive display as the user types:
// "09123456789" becomes "0912 345 6789". Applying it to its own output
// yields the same grouping. It is a display transform, not validation.
func FormatPhoneInput(raw string) string {
	var digits []byte
	for _, r := range foldDigits(raw) {
		if r >= '0' && r <= '9' {
			digits = append(digits, byte(r))
		}
		if len(digits) == 11 {
			break
		}
	}
	switch {
	case len(digits) <= 4:
		return string(digits)
	case len(digits) <= 7:
		return string(digits[:4]) + " " + string(digits[4:])
	default:
		return string(digits[:4]) + " " + string(digits[4:7]) + " " + string(digits[7:])
	}
}

// Booking validates a raw booking submission. An empty map means valid;
// otherwise each invalid field maps to a user-facing message.
func Booking(in BookingInput) map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(in.FullName) == "" {
		errs["full_name"] = "نام و نام خانوادگی الزامی است"
	}
	switch {
	case strings.TrimSpace(in.Phone) == "":
		errs["phone"] = "شماره تماس الزامی است"
	case !ValidPhone(in.Phone):
		errs["phone"] = "شماره موبایل معتبر نیست"
	}
	if strings.TrimSpace(in.Origin) == "" {
		errs["origin"] = "مبدأ الزامی است"
	}
	if strings.TrimSpace(in.Destination) == "" {
		errs["destination"] = "مقصد الزامی است"
	}
	if !domain.ServiceType(strings.TrimSpace(in.ServiceType)).Valid() {
		errs["service_type"] = "نوع سرویس را انتخاب کنید"
	}
	// Date is optional; when present it must be YYYY-MM-DD.
	if d := strings.TrimSpace(in.BookingDate); d != "" {
		if _, err := time.Parse("2006-01-02", foldDigits(d)); err != nil {
			errs["booking_date"] = "تاریخ معتبر نیست"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Contact validates a raw contact-form submission.
func Contact(in ContactInput) map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(in.Name) == "" {
		errs["name"] = "نام الزامی است"
	}
	switch {
	case strings.TrimSpace(in.Phone) == "":
		errs["phone"] = "شماره تماس الزامی است"
	case !ValidPhone(in.Phone):
		errs["phone"] = "شماره موبایل معتبر نیست"
	}
	if strings.TrimSpace(in.Message) == "" {
		errs["message"] = "متن پیام الزامی است"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
