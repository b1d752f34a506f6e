package entity

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	DefaultCountryCode = "55"
	DefaultRegion      = "BR"
	MinPhoneDigits     = 10
)

var (
	nonDigit   = regexp.MustCompile(`\D`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9](?:[a-zA-Z0-9\-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9\-]*[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)
)

// allowedTLDs é mantida à mão. Domínios válidos mas incomuns são rejeitados de propósito.
var allowedTLDs = map[string]struct{}{
	"com": {}, "br": {}, "net": {}, "org": {}, "edu": {}, "gov": {}, "mil": {},
	"io": {}, "co": {}, "me": {}, "info": {}, "biz": {}, "app": {}, "dev": {},
	"tech": {}, "online": {}, "site": {}, "store": {}, "live": {}, "email": {},
	"us": {}, "uk": {}, "ca": {}, "au": {}, "pt": {}, "es": {}, "fr": {},
	"de": {}, "it": {}, "nl": {}, "ie": {}, "ar": {}, "cl": {}, "mx": {},
	"uy": {}, "py": {}, "jp": {}, "ai": {},
}

// NormalizedContact guarda os dois formatos de telefone usados pelas integrações.
type NormalizedContact struct {
	Email          string
	CRMPhone       string // +5511987654321
	MessagingPhone string // 5511987654321
}

func NormalizeContact(email, rawPhone string) NormalizedContact {
	return NormalizedContact{
		Email:          NormalizeEmail(email),
		CRMPhone:       ToCRMPhone(rawPhone),
		MessagingPhone: ToMessagingPhone(rawPhone),
	}
}

// PhoneDigits remove tudo que não for dígito.
func PhoneDigits(raw string) string {
	return nonDigit.ReplaceAllString(raw, "")
}

// NormalizePhone devolve só os dígitos, com o código do país quando ele faltar.
func NormalizePhone(raw string) string {
	digits := PhoneDigits(raw)
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, DefaultCountryCode) && len(digits) >= 12 {
		return digits
	}
	return DefaultCountryCode + digits
}

func ToCRMPhone(raw string) string {
	digits := NormalizePhone(raw)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

func ToMessagingPhone(raw string) string {
	return NormalizePhone(raw)
}

// HasMinimumDigits confere os dígitos digitados pelo usuário, antes do código do país.
func HasMinimumDigits(raw string) bool {
	return len(PhoneDigits(raw)) >= MinPhoneDigits
}

// FormatPhoneDisplay formata o número para leitura, ex: "(11) 98765-4321".
// Cai no formato tipo E.164 quando a libphonenumber não reconhece o número.
func FormatPhoneDisplay(raw string) string {
	crm := ToCRMPhone(raw)
	if crm == "" {
		return ""
	}
	num, err := phonenumbers.Parse(crm, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return crm
	}
	if phonenumbers.GetRegionCodeForNumber(num) == DefaultRegion {
		return phonenumbers.Format(num, phonenumbers.NATIONAL)
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidEmail(email string) bool {
	email = NormalizeEmail(email)
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return false
	}
	tld := email[strings.LastIndex(email, ".")+1:]
	_, ok := allowedTLDs[tld]
	return ok
}
