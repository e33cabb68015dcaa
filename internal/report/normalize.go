package report

import (
	"regexp"

	"golang.org/x/text/unicode/norm"

	"rosterbot/internal/domain"
)

var nonKeyChars = regexp.MustCompile(`[^가-힣a-zA-Z0-9]`)

// NormalizeKey folds an organization name to NFC and keeps only Hangul
// syllables, ASCII letters and digits. It is for display-side lookups; the
// submission join always compares names exactly.
func NormalizeKey(name string) string {
	return nonKeyChars.ReplaceAllString(norm.NFC.String(name), "")
}

// PhoneBook finds roster phone numbers by normalized organization name.
type PhoneBook map[string]string

func NewPhoneBook(orgs []domain.Organization) PhoneBook {
	pb := make(PhoneBook, len(orgs))
	for _, org := range orgs {
		pb[NormalizeKey(org.Name)] = org.Phone
	}
	return pb
}

func (pb PhoneBook) Lookup(orgName string) (string, bool) {
	phone, ok := pb[NormalizeKey(orgName)]
	return phone, ok && phone != ""
}
