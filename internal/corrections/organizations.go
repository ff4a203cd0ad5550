package corrections

import "strings"

// Organization tags observations affiliated with one institution. Names are
// matched as substrings of the organization and address text, domains against
// email addresses and URLs.
type Organization struct {
	Keyword string
	Names   []string
	Domains []string
}

// Matches reports whether any of the observation's affiliation fields point at
// the organization. Emails and URLs are expected lowercased.
func (o Organization) Matches(organization, address string, emails, urls []string) bool {
	for _, name := range o.Names {
		if strings.Contains(organization, name) || strings.Contains(address, name) {
			return true
		}
	}
	for _, domain := range o.Domains {
		for _, email := range emails {
			if strings.Contains(email, "@"+domain) || strings.Contains(email, "."+domain) {
				return true
			}
		}
		for _, u := range urls {
			u = strings.TrimRight(u, "/")
			if strings.HasSuffix(u, "/"+domain) || strings.HasSuffix(u, "."+domain) {
				return true
			}
		}
	}
	return false
}
