package abuse

// disposableDomains lists throwaway email providers. Addresses on these
// domains score high because they cost nothing to rotate.
var disposableDomains = map[string]bool{
	"10minutemail.com":  true,
	"guerrillamail.com": true,
	"guerrillamail.net": true,
	"mailinator.com":    true,
	"maildrop.cc":       true,
	"temp-mail.org":     true,
	"tempmail.com":      true,
	"throwawaymail.com": true,
	"yopmail.com":       true,
	"sharklasers.com":   true,
	"getnada.com":       true,
	"trashmail.com":     true,
	"dispostable.com":   true,
	"fakeinbox.com":     true,
	"mytemp.email":      true,
	"mohmal.com":        true,
	"emailondeck.com":   true,
	"spamgourmet.com":   true,
	"mintemail.com":     true,
	"burnermail.io":     true,
}

// IsDisposableDomain reports whether the domain is a known throwaway
// email provider.
func IsDisposableDomain(domain string) bool {
	return disposableDomains[domain]
}
