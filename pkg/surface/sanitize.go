package surface

import "github.com/microcosm-cc/bluemonday"

// Sanitizer strips scripts, event handlers and foreign markup from converted
// HTML before it is shown or snapshotted.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the policy used for converted documents: user-generated
// content rules plus inline images carried as data URIs.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowDataURIImages()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	return &Sanitizer{policy: p}
}

// HTML returns the sanitized markup.
func (s *Sanitizer) HTML(raw string) string {
	return s.policy.Sanitize(raw)
}
