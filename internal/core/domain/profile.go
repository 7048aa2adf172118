package domain

import "time"

// Profile frames generated content with a brand voice and audience.
type Profile struct {
	ID          string
	Name        string
	BrandVoice  string
	Audience    string
	Description string
	Guidelines  []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsEmpty reports whether the profile carries no framing text.
func (p *Profile) IsEmpty() bool {
	return p.Name == "" && p.BrandVoice == "" && p.Audience == "" &&
		p.Description == "" && len(p.Guidelines) == 0
}
