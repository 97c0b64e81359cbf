package entity

import "regexp"

// datePattern is a shape-only check (DD/MM/YYYY digits and slashes).
// Calendar validity is intentionally not enforced: "99/99/9999" passes.
var datePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// Load is a cargo record: a volume, an item description, the date the load
// was created, and the owning user. The user field is carried but never
// validated.
type Load struct {
	Volume       int64
	Item         string
	CreationDate string
	User         string
}

var loadRequired = []string{"volume", "item", "creation_date", "user"}

var loadRules = map[string][]Rule{
	"volume":        {Min(1), Max(9999)},
	"item":          {MinLen(1), MaxLen(50)},
	"creation_date": {Matches(datePattern)},
}

// NewLoad validates the field bundle and constructs a Load. An invalid
// bundle returns a *ValidationError and no Load.
func NewLoad(fields Fields) (*Load, error) {
	if err := Validate(KindLoad, fields, loadRequired, loadRules); err != nil {
		return nil, err
	}
	volume, _ := intValue(fields["volume"])
	return &Load{
		Volume:       volume,
		Item:         fields["item"].(string),
		CreationDate: fields["creation_date"].(string),
		User:         stringValue(fields["user"]),
	}, nil
}

// Kind returns KindLoad.
func (l *Load) Kind() Kind { return KindLoad }

// Required returns the fields a Load bundle must supply.
func (l *Load) Required() []string { return loadRequired }

// Rules returns the Load rule table.
func (l *Load) Rules() map[string][]Rule { return loadRules }

// Data returns the persistable field set.
func (l *Load) Data() Fields {
	return Fields{
		"volume":        l.Volume,
		"item":          l.Item,
		"creation_date": l.CreationDate,
		"user":          l.User,
	}
}
