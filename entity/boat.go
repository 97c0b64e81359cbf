package entity

// Boat is a vessel record: a name, a type description, a length, and the
// owning user. The user field is carried but never validated.
type Boat struct {
	Name   string
	Type   string
	Length int64
	User   string
}

var boatRequired = []string{"name", "type", "length", "user"}

var boatRules = map[string][]Rule{
	"name":   {MinLen(1), MaxLen(50)},
	"type":   {MinLen(1), MaxLen(50)},
	"length": {Min(1), Max(9999)},
}

// NewBoat validates the field bundle and constructs a Boat. An invalid
// bundle returns a *ValidationError and no Boat.
func NewBoat(fields Fields) (*Boat, error) {
	if err := Validate(KindBoat, fields, boatRequired, boatRules); err != nil {
		return nil, err
	}
	length, _ := intValue(fields["length"])
	return &Boat{
		Name:   fields["name"].(string),
		Type:   fields["type"].(string),
		Length: length,
		User:   stringValue(fields["user"]),
	}, nil
}

// Kind returns KindBoat.
func (b *Boat) Kind() Kind { return KindBoat }

// Required returns the fields a Boat bundle must supply.
func (b *Boat) Required() []string { return boatRequired }

// Rules returns the Boat rule table.
func (b *Boat) Rules() map[string][]Rule { return boatRules }

// Data returns the persistable field set.
func (b *Boat) Data() Fields {
	return Fields{
		"name":   b.Name,
		"type":   b.Type,
		"length": b.Length,
		"user":   b.User,
	}
}

// stringValue tolerates non-string values for fields that carry no string
// rules (the user field is untyped in the bundle).
func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
