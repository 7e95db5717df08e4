package osint

import "github.com/osint-industries/oi-cli/internal/jsonval"

// Module is one data source's result from a search, with its data kept as
// decoded JSON.
type Module struct {
	Name string
	Data jsonval.Value
}

// MarshalJSON writes the module unmodified as {"name": ..., "data": ...}.
func (m Module) MarshalJSON() ([]byte, error) {
	data := m.Data
	if data.Kind() == jsonval.Unsupported {
		data = jsonval.NullValue()
	}
	return jsonval.ObjectValue(
		jsonval.Member{Key: "name", Value: jsonval.StringValue(m.Name)},
		jsonval.Member{Key: "data", Value: data},
	).MarshalJSON()
}

// ModuleData is the projection of a module's data onto the well-known fields.
// A field is set whenever the source has the key, whatever its JSON type,
// null included; it is nil only when the key is missing.
type ModuleData struct {
	PlatformVariables []jsonval.Value `json:"platformVariables"`
	Registered        *jsonval.Value  `json:"registered,omitempty"`
	ID                *jsonval.Value  `json:"id,omitempty"`
	Name              *jsonval.Value  `json:"name,omitempty"`
	FirstName         *jsonval.Value  `json:"firstName,omitempty"`
	LastName          *jsonval.Value  `json:"lastName,omitempty"`
	PictureURL        *jsonval.Value  `json:"pictureUrl,omitempty"`
	ProfileURL        *jsonval.Value  `json:"profileUrl,omitempty"`
	BannerURL         *jsonval.Value  `json:"bannerUrl,omitempty"`
	Username          *jsonval.Value  `json:"username,omitempty"`
	Gender            *jsonval.Value  `json:"gender,omitempty"`
	Language          *jsonval.Value  `json:"language,omitempty"`
	Location          *jsonval.Value  `json:"location,omitempty"`
	LastSeen          *jsonval.Value  `json:"lastSeen,omitempty"`
	CreationDate      *jsonval.Value  `json:"creationDate,omitempty"`
	Followers         *jsonval.Value  `json:"followers,omitempty"`
	Following         *jsonval.Value  `json:"following,omitempty"`
	Premium           *jsonval.Value  `json:"premium,omitempty"`
}

// ProjectedModule is a module reduced to ModuleData.
type ProjectedModule struct {
	Name string     `json:"name"`
	Data ModuleData `json:"data"`
}

// ProjectModule copies the well-known fields of m.Data and normalizes its
// platform variables. Non-object data projects to an empty ModuleData.
func ProjectModule(m Module) ProjectedModule {
	d := m.Data
	out := ModuleData{PlatformVariables: []jsonval.Value{}}
	if pv, ok := d.Get("platformVariables"); ok {
		out.PlatformVariables = NormalizePlatformVariables(pv)
	}

	out.Registered = field(d, "registered")
	out.ID = field(d, "id")
	out.Name = field(d, "name")
	out.FirstName = field(d, "firstName")
	out.LastName = field(d, "lastName")
	out.PictureURL = field(d, "pictureUrl")
	out.ProfileURL = field(d, "profileUrl")
	out.BannerURL = field(d, "bannerUrl")
	out.Username = field(d, "username")
	out.Gender = field(d, "gender")
	out.Language = field(d, "language")
	out.Location = field(d, "location")
	out.LastSeen = field(d, "lastSeen")
	out.CreationDate = field(d, "creationDate")
	out.Followers = field(d, "followers")
	out.Following = field(d, "following")
	out.Premium = field(d, "premium")

	return ProjectedModule{Name: m.Name, Data: out}
}

// NormalizePlatformVariables normalizes each mapping of a platformVariables
// array. Anything but an array yields an empty slice; a non-object entry
// yields an empty object so positions line up with the input.
func NormalizePlatformVariables(v jsonval.Value) []jsonval.Value {
	if v.Kind() != jsonval.Array {
		return []jsonval.Value{}
	}
	out := make([]jsonval.Value, 0, v.Len())
	for _, entry := range v.Elems() {
		out = append(out, NormalizePlatformVariable(entry))
	}
	return out
}

// NormalizePlatformVariable normalizes the values of one mapping, dropping
// keys whose value is absent.
func NormalizePlatformVariable(v jsonval.Value) jsonval.Value {
	if v.Kind() != jsonval.Object {
		return jsonval.ObjectValue()
	}
	out, ok := jsonval.Normalize(v)
	if !ok {
		return jsonval.ObjectValue()
	}
	return out
}

// field returns the value under key, normalized so it always encodes. An
// absent marker counts as a missing key.
func field(d jsonval.Value, key string) *jsonval.Value {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	n, ok := jsonval.Normalize(v)
	if !ok {
		return nil
	}
	return &n
}
