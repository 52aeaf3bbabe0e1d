package domain

const ManufacturerName = "Unknown"

// Display categories shown in the assistant's app.
const (
	CategorySwitch          = "SWITCH"
	CategorySmartLock       = "SMARTLOCK"
	CategoryActivityTrigger = "ACTIVITY_TRIGGER"
	CategorySceneTrigger    = "SCENE_TRIGGER"
	CategoryLight           = "LIGHT"
	CategoryTV              = "TV"
	CategoryThermostat      = "THERMOSTAT"
	CategoryOther           = "OTHER"
)

var DisplayCategories = map[EntityDomain]string{
	DomainGarageDoor:   CategorySwitch,
	DomainGroup:        CategorySwitch,
	DomainInputBoolean: CategorySwitch,
	DomainInputSlider:  CategorySwitch,
	DomainSwitch:       CategorySwitch,
	DomainFan:          CategorySwitch,
	DomainCover:        CategorySwitch,
	DomainLock:         CategorySmartLock,
	DomainScript:       CategoryActivityTrigger,
	DomainScene:        CategorySceneTrigger,
	DomainLight:        CategoryLight,
	DomainMediaPlayer:  CategoryTV,
	DomainClimate:      CategoryThermostat,
	DomainAlert:        CategoryOther,
	DomainAutomation:   CategoryActivityTrigger,
}

// Appliance is one discovered endpoint.
type Appliance struct {
	EndpointID        string       `json:"endpointId"`
	ManufacturerName  string       `json:"manufacturerName"`
	FriendlyName      string       `json:"friendlyName"`
	Description       string       `json:"description"`
	DisplayCategories []string     `json:"displayCategories"`
	Capabilities      []Capability `json:"capabilities"`
}

type Capability struct {
	Type       string                `json:"type"`
	Interface  string                `json:"interface"`
	Version    string                `json:"version"`
	Properties *CapabilityProperties `json:"properties,omitempty"`
}

type CapabilityProperties struct {
	Supported           []SupportedProperty `json:"supported"`
	ProactivelyReported bool                `json:"proactivelyReported"`
	Retrievable         bool                `json:"retrievable"`
}

type SupportedProperty struct {
	Name string `json:"name"`
}

// DiscoveryPayload is the payload of Discover.Response.
type DiscoveryPayload struct {
	Endpoints []Appliance `json:"endpoints"`
}
