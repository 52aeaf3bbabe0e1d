package domain

// Assistant interface namespaces.
const (
	NamespaceAlexa            = "Alexa"
	NamespaceDiscovery        = "Alexa.Discovery"
	NamespacePower            = "Alexa.PowerController"
	NamespaceBrightness       = "Alexa.BrightnessController"
	NamespacePercentage       = "Alexa.PercentageController"
	NamespaceColor            = "Alexa.ColorController"
	NamespaceColorTemperature = "Alexa.ColorTemperatureController"
	NamespaceLock             = "Alexa.LockController"
	NamespaceThermostat       = "Alexa.ThermostatController"
	NamespaceTemperature      = "Alexa.TemperatureSensor"
	NamespaceEndpointHealth   = "Alexa.EndpointHealth"
	NamespaceReportState      = "Alexa.ReportState"
)

// Property names reported in context and advertised in discovery.
const (
	PropertyPowerState       = "powerState"
	PropertyBrightness       = "brightness"
	PropertyPercentage       = "percentage"
	PropertyColor            = "color"
	PropertyColorTemperature = "colorTemperatureInKelvin"
	PropertyLockState        = "lockState"
	PropertyTargetSetpoint   = "targetSetpoint"
	PropertyThermostatMode   = "thermostatMode"
	PropertyTemperature      = "temperature"
	PropertyConnectivity     = "connectivity"
)

// Canonical thermostat modes.
const (
	ModeHeat = "HEAT"
	ModeCool = "COOL"
	ModeAuto = "AUTO"
	ModeOff  = "OFF"
)

// IsCanonicalMode reports whether mode is one of HEAT, COOL, AUTO or OFF.
func IsCanonicalMode(mode string) bool {
	switch mode {
	case ModeHeat, ModeCool, ModeAuto, ModeOff:
		return true
	}
	return false
}
