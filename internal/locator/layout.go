package locator

// FormLayout names the Locator form elements the client drives. Selectors are
// XPath expressions because several element IDs contain '/' and can't be
// used in CSS selectors.
type FormLayout struct {
	SpacecraftSelectID string
	DeselectSpacecraft string
	Spacecraft         string

	StartTime string
	StopTime  string

	OutputOptionsButton string
	OutputCheckboxes    []string

	FormattingButton string
	FormatChoices    []string

	DistanceDecimals      string
	DistanceDecimalsValue string

	Submit string
	Result string
}

// DefaultFormLayout selects Wind, GSE/GSM XYZ and lat/long, dipole L value
// and invariant latitude, yy/mm/dd hh:mm:ss times and kilometres to three
// decimal places. The record package's line offsets assume this report.
func DefaultFormLayout() FormLayout {
	return FormLayout{
		SpacecraftSelectID: "scvalues",
		DeselectSpacecraft: "ace",
		Spacecraft:         "wind",

		StartTime: byID("starttime"),
		StopTime:  byID("stoptime"),

		OutputOptionsButton: goTo("Output Options"),
		OutputCheckboxes: []string{
			byID("GSE7"),
			byID("GSM7"),
			byID("GSE8"),
			byID("GSM8"),
			byID("Dipole_L_Value"),
			byID("Dipole_Inv_Lat"),
		},

		FormattingButton: goTo("Output Units/Formatting"),
		FormatChoices: []string{
			byID("yy/mm/dd"),
			byID("hh:mm:ss"),
			byID("km_-_Kilometers"),
		},

		DistanceDecimals:      byID("distdec"),
		DistanceDecimalsValue: "3",

		Submit: byID("sbplot"),
		Result: "/html/body/div/form/pre/pre",
	}
}

func byID(id string) string {
	return `//*[@id="` + id + `"]`
}

func goTo(value string) string {
	return `//input[@name="GO_TO"][@type="submit"][@value="` + value + `"]`
}
