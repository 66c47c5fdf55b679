package config

import "time"

// Application constants
const (
	AppName    = "windorbit"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. WINDORBIT_LOGGING_LEVEL
	EnvPrefix = "WINDORBIT"

	// ConfigFileName is looked up next to the executable and in the working directory
	ConfigFileName = "windorbit.yaml"
	LogFileName    = "windorbit.log"

	// SSCWeb Locator form
	DefaultLocatorURL   = "https://sscweb.gsfc.nasa.gov/cgi-bin/Locator.cgi"
	DefaultQueryTimeout = 2 * time.Minute
	DefaultMinInterval  = 500 * time.Millisecond

	// Failure policies for a day whose query fails
	FailurePolicyAbort = "abort"
	FailurePolicySkip  = "skip"

	DefaultRetryDelay = 5 * time.Second
)
