package servicedef

// SuiteParams is the schema of a YAML suite file.
//
//	timeout: 6s
//	cases:
//	  - target: CoAP Client
//	    outgoingTopic: command_co
//	    incomingTopic: output_co
//	    message: "on"
//	    expect: "Response #1.*UNAUTHORIZED"
type SuiteParams struct {
	// Timeout is the default wait window for every case, as a Go duration string.
	Timeout string `yaml:"timeout,omitempty"`

	Cases []TestCaseParams `yaml:"cases"`
}

type TestCaseParams struct {
	Target        string `yaml:"target"`
	OutgoingTopic string `yaml:"outgoingTopic"`
	IncomingTopic string `yaml:"incomingTopic"`
	Message       string `yaml:"message"`
	Expect        string `yaml:"expect"`

	// TimeoutMS overrides the suite's wait window for this case only.
	TimeoutMS *int `yaml:"timeoutMs,omitempty"`
}
