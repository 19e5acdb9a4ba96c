package main

// CLIResult is the top-level JSON envelope for every command.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIScanSummary reports one scan.
type CLIScanSummary struct {
	ScanID     string       `json:"scan_id"`
	Refs       int          `json:"refs"`
	Scanned    int          `json:"scanned"`
	Facts      int          `json:"facts"`
	Incomplete bool         `json:"incomplete"`
	DurationMS int64        `json:"duration_ms"`
	Snapshot   string       `json:"snapshot,omitempty"`
	Failures   []CLIFailure `json:"failures,omitempty"`
}

// CLIFailure is one unit that could not be scanned.
type CLIFailure struct {
	Ref   string `json:"ref"`
	Index int    `json:"index"`
	Error string `json:"error"`
}

// CLIMergeSummary reports a snapshot merge.
type CLIMergeSummary struct {
	Inputs   []string `json:"inputs"`
	Facts    int      `json:"facts"`
	Snapshot string   `json:"snapshot"`
}

// CLIResolution reports a filter resolution.
type CLIResolution struct {
	Candidates   []string `json:"candidates"`
	FromSnapshot bool     `json:"from_snapshot"`
	SavedTo      string   `json:"saved_to,omitempty"`
	Facts        int      `json:"facts"`
}

// CLICategory summarises one store category.
type CLICategory struct {
	Name  string `json:"name"`
	Keys  int    `json:"keys"`
	Facts int    `json:"facts"`
}
