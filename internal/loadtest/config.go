// Package loadtest drives concurrent scripted chat sessions against a running
// OpenRamp server and checks every recommendation list it gets back.
package loadtest

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Sessions int           // Number of scripted sessions
	Workers  int           // Number of concurrent sessions
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Seed for skill selection
	Verbose  bool          // Log every finished session
}

// Flow is one scripted conversation.
type Flow struct {
	UserID   string   `json:"user_id"`
	Skills   []string `json:"skills"`
	Messages []string `json:"messages"`
}

// Stats holds run statistics.
type Stats struct {
	FlowsGenerated int
	FlowsRun       int
	FlowsSucceeded int
	FlowsFailed    int
	Turns          int
	Entries        int
	Exhausted      int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
