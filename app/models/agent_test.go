package models

import (
	"strings"
	"testing"
)

func TestNewAgentAppliesDefaults(t *testing.T) {
	agent, err := NewAgent(1, "Support bot", "", "Answer customer questions politely.")
	if err != nil {
		t.Fatalf("NewAgent returned error: %v", err)
	}
	if agent.UUID == "" {
		t.Fatalf("expected a generated UUID")
	}
	if agent.Status != AgentStatusOffline {
		t.Fatalf("Status = %q, want %q", agent.Status, AgentStatusOffline)
	}
	if agent.TriggerType != AgentTriggerManual {
		t.Fatalf("TriggerType = %q, want %q", agent.TriggerType, AgentTriggerManual)
	}
}

func TestNewAgentValidation(t *testing.T) {
	tests := []struct {
		name        string
		agentName   string
		description string
		prompt      string
	}{
		{name: "name too short", agentName: "ab", prompt: "A perfectly reasonable prompt."},
		{name: "name missing", agentName: "", prompt: "A perfectly reasonable prompt."},
		{name: "name too long", agentName: strings.Repeat("x", 101), prompt: "A perfectly reasonable prompt."},
		{name: "prompt too short", agentName: "Support bot", prompt: "too short"},
		{name: "prompt missing", agentName: "Support bot", prompt: ""},
		{name: "prompt too long", agentName: "Support bot", prompt: strings.Repeat("x", 5001)},
		{name: "description too long", agentName: "Support bot", description: strings.Repeat("x", 501), prompt: "A perfectly reasonable prompt."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAgent(1, tt.agentName, tt.description, tt.prompt); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestAgentValidateStatusAndTrigger(t *testing.T) {
	agent, err := NewAgent(1, "Support bot", "", "Answer customer questions politely.")
	if err != nil {
		t.Fatalf("NewAgent returned error: %v", err)
	}

	agent.Status = "deleted"
	if err := agent.Validate(); err == nil {
		t.Fatalf("expected invalid status to fail validation")
	}

	agent.Status = AgentStatusPaused
	agent.TriggerType = "webhook"
	if err := agent.Validate(); err == nil {
		t.Fatalf("expected invalid trigger type to fail validation")
	}
}
