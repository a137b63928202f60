package cmd

import "testing"

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"ingest", "ask", "chat", "status", "clear", "version"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRootDefaultsToChat(t *testing.T) {
	if rootCmd.RunE == nil {
		t.Fatal("root command has no RunE")
	}
	if rootCmd.Use != "docubot" {
		t.Errorf("Use = %q, want %q", rootCmd.Use, "docubot")
	}
}
