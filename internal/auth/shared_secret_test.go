package auth

import "testing"

func TestGate_Disabled(t *testing.T) {
	t.Parallel()

	g := NewGate("")
	if g.Enabled() {
		t.Fatal("empty secret should disable the gate")
	}
	if !g.Allow("") || !g.Allow("anything") {
		t.Fatal("disabled gate must allow all requests")
	}
}

func TestGate_Enabled(t *testing.T) {
	t.Parallel()

	g := NewGate("hunter2")
	if !g.Enabled() {
		t.Fatal("gate should be enabled")
	}
	if !g.Allow("hunter2") {
		t.Fatal("correct secret rejected")
	}
	for _, bad := range []string{"", "hunter", "hunter22", "HUNTER2"} {
		if g.Allow(bad) {
			t.Fatalf("secret %q should be rejected", bad)
		}
	}
}
