package domain

import "testing"

func TestParseAction(t *testing.T) {
	tests := []struct {
		input    string
		expected ActionType
	}{
		{"MOVE", ActionMove},
		{"move", ActionMove},
		{"Move", ActionMove},
		{"ATTACK", ActionAttack},
		{"SKILL", ActionSkill},
		{"talk_npc", ActionTalkNPC},
		{"REGISTER", ActionRegister},
		{"WAIT", ActionUnknown},
		{"", ActionUnknown},
	}

	for _, tt := range tests {
		result := ParseAction(tt.input)
		if result != tt.expected {
			t.Errorf("ParseAction(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}

func TestActionType_String(t *testing.T) {
	tests := []struct {
		action   ActionType
		expected string
	}{
		{ActionMove, "MOVE"},
		{ActionTalkNPC, "TALK_NPC"},
		{ActionUnknown, "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.action.String(); got != tt.expected {
			t.Errorf("ActionType(%d).String() = %q, want %q", tt.action, got, tt.expected)
		}
	}
}

func TestActionType_IsHandshake(t *testing.T) {
	for _, a := range []ActionType{ActionRegister, ActionLogin, ActionInit} {
		if !a.IsHandshake() {
			t.Errorf("%v should open a session", a)
		}
	}
	for _, a := range []ActionType{ActionMove, ActionChat, ActionUnknown} {
		if a.IsHandshake() {
			t.Errorf("%v must not open a session", a)
		}
	}
}
