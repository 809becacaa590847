package service

import (
	"encoding/json"
	"testing"

	"github.com/sparhub/backend/internal/models"
)

func TestRoomResultFromScoresheet(t *testing.T) {
	sheet := models.Scoresheet{Teams: []models.ScoresheetTeam{
		{Position: "co", Speakers: []models.SpeakerScore{{MemberID: 7, Score: 81}, {MemberID: 8, Score: 75}}},
		{Position: "og", Speakers: []models.SpeakerScore{{MemberID: 1, Score: 78}, {MemberID: 2, Score: 76}}},
		{Position: "oo", Speakers: []models.SpeakerScore{{MemberID: 3, Score: 80}, {MemberID: 4, Score: 79}}},
		{Position: "cg", Speakers: []models.SpeakerScore{{MemberID: 5, Score: 72}, {MemberID: 6, Score: 74}}},
	}}
	raw, err := json.Marshal(sheet)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	room, err := roomResultFromScoresheet(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// table order regardless of scoresheet order
	if got := room.Teams[0].Score; got != 154 {
		t.Fatalf("og total = %d, want 154", got)
	}
	if got := room.Teams[3].Score; got != 156 {
		t.Fatalf("co total = %d, want 156", got)
	}
	if len(room.Teams[1].Members) != 2 || room.Teams[1].Members[0] != 3 {
		t.Fatalf("oo members wrong: %v", room.Teams[1].Members)
	}
}

func TestRoomResultFromScoresheetRejectsBadPosition(t *testing.T) {
	sheet := models.Scoresheet{Teams: []models.ScoresheetTeam{
		{Position: "og"}, {Position: "oo"}, {Position: "cg"}, {Position: "pm"},
	}}
	raw, _ := json.Marshal(sheet)
	if _, err := roomResultFromScoresheet(raw); err == nil {
		t.Fatalf("expected error for unknown position")
	}
}

func TestToAllocationSignups(t *testing.T) {
	partner := int64(2)
	in := []models.Signup{
		{MemberID: 1, AsSpeaker: true, PartnerPreference: &partner},
		{MemberID: 2, AsSpeaker: true},
		{MemberID: 3, AsJudge: true},
	}
	out := toAllocationSignups(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 signups, got %d", len(out))
	}
	if out[1].PartnerPreference == nil || *out[1].PartnerPreference != 2 {
		t.Fatalf("partner preference not carried over: %+v", out[1])
	}
	if !out[3].AsJudge || out[3].AsSpeaker {
		t.Fatalf("judge flags wrong: %+v", out[3])
	}
}
