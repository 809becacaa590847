package service

import (
	"errors"
	"testing"

	"github.com/sparhub/backend/internal/models"
)

func roomTeams() map[string][]int64 {
	return map[string][]int64{
		"og": {1, 2},
		"oo": {3, 4},
		"cg": {5, 6},
		"co": {7, 8},
	}
}

func validSheet() models.Scoresheet {
	return models.Scoresheet{Teams: []models.ScoresheetTeam{
		{Position: "og", Speakers: []models.SpeakerScore{{MemberID: 1, Score: 78}, {MemberID: 2, Score: 76}}},
		{Position: "oo", Speakers: []models.SpeakerScore{{MemberID: 3, Score: 80}, {MemberID: 4, Score: 79}}},
		{Position: "cg", Speakers: []models.SpeakerScore{{MemberID: 5, Score: 72}, {MemberID: 6, Score: 74}}},
		{Position: "co", Speakers: []models.SpeakerScore{{MemberID: 7, Score: 81}, {MemberID: 8, Score: 75}}},
	}}
}

func TestValidateScoresheetAccepts(t *testing.T) {
	if err := validateScoresheet(validSheet(), roomTeams()); err != nil {
		t.Fatalf("valid scoresheet rejected: %v", err)
	}
}

func TestValidateScoresheetRejectsTies(t *testing.T) {
	sheet := validSheet()
	// og total 154, make co match it
	sheet.Teams[3].Speakers[0].Score = 78
	sheet.Teams[3].Speakers[1].Score = 76
	err := validateScoresheet(sheet, roomTeams())
	var be *BallotError
	if !errors.As(err, &be) {
		t.Fatalf("expected BallotError for tied totals, got %v", err)
	}
}

func TestValidateScoresheetRejectsScoreOutOfRange(t *testing.T) {
	for _, score := range []int64{49, 101, 0} {
		sheet := validSheet()
		sheet.Teams[0].Speakers[0].Score = score
		err := validateScoresheet(sheet, roomTeams())
		var be *BallotError
		if !errors.As(err, &be) {
			t.Fatalf("expected BallotError for score %d, got %v", score, err)
		}
	}
}

func TestValidateScoresheetRejectsWrongSpeaker(t *testing.T) {
	sheet := validSheet()
	sheet.Teams[0].Speakers[0].MemberID = 99
	err := validateScoresheet(sheet, roomTeams())
	var be *BallotError
	if !errors.As(err, &be) {
		t.Fatalf("expected BallotError for unknown speaker, got %v", err)
	}
}

func TestValidateScoresheetRejectsMissingTeam(t *testing.T) {
	sheet := validSheet()
	sheet.Teams = sheet.Teams[:3]
	err := validateScoresheet(sheet, roomTeams())
	var be *BallotError
	if !errors.As(err, &be) {
		t.Fatalf("expected BallotError for missing team, got %v", err)
	}
}

func TestValidateScoresheetRejectsDuplicatePosition(t *testing.T) {
	sheet := validSheet()
	sheet.Teams[3] = sheet.Teams[0]
	err := validateScoresheet(sheet, roomTeams())
	var be *BallotError
	if !errors.As(err, &be) {
		t.Fatalf("expected BallotError for duplicate position, got %v", err)
	}
}

func TestCheckCapacityTooFewSpeakers(t *testing.T) {
	signups := []models.Signup{
		{MemberID: 1, AsSpeaker: true},
		{MemberID: 2, AsSpeaker: true},
		{MemberID: 3, AsSpeaker: true},
		{MemberID: 4, AsJudge: true},
	}
	err := CheckCapacity(signups)
	var ce *CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
}

func TestCheckCapacityTooFewJudges(t *testing.T) {
	var signups []models.Signup
	for i := int64(1); i <= 9; i++ {
		signups = append(signups, models.Signup{MemberID: i, AsSpeaker: true})
	}
	err := CheckCapacity(signups)
	var ce *CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
}

func TestCheckCapacityDualRoleJudgesCount(t *testing.T) {
	// 8 speaker-only plus one willing to do either: the dual member can
	// judge while the rest fill one room
	var signups []models.Signup
	for i := int64(1); i <= 8; i++ {
		signups = append(signups, models.Signup{MemberID: i, AsSpeaker: true})
	}
	signups = append(signups, models.Signup{MemberID: 9, AsSpeaker: true, AsJudge: true})
	if err := CheckCapacity(signups); err != nil {
		t.Fatalf("capacity check should pass: %v", err)
	}
}
