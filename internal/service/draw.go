package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/sparhub/backend/internal/allocation"
	"github.com/sparhub/backend/internal/db"
	"github.com/sparhub/backend/internal/milp"
	"github.com/sparhub/backend/internal/models"
	"github.com/sparhub/backend/internal/notify"
)

var (
	ErrDraftPending = errors.New("draft draw is still being generated")
	ErrQueueFull    = errors.New("draw queue is full")
)

// CapacityError means the signup pool cannot form a legal draw. It is the
// user's problem to fix, not an internal failure.
type CapacityError struct {
	Reason string
}

func (e *CapacityError) Error() string { return e.Reason }

// CheckCapacity rejects pools no allocation can satisfy: fewer than four
// speakers, or too few judges to panel every room the speaker-only crowd
// forces open.
func CheckCapacity(signups []models.Signup) error {
	var speakers, judges, onlySpeakers int
	for _, su := range signups {
		if su.AsSpeaker {
			speakers++
		}
		if su.AsJudge {
			judges++
		}
		if su.AsSpeaker && !su.AsJudge {
			onlySpeakers++
		}
	}
	if speakers < 4 {
		return &CapacityError{Reason: fmt.Sprintf("need at least 4 speakers, have %d", speakers)}
	}
	if judges*8 < onlySpeakers {
		return &CapacityError{Reason: fmt.Sprintf("%d judges cannot cover %d speakers; ask more members to judge", judges, onlySpeakers)}
	}
	return nil
}

type drawJob struct {
	draftID       int64
	draftPublicID string
	signups       map[int64]allocation.Signup
	ratings       map[int64]float64
}

type DrawService struct {
	Store    *db.Store
	Notifier notify.Notifier
	Logger   zerolog.Logger
	Weights  allocation.Weights
	Solver   milp.Options
	LinkTTL  time.Duration

	jobs chan drawJob
}

func NewDrawService(store *db.Store, notifier notify.Notifier, logger zerolog.Logger, weights allocation.Weights, solver milp.Options, linkTTL time.Duration) *DrawService {
	return &DrawService{
		Store:    store,
		Notifier: notifier,
		Logger:   logger,
		Weights:  weights,
		Solver:   solver,
		LinkTTL:  linkTTL,
		jobs:     make(chan drawJob, 16),
	}
}

// Start launches the allocation workers. They stop when ctx is cancelled.
func (s *DrawService) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go s.worker(ctx, i)
	}
}

func (s *DrawService) worker(ctx context.Context, id int) {
	log := s.Logger.With().Int("worker", id).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.run(ctx, log, job)
		}
	}
}

// Generate snapshots the spar's signups, checks capacity, and queues a
// background solve. The returned draft is Pending until the worker
// publishes its data; callers poll for it.
func (s *DrawService) Generate(ctx context.Context, spar models.Spar) (models.DraftDraw, error) {
	signups, err := s.Store.ListSignups(ctx, spar.ID)
	if err != nil {
		return models.DraftDraw{}, err
	}
	if err := CheckCapacity(signups); err != nil {
		return models.DraftDraw{}, err
	}
	ratings, err := SeriesRatings(ctx, s.Store, spar.SeriesID)
	if err != nil {
		return models.DraftDraw{}, err
	}

	draft, err := s.Store.CreateDraftDraw(ctx, spar.ID)
	if err != nil {
		return models.DraftDraw{}, err
	}

	job := drawJob{
		draftID:       draft.ID,
		draftPublicID: draft.PublicID,
		signups:       toAllocationSignups(signups),
		ratings:       ratings,
	}
	if err := s.enqueue(job); err != nil {
		// a draft no worker will ever fill must not linger as pending
		if delErr := s.Store.DeleteDraftDraw(ctx, draft.ID); delErr != nil {
			s.Logger.Warn().Err(delErr).Str("draft", draft.PublicID).Msg("could not delete unqueued draft")
		}
		return models.DraftDraw{}, err
	}
	return draft, nil
}

func (s *DrawService) enqueue(job drawJob) error {
	select {
	case s.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *DrawService) run(ctx context.Context, log zerolog.Logger, job drawJob) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("draft", job.draftPublicID).Interface("panic", r).Msg("allocation panicked, draft left pending")
		}
	}()

	start := time.Now()
	problem := allocation.BuildProblem(job.signups, job.ratings, s.Weights)
	assignments, err := problem.Solve(s.Solver)
	if err != nil {
		log.Error().Err(err).Str("draft", job.draftPublicID).Msg("allocation failed, draft left pending")
		return
	}

	draw := allocation.ReconstructRooms(assignments)
	if err := allocation.ValidateDraw(job.signups, assignments, draw); err != nil {
		log.Error().Err(err).Str("draft", job.draftPublicID).Msg("solver produced an invalid draw")
		return
	}

	data, err := json.Marshal(draw)
	if err != nil {
		log.Error().Err(err).Str("draft", job.draftPublicID).Msg("draw serialization failed")
		return
	}
	ok, err := s.Store.SetDraftDrawData(ctx, job.draftID, data)
	if err != nil {
		log.Error().Err(err).Str("draft", job.draftPublicID).Msg("draft publish failed")
		return
	}
	if !ok {
		log.Warn().Str("draft", job.draftPublicID).Msg("draft already published")
		return
	}
	log.Info().
		Str("draft", job.draftPublicID).
		Int("rooms", len(draw)).
		Int("participants", len(job.signups)).
		Dur("elapsed", time.Since(start)).
		Msg("draft draw ready")
}

func toAllocationSignups(signups []models.Signup) map[int64]allocation.Signup {
	out := make(map[int64]allocation.Signup, len(signups))
	for _, su := range signups {
		out[su.MemberID] = allocation.Signup{
			MemberID:          su.MemberID,
			AsJudge:           su.AsJudge,
			AsSpeaker:         su.AsSpeaker,
			PartnerPreference: su.PartnerPreference,
		}
	}
	return out
}

// Confirm makes a Ready draft the spar's actual draw. The previous rooms
// are replaced in one transaction and every panellist gets a fresh ballot
// link. Notification happens after commit and is best-effort.
func (s *DrawService) Confirm(ctx context.Context, spar models.Spar, draft models.DraftDraw) ([]models.BallotLink, error) {
	if draft.SparID != spar.ID {
		return nil, errors.New("draft does not belong to this spar")
	}
	if !draft.Ready() {
		return nil, ErrDraftPending
	}

	var draw allocation.Draw
	if err := json.Unmarshal(draft.Data, &draw); err != nil {
		return nil, fmt.Errorf("corrupt draft data: %w", err)
	}

	labels := make([]int, 0, len(draw))
	for label := range draw {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	expiresAt := time.Now().UTC().Add(s.LinkTTL)
	var links []models.BallotLink
	err := s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		links = links[:0]
		if err := s.Store.DeleteSparRooms(ctx, tx, spar.ID); err != nil {
			return err
		}
		for i, label := range labels {
			room := draw[label]
			roomID, err := s.Store.InsertRoom(ctx, tx, spar.ID, strconv.Itoa(i+1))
			if err != nil {
				return err
			}
			for _, slot := range allocation.Slots() {
				teamID, err := s.Store.InsertTeam(ctx, tx, roomID, slot.String())
				if err != nil {
					return err
				}
				for _, memberID := range room.Teams[slot] {
					if err := s.Store.InsertSpeaker(ctx, tx, teamID, memberID); err != nil {
						return err
					}
				}
			}
			for _, memberID := range room.Panel {
				if err := s.Store.InsertAdjudicator(ctx, tx, roomID, memberID); err != nil {
					return err
				}
				link := models.BallotLink{
					Key:       uuid.NewString(),
					RoomID:    roomID,
					MemberID:  memberID,
					ExpiresAt: expiresAt,
				}
				if err := s.Store.InsertBallotLink(ctx, tx, link); err != nil {
					return err
				}
				links = append(links, link)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, link := range links {
		recipient, err := s.Store.GetMember(ctx, spar.SeriesID, link.MemberID)
		if err != nil {
			s.Logger.Warn().Err(err).Int64("member", link.MemberID).Msg("ballot link recipient lookup failed")
			continue
		}
		if err := s.Notifier.SendBallotLink(ctx, recipient, link); err != nil {
			s.Logger.Warn().Err(err).Int64("member", link.MemberID).Msg("ballot link notification failed")
		}
	}
	return links, nil
}
