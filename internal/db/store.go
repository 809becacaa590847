package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sparhub/backend/internal/models"
)

var ErrNotFound = pgx.ErrNoRows

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateSeries(ctx context.Context, title string) (models.Series, error) {
	sr := models.Series{PublicID: uuid.NewString(), Title: title}
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO series (public_id, title) VALUES ($1, $2) RETURNING id, created_at`,
		sr.PublicID, sr.Title).Scan(&sr.ID, &sr.CreatedAt)
	return sr, err
}

func (s *Store) GetSeries(ctx context.Context, publicID string) (models.Series, error) {
	var sr models.Series
	err := s.Pool.QueryRow(ctx,
		`SELECT id, public_id, title, created_at FROM series WHERE public_id = $1`,
		publicID).Scan(&sr.ID, &sr.PublicID, &sr.Title, &sr.CreatedAt)
	return sr, err
}

func (s *Store) CreateMember(ctx context.Context, seriesID int64, name, email string) (models.Member, error) {
	m := models.Member{SeriesID: seriesID, Name: name, Email: email}
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO members (series_id, name, email) VALUES ($1, $2, $3) RETURNING id`,
		seriesID, name, email).Scan(&m.ID)
	return m, err
}

func (s *Store) ListMembers(ctx context.Context, seriesID int64) ([]models.Member, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, series_id, name, email FROM members WHERE series_id = $1 ORDER BY id ASC`,
		seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.SeriesID, &m.Name, &m.Email); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMember(ctx context.Context, seriesID, memberID int64) (models.Member, error) {
	var m models.Member
	err := s.Pool.QueryRow(ctx,
		`SELECT id, series_id, name, email FROM members WHERE series_id = $1 AND id = $2`,
		seriesID, memberID).Scan(&m.ID, &m.SeriesID, &m.Name, &m.Email)
	return m, err
}

func (s *Store) CreateSpar(ctx context.Context, seriesID int64) (models.Spar, error) {
	sp := models.Spar{PublicID: uuid.NewString(), SeriesID: seriesID, IsOpen: true}
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO spars (public_id, series_id) VALUES ($1, $2) RETURNING id, created_at`,
		sp.PublicID, seriesID).Scan(&sp.ID, &sp.CreatedAt)
	return sp, err
}

func (s *Store) GetSpar(ctx context.Context, publicID string) (models.Spar, error) {
	var sp models.Spar
	err := s.Pool.QueryRow(ctx,
		`SELECT id, public_id, series_id, is_open, release_draw, created_at FROM spars WHERE public_id = $1`,
		publicID).Scan(&sp.ID, &sp.PublicID, &sp.SeriesID, &sp.IsOpen, &sp.ReleaseDraw, &sp.CreatedAt)
	return sp, err
}

func (s *Store) ListSpars(ctx context.Context, seriesID int64) ([]models.Spar, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, public_id, series_id, is_open, release_draw, created_at FROM spars WHERE series_id = $1 ORDER BY created_at DESC`,
		seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Spar
	for rows.Next() {
		var sp models.Spar
		if err := rows.Scan(&sp.ID, &sp.PublicID, &sp.SeriesID, &sp.IsOpen, &sp.ReleaseDraw, &sp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// SetSparOpen flips signups open or closed. Reopening hides any released
// draw again, since the allocation is about to go stale.
func (s *Store) SetSparOpen(ctx context.Context, sparID int64, open bool) error {
	if open {
		_, err := s.Pool.Exec(ctx,
			`UPDATE spars SET is_open = TRUE, release_draw = FALSE WHERE id = $1`, sparID)
		return err
	}
	_, err := s.Pool.Exec(ctx, `UPDATE spars SET is_open = FALSE WHERE id = $1`, sparID)
	return err
}

func (s *Store) SetReleaseDraw(ctx context.Context, sparID int64, released bool) error {
	_, err := s.Pool.Exec(ctx, `UPDATE spars SET release_draw = $1 WHERE id = $2`, released, sparID)
	return err
}

func (s *Store) UpsertSignup(ctx context.Context, su models.Signup) (models.Signup, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO signups (spar_id, member_id, as_judge, as_speaker, partner_preference)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (spar_id, member_id) DO UPDATE SET
			as_judge = EXCLUDED.as_judge,
			as_speaker = EXCLUDED.as_speaker,
			partner_preference = EXCLUDED.partner_preference
		RETURNING id
	`, su.SparID, su.MemberID, su.AsJudge, su.AsSpeaker, su.PartnerPreference).Scan(&su.ID)
	return su, err
}

func (s *Store) ListSignups(ctx context.Context, sparID int64) ([]models.Signup, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, spar_id, member_id, as_judge, as_speaker, partner_preference
		FROM signups WHERE spar_id = $1 ORDER BY member_id ASC
	`, sparID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Signup
	for rows.Next() {
		var su models.Signup
		if err := rows.Scan(&su.ID, &su.SparID, &su.MemberID, &su.AsJudge, &su.AsSpeaker, &su.PartnerPreference); err != nil {
			return nil, err
		}
		out = append(out, su)
	}
	return out, rows.Err()
}

func (s *Store) CreateDraftDraw(ctx context.Context, sparID int64) (models.DraftDraw, error) {
	d := models.DraftDraw{PublicID: uuid.NewString(), SparID: sparID}
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO draft_draws (public_id, spar_id, version)
		VALUES ($1, $2, (SELECT COALESCE(MAX(version), 0) + 1 FROM draft_draws WHERE spar_id = $2))
		RETURNING id, version, created_at
	`, d.PublicID, sparID).Scan(&d.ID, &d.Version, &d.CreatedAt)
	return d, err
}

func (s *Store) GetDraftDraw(ctx context.Context, publicID string) (models.DraftDraw, error) {
	var d models.DraftDraw
	var data []byte
	err := s.Pool.QueryRow(ctx, `
		SELECT id, public_id, spar_id, version, data, created_at
		FROM draft_draws WHERE public_id = $1
	`, publicID).Scan(&d.ID, &d.PublicID, &d.SparID, &d.Version, &data, &d.CreatedAt)
	d.Data = json.RawMessage(data)
	return d, err
}

// SetDraftDrawData publishes a solved draft. The data column is written at
// most once; a second write is a no-op and reports false.
func (s *Store) SetDraftDrawData(ctx context.Context, draftID int64, data []byte) (bool, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE draft_draws SET data = $1 WHERE id = $2 AND data IS NULL`, data, draftID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteDraftDraw removes a draft that will never be solved so it does not
// linger as forever pending.
func (s *Store) DeleteDraftDraw(ctx context.Context, draftID int64) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM draft_draws WHERE id = $1`, draftID)
	return err
}

func (s *Store) DeleteSparRooms(ctx context.Context, tx pgx.Tx, sparID int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM rooms WHERE spar_id = $1`, sparID)
	return err
}

func (s *Store) InsertRoom(ctx context.Context, tx pgx.Tx, sparID int64, label string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO rooms (spar_id, label) VALUES ($1, $2) RETURNING id`,
		sparID, label).Scan(&id)
	return id, err
}

func (s *Store) InsertTeam(ctx context.Context, tx pgx.Tx, roomID int64, position string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO teams (room_id, position) VALUES ($1, $2) RETURNING id`,
		roomID, position).Scan(&id)
	return id, err
}

func (s *Store) InsertSpeaker(ctx context.Context, tx pgx.Tx, teamID, memberID int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO speakers (team_id, member_id) VALUES ($1, $2)`, teamID, memberID)
	return err
}

func (s *Store) InsertAdjudicator(ctx context.Context, tx pgx.Tx, roomID, memberID int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO adjudicators (room_id, member_id) VALUES ($1, $2)`, roomID, memberID)
	return err
}

func (s *Store) InsertBallotLink(ctx context.Context, tx pgx.Tx, link models.BallotLink) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ballot_links (key, room_id, member_id, expires_at) VALUES ($1, $2, $3, $4)`,
		link.Key, link.RoomID, link.MemberID, link.ExpiresAt)
	return err
}

// DrawRoom is one room of a confirmed draw, assembled for display.
type DrawRoom struct {
	Label string             `json:"label"`
	Panel []int64            `json:"panel"`
	Teams map[string][]int64 `json:"teams"`
}

func (s *Store) GetDraw(ctx context.Context, sparID int64) ([]DrawRoom, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT r.id, r.label FROM rooms r WHERE r.spar_id = $1 ORDER BY r.label ASC
	`, sparID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roomIDs []int64
	var out []DrawRoom
	index := map[int64]int{}
	for rows.Next() {
		var id int64
		var label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, err
		}
		index[id] = len(out)
		roomIDs = append(roomIDs, id)
		out = append(out, DrawRoom{Label: label, Teams: map[string][]int64{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	adjRows, err := s.Pool.Query(ctx, `
		SELECT room_id, member_id FROM adjudicators WHERE room_id = ANY($1) ORDER BY member_id ASC
	`, roomIDs)
	if err != nil {
		return nil, err
	}
	defer adjRows.Close()
	for adjRows.Next() {
		var roomID, memberID int64
		if err := adjRows.Scan(&roomID, &memberID); err != nil {
			return nil, err
		}
		out[index[roomID]].Panel = append(out[index[roomID]].Panel, memberID)
	}
	if err := adjRows.Err(); err != nil {
		return nil, err
	}

	teamRows, err := s.Pool.Query(ctx, `
		SELECT t.room_id, t.position, sp.member_id
		FROM teams t JOIN speakers sp ON sp.team_id = t.id
		WHERE t.room_id = ANY($1) ORDER BY sp.member_id ASC
	`, roomIDs)
	if err != nil {
		return nil, err
	}
	defer teamRows.Close()
	for teamRows.Next() {
		var roomID int64
		var position string
		var memberID int64
		if err := teamRows.Scan(&roomID, &position, &memberID); err != nil {
			return nil, err
		}
		room := &out[index[roomID]]
		room.Teams[position] = append(room.Teams[position], memberID)
	}
	return out, teamRows.Err()
}

func (s *Store) GetRoomTeams(ctx context.Context, roomID int64) (map[string][]int64, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT t.position, sp.member_id
		FROM teams t JOIN speakers sp ON sp.team_id = t.id
		WHERE t.room_id = $1 ORDER BY sp.member_id ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := map[string][]int64{}
	for rows.Next() {
		var position string
		var memberID int64
		if err := rows.Scan(&position, &memberID); err != nil {
			return nil, err
		}
		teams[position] = append(teams[position], memberID)
	}
	return teams, rows.Err()
}

func (s *Store) GetBallotLink(ctx context.Context, key string) (models.BallotLink, error) {
	var l models.BallotLink
	err := s.Pool.QueryRow(ctx, `
		SELECT id, key, room_id, member_id, expires_at FROM ballot_links WHERE key = $1
	`, key).Scan(&l.ID, &l.Key, &l.RoomID, &l.MemberID, &l.ExpiresAt)
	return l, err
}

func (s *Store) CreateBallot(ctx context.Context, roomID, submittedBy int64, scoresheet []byte) (models.Ballot, error) {
	b := models.Ballot{RoomID: roomID, SubmittedBy: submittedBy, Scoresheet: scoresheet}
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO ballots (room_id, submitted_by, scoresheet) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, roomID, submittedBy, scoresheet).Scan(&b.ID, &b.CreatedAt)
	return b, err
}

// CanonicalBallot is the earliest ballot submitted for a room. Later ballots
// for the same room are kept but never scored.
type CanonicalBallot struct {
	RoomID     int64
	Scoresheet json.RawMessage
	CreatedAt  time.Time
}

// ListCanonicalBallots returns one ballot per adjudicated room across the
// whole series, in ascending order of submission. The rating model replays
// them in exactly this order.
func (s *Store) ListCanonicalBallots(ctx context.Context, seriesID int64) ([]CanonicalBallot, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT room_id, scoresheet, created_at FROM (
			SELECT DISTINCT ON (b.room_id) b.room_id, b.scoresheet, b.created_at
			FROM ballots b
			JOIN rooms r ON r.id = b.room_id
			JOIN spars sp ON sp.id = r.spar_id
			WHERE sp.series_id = $1
			ORDER BY b.room_id, b.created_at ASC, b.id ASC
		) canonical
		ORDER BY created_at ASC, room_id ASC
	`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CanonicalBallot
	for rows.Next() {
		var cb CanonicalBallot
		var sheet []byte
		if err := rows.Scan(&cb.RoomID, &sheet, &cb.CreatedAt); err != nil {
			return nil, err
		}
		cb.Scoresheet = json.RawMessage(sheet)
		out = append(out, cb)
	}
	return out, rows.Err()
}
