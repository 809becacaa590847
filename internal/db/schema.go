package db

import (
	"context"
	"fmt"
)

// Bootstrap creates all tables. Safe to call multiple times.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS series (
    id BIGSERIAL PRIMARY KEY,
    public_id UUID NOT NULL UNIQUE,
    title TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    series_id BIGINT NOT NULL REFERENCES series(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    UNIQUE (series_id, email)
);

CREATE INDEX IF NOT EXISTS idx_members_series_id ON members(series_id);

CREATE TABLE IF NOT EXISTS spars (
    id BIGSERIAL PRIMARY KEY,
    public_id UUID NOT NULL UNIQUE,
    series_id BIGINT NOT NULL REFERENCES series(id) ON DELETE CASCADE,
    is_open BOOLEAN NOT NULL DEFAULT TRUE,
    release_draw BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_spars_series_id ON spars(series_id);

CREATE TABLE IF NOT EXISTS signups (
    id BIGSERIAL PRIMARY KEY,
    spar_id BIGINT NOT NULL REFERENCES spars(id) ON DELETE CASCADE,
    member_id BIGINT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
    as_judge BOOLEAN NOT NULL DEFAULT FALSE,
    as_speaker BOOLEAN NOT NULL DEFAULT FALSE,
    partner_preference BIGINT,
    UNIQUE (spar_id, member_id)
);

CREATE INDEX IF NOT EXISTS idx_signups_spar_id ON signups(spar_id);

CREATE TABLE IF NOT EXISTS draft_draws (
    id BIGSERIAL PRIMARY KEY,
    public_id UUID NOT NULL UNIQUE,
    spar_id BIGINT NOT NULL REFERENCES spars(id) ON DELETE CASCADE,
    version BIGINT NOT NULL,
    data JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (spar_id, version)
);

CREATE TABLE IF NOT EXISTS rooms (
    id BIGSERIAL PRIMARY KEY,
    spar_id BIGINT NOT NULL REFERENCES spars(id) ON DELETE CASCADE,
    label TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rooms_spar_id ON rooms(spar_id);

CREATE TABLE IF NOT EXISTS teams (
    id BIGSERIAL PRIMARY KEY,
    room_id BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    position TEXT NOT NULL CHECK (position IN ('og', 'oo', 'cg', 'co')),
    UNIQUE (room_id, position)
);

CREATE TABLE IF NOT EXISTS speakers (
    id BIGSERIAL PRIMARY KEY,
    team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    member_id BIGINT NOT NULL REFERENCES members(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS adjudicators (
    id BIGSERIAL PRIMARY KEY,
    room_id BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    member_id BIGINT NOT NULL REFERENCES members(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS ballot_links (
    id BIGSERIAL PRIMARY KEY,
    key UUID NOT NULL UNIQUE,
    room_id BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    member_id BIGINT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
    expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ballots (
    id BIGSERIAL PRIMARY KEY,
    room_id BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    submitted_by BIGINT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
    scoresheet JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (room_id, submitted_by)
);

CREATE INDEX IF NOT EXISTS idx_ballots_room_id ON ballots(room_id);
`
