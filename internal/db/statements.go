package db

// Prepared statement names. The store executes these by name.
const (
	StmtHealthCheck = "health_check"

	StmtLeagueByName = "league_by_name"
	StmtLeagueInsert = "league_insert"
	StmtLeagueUpsert = "league_upsert"

	StmtClubByName = "club_by_name"
	StmtClubInsert = "club_insert"
	StmtClubUpsert = "club_upsert"

	StmtTransferUpsert = "transfer_upsert"
	StmtTransferCount  = "transfer_count"
)

var statements = map[string]string{
	StmtHealthCheck: "SELECT 1",

	// Leagues: exact name lookup for the resolver, plain insert for leagues
	// discovered in the transfers file, upsert by API id for seeding.
	StmtLeagueByName: `
		SELECT id, api_id, name, type, country_code, season, logo
		FROM leagues WHERE name = $1 ORDER BY id LIMIT 1`,
	StmtLeagueInsert: `
		INSERT INTO leagues (name, type, country_code)
		VALUES ($1, $2, $3)
		RETURNING id`,
	StmtLeagueUpsert: `
		INSERT INTO leagues (api_id, name, type, country_code, season, logo)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (api_id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			country_code = EXCLUDED.country_code,
			season = COALESCE(EXCLUDED.season, leagues.season),
			logo = EXCLUDED.logo,
			updated_at = NOW()
		RETURNING id`,

	// Clubs
	StmtClubByName: `
		SELECT id, api_id, name, short_code, country_code, league_id, founded,
		       logo, venue_name, venue_city, venue_capacity
		FROM clubs WHERE name = $1 ORDER BY id LIMIT 1`,
	StmtClubInsert: `
		INSERT INTO clubs (name, country_code, league_id)
		VALUES ($1, $2, $3)
		RETURNING id`,
	StmtClubUpsert: `
		INSERT INTO clubs (api_id, name, short_code, country_code, league_id, founded,
		                   logo, venue_name, venue_city, venue_capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (api_id) DO UPDATE SET
			name = EXCLUDED.name,
			short_code = EXCLUDED.short_code,
			country_code = EXCLUDED.country_code,
			league_id = COALESCE(EXCLUDED.league_id, clubs.league_id),
			founded = EXCLUDED.founded,
			logo = EXCLUDED.logo,
			venue_name = EXCLUDED.venue_name,
			venue_city = EXCLUDED.venue_city,
			venue_capacity = EXCLUDED.venue_capacity,
			updated_at = NOW()
		RETURNING id`,

	// Transfers: keyed by the caller-computed stable id. xmax = 0 only for a
	// freshly inserted tuple.
	StmtTransferUpsert: `
		INSERT INTO transfers (
			id, player_first_name, player_last_name, player_name, age, position, nationality,
			from_club_id, from_club_name, departed_country,
			to_club_id, to_club_name, joined_country,
			league_id, league_name, transfer_type, fee_minor, fee_display,
			market_value_display, status, transfer_date, window_label, source_page)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			player_first_name = EXCLUDED.player_first_name,
			player_last_name = EXCLUDED.player_last_name,
			player_name = EXCLUDED.player_name,
			age = EXCLUDED.age,
			position = EXCLUDED.position,
			nationality = EXCLUDED.nationality,
			from_club_id = EXCLUDED.from_club_id,
			from_club_name = EXCLUDED.from_club_name,
			departed_country = EXCLUDED.departed_country,
			to_club_id = EXCLUDED.to_club_id,
			to_club_name = EXCLUDED.to_club_name,
			joined_country = EXCLUDED.joined_country,
			league_id = EXCLUDED.league_id,
			league_name = EXCLUDED.league_name,
			transfer_type = EXCLUDED.transfer_type,
			fee_minor = EXCLUDED.fee_minor,
			fee_display = EXCLUDED.fee_display,
			market_value_display = EXCLUDED.market_value_display,
			status = EXCLUDED.status,
			transfer_date = EXCLUDED.transfer_date,
			window_label = EXCLUDED.window_label,
			source_page = EXCLUDED.source_page,
			updated_at = NOW()
		RETURNING (xmax = 0) AS inserted`,
	StmtTransferCount: "SELECT COUNT(*) FROM transfers",
}
