package postgres

// schema is applied on every open; every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS wb_tables (
	name              TEXT PRIMARY KEY,
	position          BIGINT GENERATED ALWAYS AS IDENTITY,
	header            TEXT[] NOT NULL,
	header_background TEXT NOT NULL DEFAULT '',
	header_font_color TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS wb_cells (
	table_name TEXT NOT NULL REFERENCES wb_tables(name) ON DELETE CASCADE,
	row_num    INT  NOT NULL,
	col_num    INT  NOT NULL,
	value      TEXT NOT NULL DEFAULT '',
	background TEXT NOT NULL DEFAULT '',
	font_color TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (table_name, row_num, col_num)
);

CREATE TABLE IF NOT EXISTS wb_rules (
	table_name TEXT  NOT NULL REFERENCES wb_tables(name) ON DELETE CASCADE,
	col_num    INT   NOT NULL,
	rule       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (table_name, col_num)
);

CREATE TABLE IF NOT EXISTS wb_properties (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
