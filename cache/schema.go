package cache

var schema = []string{
	// version 1
	`
CREATE TABLE metadata (
  id integer primary key,
  schemaVersion integer
);

CREATE TABLE IF NOT EXISTS menu_cache (
  menu_url text not null,
  date text not null,
  payload text not null check (json_valid(payload)),
  created datetime default current_timestamp,
  UNIQUE (menu_url, date)
);

CREATE INDEX IF NOT EXISTS menu_cache_date ON menu_cache (date);

CREATE TABLE IF NOT EXISTS usage (
  timestamp datetime default current_timestamp,
  url text,
  lengthIn integer,
  lengthOut integer,
  tokensIn integer,
  tokensOut integer
);
	`,
}
