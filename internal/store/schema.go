package store

// schema is applied idempotently on Open via CREATE TABLE/INDEX IF NOT
// EXISTS. Surrogate bigserial IDs back the tables that other rows point
// at (repos, packages, ...) so Go code can carry a single int64 foreign
// key instead of composite natural keys; child tables such as
// dependencies, so_deps and file_entries key on package_id instead. The
// natural keys from spec.md §3 are preserved as UNIQUE constraints.
const schema = `
CREATE TABLE IF NOT EXISTS repos (
	id           bigserial PRIMARY KEY,
	name         text NOT NULL UNIQUE,
	path         text NOT NULL,
	testing      smallint NOT NULL DEFAULT 0,
	branch       text NOT NULL,
	component    text NOT NULL,
	architecture text NOT NULL,
	mtime        bigint NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS packages (
	id             bigserial PRIMARY KEY,
	package        text NOT NULL,
	version        text NOT NULL,
	repo_id        bigint NOT NULL REFERENCES repos(id) ON DELETE CASCADE DEFERRABLE INITIALLY DEFERRED,
	architecture   text NOT NULL,
	filename       text NOT NULL,
	size           bigint NOT NULL,
	sha256         text NOT NULL,
	mtime          bigint NOT NULL,
	debtime        bigint,
	section        text NOT NULL DEFAULT 'unknown',
	installed_size bigint NOT NULL DEFAULT 0,
	maintainer     text NOT NULL DEFAULT '',
	description    text NOT NULL DEFAULT '',
	vercomp        text NOT NULL,
	features       text NOT NULL DEFAULT '',
	first_seen     timestamptz NOT NULL DEFAULT now(),
	last_seen      timestamptz NOT NULL DEFAULT now(),
	UNIQUE (package, version, repo_id)
);
CREATE INDEX IF NOT EXISTS packages_repo_idx ON packages(repo_id);
CREATE INDEX IF NOT EXISTS packages_sha256_idx ON packages(sha256);
CREATE INDEX IF NOT EXISTS packages_filename_idx ON packages(filename);

CREATE TABLE IF NOT EXISTS package_duplicates (
	id             bigserial PRIMARY KEY,
	package        text NOT NULL,
	version        text NOT NULL,
	repo_id        bigint NOT NULL REFERENCES repos(id) ON DELETE CASCADE DEFERRABLE INITIALLY DEFERRED,
	architecture   text NOT NULL,
	filename       text NOT NULL UNIQUE,
	size           bigint NOT NULL,
	sha256         text NOT NULL,
	mtime          bigint NOT NULL,
	debtime        bigint,
	section        text NOT NULL DEFAULT 'unknown',
	installed_size bigint NOT NULL DEFAULT 0,
	maintainer     text NOT NULL DEFAULT '',
	description    text NOT NULL DEFAULT '',
	vercomp        text NOT NULL,
	features       text NOT NULL DEFAULT '',
	first_seen     timestamptz NOT NULL DEFAULT now(),
	last_seen      timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS dependencies (
	package_id   bigint NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
	relationship text NOT NULL,
	value        text NOT NULL,
	PRIMARY KEY (package_id, relationship)
);

CREATE TABLE IF NOT EXISTS so_deps (
	package_id bigint NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
	depends    boolean NOT NULL,
	name       text NOT NULL,
	ver        text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS so_deps_name_idx ON so_deps(name);
CREATE INDEX IF NOT EXISTS so_deps_package_idx ON so_deps(package_id);

CREATE TABLE IF NOT EXISTS file_entries (
	package_id bigint NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
	path       text NOT NULL,
	name       text NOT NULL,
	size       bigint NOT NULL,
	ftype      smallint NOT NULL,
	perm       bigint NOT NULL,
	uid        integer NOT NULL,
	gid        integer NOT NULL,
	uname      text NOT NULL DEFAULT '',
	gname      text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS file_entries_package_idx ON file_entries(package_id);

CREATE TABLE IF NOT EXISTS issues (
	id       bigserial PRIMARY KEY,
	package  text NOT NULL,
	version  text NOT NULL,
	repo     text NOT NULL,
	errno    integer NOT NULL,
	filename text NOT NULL,
	level    text NOT NULL,
	ctime    timestamptz NOT NULL DEFAULT now(),
	mtime    timestamptz NOT NULL DEFAULT now(),
	atime    timestamptz NOT NULL DEFAULT now(),
	detail   jsonb NOT NULL DEFAULT '{}',
	UNIQUE (package, version, repo, errno, filename)
);

CREATE TABLE IF NOT EXISTS db_sync (
	name       text PRIMARY KEY,
	updated_at timestamptz NOT NULL,
	etag       text NOT NULL DEFAULT ''
);

-- package_dependencies is populated by the out-of-scope abbs-meta/piss
-- sync collaborator (spec.md §1's "auxiliary sync of externally
-- maintained tables"); so_breaks_dep joins against it to fold in
-- source-level build/package dependency edges alongside SO-break
-- edges. p-vector itself never writes this table.
CREATE TABLE IF NOT EXISTS package_dependencies (
	package      text NOT NULL,
	dep_package  text NOT NULL,
	relationship text NOT NULL
);
CREATE INDEX IF NOT EXISTS package_dependencies_package_idx ON package_dependencies(package);

-- Derived relations (§4.5): each is fully rebuilt by internal/materialize
-- under a shadow name and swapped into place, so the tables here only
-- need to exist with the right shape, not carry data invariants of
-- their own.
CREATE TABLE IF NOT EXISTS latest (
	repo_id    bigint NOT NULL REFERENCES repos(id) ON DELETE CASCADE,
	package    text NOT NULL,
	package_id bigint NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
	PRIMARY KEY (repo_id, package)
);

CREATE TABLE IF NOT EXISTS ranked (
	repo_id    bigint NOT NULL REFERENCES repos(id) ON DELETE CASCADE,
	package    text NOT NULL,
	package_id bigint NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
	rank       integer NOT NULL
);
CREATE INDEX IF NOT EXISTS ranked_repo_package_idx ON ranked(repo_id, package);

CREATE TABLE IF NOT EXISTS parsed_deps (
	package_id  bigint NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
	relationship text NOT NULL,
	nr          integer NOT NULL,
	deppkg      text NOT NULL,
	deparch     text NOT NULL DEFAULT '',
	relop       text NOT NULL DEFAULT '',
	depver      text NOT NULL DEFAULT '',
	depvercomp  text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS parsed_deps_deppkg_idx ON parsed_deps(deppkg);

CREATE TABLE IF NOT EXISTS so_breaks (
	provider_pkg  text NOT NULL,
	provider_repo text NOT NULL,
	soname        text NOT NULL,
	sover         text NOT NULL,
	consumer_pkg  text NOT NULL,
	consumer_repo text NOT NULL,
	consumer_ver  text NOT NULL,
	sodepver      text NOT NULL
);
CREATE INDEX IF NOT EXISTS so_breaks_provider_idx ON so_breaks(provider_pkg, provider_repo);

CREATE TABLE IF NOT EXISTS so_breaks_dep (
	package     text NOT NULL,
	dep_package text NOT NULL
);
CREATE INDEX IF NOT EXISTS so_breaks_dep_package_idx ON so_breaks_dep(package);
`
