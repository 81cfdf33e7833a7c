// Package store persists scene documents in a SQLite file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/f3rmion/posekit/internal/scene"

	_ "modernc.org/sqlite"
)

var (
	// ErrEmptyDocument is returned by Load when the document holds no scene yet.
	ErrEmptyDocument = errors.New("scene document is empty")
	// ErrNotFound is returned by OpenExisting when no document exists at the path.
	ErrNotFound = errors.New("scene document not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS objects (
	position     INTEGER PRIMARY KEY,
	id           TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL UNIQUE,
	type         TEXT NOT NULL,
	location     TEXT NOT NULL,
	rotation     TEXT NOT NULL,
	properties   TEXT NOT NULL DEFAULT '{}',
	lens         REAL NOT NULL DEFAULT 0,
	sensor_width REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bones (
	object_id     TEXT NOT NULL REFERENCES objects(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	name          TEXT NOT NULL,
	parent        TEXT NOT NULL DEFAULT '',
	head          TEXT NOT NULL,
	tail          TEXT NOT NULL,
	rotation_mode TEXT NOT NULL,
	quaternion    TEXT NOT NULL,
	euler         TEXT NOT NULL,
	location      TEXT NOT NULL,
	scale         TEXT NOT NULL,
	properties    TEXT NOT NULL DEFAULT '{}',
	constraints   TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (object_id, position),
	CONSTRAINT uq_bone_name UNIQUE (object_id, name)
);
`

// Store is an open scene document.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// OpenExisting is Open without creating the document, so a mistyped path
// leaves nothing behind.
func OpenExisting(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing scene DSN: %w", err)
	}
	if path := documentPath(driverDSN); path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return nil, fmt.Errorf("checking scene document: %w", err)
		}
	}
	return Open(ctx, dsn, logger)
}

// Open opens (creating if needed) the scene document at dsn. dsn is a file
// path or a sqlite:// URL.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing scene DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening scene document: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging scene document: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating scene schema: %w", err)
	}

	path := documentPath(driverDSN)
	logger.Debug("opened scene document", zap.String("path", path))
	return &Store{db: db, path: path, logger: logger}, nil
}

// Path returns the document's file path.
func (s *Store) Path() string { return s.path }

// Close closes the document.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored scene with sc in a single transaction.
func (s *Store) Save(ctx context.Context, sc *scene.Scene) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM bones", "DELETE FROM objects", "DELETE FROM meta"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing scene: %w", err)
		}
	}

	render, err := json.Marshal(sc.Settings)
	if err != nil {
		return fmt.Errorf("encoding render settings: %w", err)
	}
	meta := map[string]string{
		"camera": sc.Camera,
		"render": string(render),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing meta %s: %w", k, err)
		}
	}

	for i, o := range sc.Objects() {
		if err := insertObject(ctx, tx, i, o); err != nil {
			return fmt.Errorf("saving object %s: %w", o.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing scene: %w", err)
	}
	s.logger.Debug("saved scene", zap.String("path", s.path), zap.Int("objects", len(sc.Objects())))
	return nil
}

func insertObject(ctx context.Context, tx *sql.Tx, position int, o *scene.Object) error {
	props, err := marshal(o.Props)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
	INSERT INTO objects (position, id, name, type, location, rotation, properties, lens, sensor_width)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		position, o.ID, o.Name, string(o.Type),
		mustVec(o.Location), mustVec(o.Rotation), props, o.Lens, o.SensorWidth,
	)
	if err != nil {
		return fmt.Errorf("inserting object: %w", err)
	}

	if o.Armature == nil {
		return nil
	}
	for i, b := range o.Armature.Bones() {
		props, err := marshal(b.Props)
		if err != nil {
			return err
		}
		constraints, err := marshal(b.Constraints)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO bones (object_id, position, name, parent, head, tail, rotation_mode,
			quaternion, euler, location, scale, properties, constraints)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, i, b.Name, b.Parent, mustVec(b.Head), mustVec(b.Tail), string(b.RotationMode),
			mustQuat(b.Quaternion), mustVec(b.Euler), mustVec(b.Location), mustVec(b.Scale),
			props, constraints,
		)
		if err != nil {
			return fmt.Errorf("inserting bone %s: %w", b.Name, err)
		}
	}
	return nil
}

// Load reads the stored scene.
func (s *Store) Load(ctx context.Context) (*scene.Scene, error) {
	sc := scene.New(s.path)

	meta, err := s.loadMeta(ctx)
	if err != nil {
		return nil, err
	}
	if len(meta) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, s.path)
	}
	if v, ok := meta["camera"]; ok {
		sc.Camera = v
	}
	if v, ok := meta["render"]; ok {
		if err := json.Unmarshal([]byte(v), &sc.Settings); err != nil {
			return nil, fmt.Errorf("decoding render settings: %w", err)
		}
	}

	objects, err := s.loadObjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range objects {
		if o.Type == scene.TypeArmature {
			if err := s.loadBones(ctx, o); err != nil {
				return nil, fmt.Errorf("loading bones of %s: %w", o.Name, err)
			}
		}
		if err := sc.AddObject(o); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("loaded scene", zap.String("path", s.path), zap.Int("objects", len(objects)))
	return sc, nil
}

func (s *Store) loadMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meta: %w", err)
	}
	return meta, nil
}

func (s *Store) loadObjects(ctx context.Context) ([]*scene.Object, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, name, type, location, rotation, properties, lens, sensor_width
	FROM objects ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	var objects []*scene.Object
	for rows.Next() {
		var (
			id, name, typ, loc, rot, props string
			lens, sensor                   float64
		)
		if err := rows.Scan(&id, &name, &typ, &loc, &rot, &props, &lens, &sensor); err != nil {
			return nil, fmt.Errorf("scanning object: %w", err)
		}

		o := scene.NewObject(name, scene.ObjectType(typ))
		o.ID = id
		o.Lens = lens
		o.SensorWidth = sensor
		if err := unmarshalAll(
			field{loc, &o.Location},
			field{rot, &o.Rotation},
			field{props, &o.Props},
		); err != nil {
			return nil, fmt.Errorf("decoding object %s: %w", name, err)
		}
		objects = append(objects, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating objects: %w", err)
	}
	return objects, nil
}

func (s *Store) loadBones(ctx context.Context, o *scene.Object) error {
	rows, err := s.db.QueryContext(ctx, `
	SELECT name, parent, head, tail, rotation_mode, quaternion, euler, location, scale, properties, constraints
	FROM bones WHERE object_id = ? ORDER BY position`, o.ID)
	if err != nil {
		return fmt.Errorf("query bones: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, parent, mode                                string
			head, tail, quat, euler, loc, scale, props, constr string
		)
		if err := rows.Scan(&name, &parent, &head, &tail, &mode, &quat, &euler, &loc, &scale, &props, &constr); err != nil {
			return fmt.Errorf("scanning bone: %w", err)
		}

		b := &scene.Bone{Name: name, Parent: parent, RotationMode: scene.RotationMode(mode)}
		if err := unmarshalAll(
			field{head, &b.Head},
			field{tail, &b.Tail},
			field{quat, &b.Quaternion},
			field{euler, &b.Euler},
			field{loc, &b.Location},
			field{scale, &b.Scale},
			field{props, &b.Props},
			field{constr, &b.Constraints},
		); err != nil {
			return fmt.Errorf("decoding bone %s: %w", name, err)
		}
		if err := o.Armature.AddBone(b); err != nil {
			return err
		}
	}
	return rows.Err()
}

type field struct {
	raw string
	dst any
}

func unmarshalAll(fields ...field) error {
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return err
		}
	}
	return nil
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding column: %w", err)
	}
	return string(data), nil
}

func mustVec(v scene.Vec3) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func mustQuat(q scene.Quat) string {
	data, _ := json.Marshal(q)
	return string(data)
}
