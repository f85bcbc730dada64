// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/env"
	"github.com/relabs-tech/flight_sensors/internal/imu"
)

const datalogSchema = `CREATE TABLE IF NOT EXISTS composite (
	id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
	seq INTEGER NOT NULL,
	start_ns INTEGER NOT NULL,
	end_ns INTEGER NOT NULL,
	samples INTEGER NOT NULL,
	ax REAL, ay REAL, az REAL,
	mx REAL, my REAL, mz REAL,
	gx REAL, gy REAL, gz REAL,
	temp_c REAL, pressure_hpa REAL, altitude_m REAL
)`

const datalogInsert = `INSERT INTO composite
	(seq, start_ns, end_ns, samples, ax, ay, az, mx, my, mz, gx, gy, gz, temp_c, pressure_hpa, altitude_m)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Datalog appends every composite to a SQLite table.
type Datalog struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// OpenDatalog opens or creates the database at path. ":memory:" works for
// throwaway logs.
func OpenDatalog(path string) (*Datalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("datalog: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases on one handle.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(datalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("datalog: create table: %w", err)
	}
	stmt, err := db.Prepare(datalogInsert)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("datalog: prepare insert: %w", err)
	}
	log.WithField("path", path).Info("datalog opened")
	return &Datalog{db: db, stmt: stmt}, nil
}

func (d *Datalog) Publish(c imu.Composite) error {
	var temp, press, alt sql.NullFloat64
	if c.Baro != nil {
		temp = sql.NullFloat64{Float64: c.Baro.Temperature, Valid: true}
		press = sql.NullFloat64{Float64: c.Baro.Pressure, Valid: true}
		alt = sql.NullFloat64{Float64: c.Baro.Altitude, Valid: true}
	}
	_, err := d.stmt.Exec(int64(c.Seq), c.Start.UnixNano(), c.End.UnixNano(), c.Samples,
		c.Accel.X, c.Accel.Y, c.Accel.Z,
		c.Mag.X, c.Mag.Y, c.Mag.Z,
		c.Gyro.X, c.Gyro.Y, c.Gyro.Z,
		temp, press, alt)
	if err != nil {
		return fmt.Errorf("datalog: insert seq %d: %w", c.Seq, err)
	}
	return nil
}

// Recent returns up to n composites, newest first.
func (d *Datalog) Recent(n int) ([]imu.Composite, error) {
	rows, err := d.db.Query(`SELECT seq, start_ns, end_ns, samples, ax, ay, az, mx, my, mz, gx, gy, gz,
		temp_c, pressure_hpa, altitude_m FROM composite ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("datalog: query: %w", err)
	}
	defer rows.Close()

	var out []imu.Composite
	for rows.Next() {
		var c imu.Composite
		var seq, start, end int64
		var temp, press, alt sql.NullFloat64
		if err := rows.Scan(&seq, &start, &end, &c.Samples,
			&c.Accel.X, &c.Accel.Y, &c.Accel.Z,
			&c.Mag.X, &c.Mag.Y, &c.Mag.Z,
			&c.Gyro.X, &c.Gyro.Y, &c.Gyro.Z,
			&temp, &press, &alt); err != nil {
			return nil, fmt.Errorf("datalog: scan: %w", err)
		}
		c.Seq = uint64(seq)
		c.Start, c.End = time.Unix(0, start), time.Unix(0, end)
		if temp.Valid {
			c.Baro = &env.Barometer{Temperature: temp.Float64, Pressure: press.Float64, Altitude: alt.Float64}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const (
	defaultHistory = 50
	maxHistory     = 1000
)

// ServeRecent answers with the newest ?n= composites (default 50, at most
// 1000) as a JSON array, newest first.
func (d *Datalog) ServeRecent(w http.ResponseWriter, r *http.Request) {
	n := defaultHistory
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 {
			http.Error(w, fmt.Sprintf("invalid n %q", q), http.StatusBadRequest)
			return
		}
		n = min(v, maxHistory)
	}
	rows, err := d.Recent(n)
	if err != nil {
		log.WithError(err).Warn("datalog: history query")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []imu.Composite{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		log.WithError(err).Debug("datalog: write history")
	}
}

// Close releases the database.
func (d *Datalog) Close() error {
	d.stmt.Close()
	return d.db.Close()
}
