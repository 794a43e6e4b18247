// Package mongostore implements the persistence ports on MongoDB. The
// in-memory stores remain the default wiring; this backend is selected with
// storage.backend = "mongo".
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	colAppointments = "appointments"
	colTrailers     = "trailers"
	colLocations    = "yard_locations"
	colMoves        = "yard_moves"
)

// Config defines the MongoDB connection.
type Config struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Database == "" {
		c.Database = "yms"
	}
}

// Client wraps the driver connection and hands out the typed stores.
type Client struct {
	cli *mongo.Client
	db  *mongo.Database
}

// Connect dials the server and verifies it responds to a ping.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	cfg.SetDefaults()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Client{cli: cli, db: cli.Database(cfg.Database)}, nil
}

// Appointments returns the appointment store.
func (c *Client) Appointments() *AppointmentStore {
	return &AppointmentStore{col: c.db.Collection(colAppointments)}
}

// Trailers returns the trailer store.
func (c *Client) Trailers() *TrailerStore {
	return &TrailerStore{col: c.db.Collection(colTrailers)}
}

// Locations returns the yard location store.
func (c *Client) Locations() *LocationStore {
	return &LocationStore{col: c.db.Collection(colLocations)}
}

// Moves returns the yard move store.
func (c *Client) Moves() *MoveStore {
	return &MoveStore{col: c.db.Collection(colMoves)}
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	return c.cli.Disconnect(ctx)
}
