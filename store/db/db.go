// Package db selects the concrete store driver based on the profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/chorus/internal/profile"
	"github.com/hrygo/chorus/store"
	"github.com/hrygo/chorus/store/db/postgres"
	"github.com/hrygo/chorus/store/db/sqlite"
)

// NewDBDriver creates a new DB driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "postgres":
		return postgres.NewDB(profile)
	case "sqlite":
		return sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported driver: %s", profile.Driver)
	}
}
