package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrNoDefaultLanding error if providers are configured without a default landing URL.
	ErrNoDefaultLanding = errors.New("toml config auth.defaultlandingurl can not be empty when providers are configured")

	// ErrUnknownGormEngine error if db.gormengine is not one of the supported engines.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be mysql, postgres or sqlite")
)
