// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "gatehouse", cmd.Use)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"], "serve subcommand missing")
	assert.True(t, names["migrate"], "migrate subcommand missing")

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestNewServeCmd_Flags(t *testing.T) {
	cmd := NewServeCmd()

	for _, name := range []string{
		"server.addr",
		"metrics.addr",
		"database.url",
		"database.automigrate",
		"auth.token_secret",
		"log.format",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s missing", name)
	}

	assert.Equal(t, ":8080", cmd.Flags().Lookup("server.addr").DefValue)
	assert.Equal(t, "json", cmd.Flags().Lookup("log.format").DefValue)
}

func TestNewMigrateCmd_Subcommands(t *testing.T) {
	cmd := NewMigrateCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["up"], "up subcommand missing")
	assert.True(t, names["down"], "down subcommand missing")
	assert.True(t, names["status"], "status subcommand missing")
}

func TestDatabaseURL(t *testing.T) {
	t.Run("reads DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/gatehouse")
		url, err := databaseURL()
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost:5432/gatehouse", url)
	})

	t.Run("missing env fails", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := databaseURL()
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}
