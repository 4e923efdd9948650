// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"encoding/json"
	"testing"

	"codeberg.org/oliverandrich/taskboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPatch_Empty(t *testing.T) {
	done := true
	title := "x"

	assert.True(t, models.TaskPatch{}.Empty())
	assert.False(t, models.TaskPatch{Done: &done}.Empty())
	assert.False(t, models.TaskPatch{Title: &title}.Empty())
}

func TestTaskPatch_DecodeOmittedFields(t *testing.T) {
	var p models.TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"done":true}`), &p))

	assert.Nil(t, p.Title)
	require.NotNil(t, p.Done)
	assert.True(t, *p.Done)
}

func TestTask_JSONHidesOwner(t *testing.T) {
	b, err := json.Marshal(models.Task{ID: 1, OwnerEmail: "a@test.com", Title: "A1"})
	require.NoError(t, err)

	assert.NotContains(t, string(b), "a@test.com")
	assert.Contains(t, string(b), `"title":"A1"`)
	assert.Contains(t, string(b), `"done":false`)
}

func TestUser_JSONHidesPasswordHash(t *testing.T) {
	b, err := json.Marshal(models.User{Email: "a@test.com", PasswordHash: "$pbkdf2-sha256$secret"})
	require.NoError(t, err)

	assert.NotContains(t, string(b), "pbkdf2")
}
