package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/blackfeed/backend/internal/models"
)

func TestWhitelistCIDRContainment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWhitelistService(db, NewAuditService(db))

	require.NoError(t, svc.Create(&models.WhitelistEntry{Value: "10.0.0.0/8", Kind: models.KindIP}))

	ok, err := svc.IsWhitelisted("10.1.2.3", models.KindIP)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsWhitelisted("11.1.2.3", models.KindIP)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWhitelistDomainSuffix(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWhitelistService(db, NewAuditService(db))

	require.NoError(t, svc.Create(&models.WhitelistEntry{Value: "example.com", Kind: models.KindDomain}))

	cases := map[string]bool{
		"example.com":       true,
		"a.example.com":     true,
		"x.a.example.com":   true,
		"notexample.com":    false,
		"example.com.evil":  false,
		"otherexample.com":  false,
	}
	for value, want := range cases {
		ok, err := svc.IsWhitelisted(value, models.KindDomain)
		require.NoError(t, err, value)
		assert.Equal(t, want, ok, value)
	}
}

func TestWhitelistExactMatchOtherKinds(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWhitelistService(db, NewAuditService(db))

	hash := "aabbccddaabbccddaabbccddaabbccdd"
	require.NoError(t, svc.Create(&models.WhitelistEntry{Value: hash, Kind: models.KindHash}))

	ok, err := svc.IsWhitelisted(hash, models.KindHash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsWhitelisted("ffffccddaabbccddaabbccddaabbccdd", models.KindHash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBulkCheckMatchesScalarForm(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWhitelistService(db, NewAuditService(db))

	require.NoError(t, svc.Create(&models.WhitelistEntry{Value: "10.0.0.0/8", Kind: models.KindIP}))
	require.NoError(t, svc.Create(&models.WhitelistEntry{Value: "203.0.113.9", Kind: models.KindIP}))

	values := []string{"10.1.2.3", "11.1.2.3", "203.0.113.9", "8.8.8.8"}
	bulk, err := svc.BulkCheck(values, models.KindIP)
	require.NoError(t, err)

	for _, v := range values {
		scalar, err := svc.Find(v, models.KindIP)
		require.NoError(t, err)
		_, inBulk := bulk[v]
		assert.Equal(t, scalar != nil, inBulk, v)
	}
	assert.Len(t, bulk, 2)
}

func TestMatchEntryFirstMatchWins(t *testing.T) {
	entries := []models.WhitelistEntry{
		{ID: 1, Value: "10.0.0.0/8", Kind: models.KindIP},
		{ID: 2, Value: "10.1.0.0/16", Kind: models.KindIP},
	}
	got := MatchEntry("10.1.2.3", models.KindIP, entries)
	require.NotNil(t, got)
	assert.Equal(t, uint(1), got.ID)
}

func TestRecordBlockPersistsBlockAndAudit(t *testing.T) {
	db := setupTestDB(t)
	audit := NewAuditService(db)
	svc := NewWhitelistService(db, audit)

	entry := models.WhitelistEntry{Value: "10.0.0.0/8", Kind: models.KindIP}
	require.NoError(t, svc.Create(&entry))

	sourceID := uint(7)
	svc.RecordBlock("10.1.2.3", models.KindIP, "test-feed", &sourceID, &entry)

	var blocks []models.WhitelistBlock
	require.NoError(t, db.Find(&blocks).Error)
	require.Len(t, blocks, 1)
	assert.Equal(t, "10.1.2.3", blocks[0].Value)
	assert.Equal(t, entry.ID, blocks[0].WhitelistEntryID)
	assert.Equal(t, "test-feed", blocks[0].SourceName)

	events, err := audit.List(10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, ActionWhitelistBlock, events[0].Action)
}

func TestWhitelistCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWhitelistService(db, NewAuditService(db))

	t.Run("kind inferred from value", func(t *testing.T) {
		entry := models.WhitelistEntry{Value: "172.16.0.0/12"}
		require.NoError(t, svc.Create(&entry))
		assert.Equal(t, models.KindIP, entry.Kind)
	})

	t.Run("kind mismatch rejected", func(t *testing.T) {
		entry := models.WhitelistEntry{Value: "example.org", Kind: models.KindIP}
		assert.ErrorIs(t, svc.Create(&entry), ErrWhitelistKindMismatch)
	})

	t.Run("invalid value rejected", func(t *testing.T) {
		entry := models.WhitelistEntry{Value: "server.local"}
		assert.ErrorIs(t, svc.Create(&entry), ErrReservedTLD)
	})
}
