package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provtrack/internal/models"
	"provtrack/internal/sentinel"
)

func TestVisibilityRedaction(t *testing.T) {
	svc, reg, _ := newTestService(t)
	seedRoles(t, reg)
	registerTestProduct(t, svc, "tv-1", 365, 2)
	sellThrough(t, svc, "tv-1")

	// owner opts out of public history
	require.NoError(t, svc.SetProductVisibility("carol", "tv-1", false))

	// third party gets masked fields and the opt-out flag
	d, err := svc.GetProductDetails("dave", "tv-1")
	require.NoError(t, err)
	assert.Equal(t, "REDACTED", d.SerialNumber)
	assert.Equal(t, "REDACTED", d.Specifications)
	assert.False(t, d.IsVisible)
	// non-sensitive facts stay readable
	assert.Equal(t, "X100", d.Model)

	// owner and admin always see full detail
	for _, caller := range []string{"carol", testAdmin} {
		d, err := svc.GetProductDetails(caller, "tv-1")
		require.NoError(t, err)
		assert.Equal(t, "SN-001", d.SerialNumber)
		assert.Equal(t, "55in panel, 4k", d.Specifications)
	}

	// opting back in restores the fields
	require.NoError(t, svc.SetProductVisibility("carol", "tv-1", true))
	d, err = svc.GetProductDetails("dave", "tv-1")
	require.NoError(t, err)
	assert.Equal(t, "SN-001", d.SerialNumber)
	assert.True(t, d.IsVisible)

	// only the current owner may toggle
	err = svc.SetProductVisibility("dave", "tv-1", false)
	assert.ErrorIs(t, err, sentinel.ErrUnauthorized)
}

func TestHistoryRecordFiltering(t *testing.T) {
	svc, reg, _ := newTestService(t)
	seedRoles(t, reg)
	registerTestProduct(t, svc, "tv-1", 365, 2)
	sellThrough(t, svc, "tv-1")

	// hide the middle record
	require.NoError(t, svc.SetOwnershipRecordVisibility("carol", "tv-1", 1, false))

	// third parties see the visible subset, in original order, with no gap
	// markers
	visible, err := svc.GetOwnershipHistory("dave", "tv-1")
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, 0, visible[0].Seq)
	assert.Equal(t, 2, visible[1].Seq)

	// owner and admin see the full sequence
	full, err := svc.GetOwnershipHistory("carol", "tv-1")
	require.NoError(t, err)
	assert.Len(t, full, 3)

	// owner-level opt-out hides the history from third parties entirely
	require.NoError(t, svc.SetProductVisibility("carol", "tv-1", false))
	hidden, err := svc.GetOwnershipHistory("dave", "tv-1")
	require.NoError(t, err)
	assert.Empty(t, hidden)
	full, err = svc.GetOwnershipHistory(testAdmin, "tv-1")
	require.NoError(t, err)
	assert.Len(t, full, 3)

	// unknown record index
	err = svc.SetOwnershipRecordVisibility("carol", "tv-1", 12, false)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestClaimFiltering(t *testing.T) {
	svc, reg, _ := newTestService(t)
	seedRoles(t, reg)
	registerTestProduct(t, svc, "tv-1", 365, 3)
	sellThrough(t, svc, "tv-1")

	_, err := svc.SubmitWarrantyClaim("carol", "tv-1", "dead pixels")
	require.NoError(t, err)
	_, err = svc.SubmitWarrantyClaim("carol", "tv-1", "no sound")
	require.NoError(t, err)

	require.NoError(t, svc.SetClaimVisibility("carol", "tv-1", 0, false))

	visible, err := svc.GetWarrantyHistory("dave", "tv-1")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, 1, visible[0].ClaimID)

	full, err := svc.GetWarrantyHistory("carol", "tv-1")
	require.NoError(t, err)
	assert.Len(t, full, 2)
}

func TestVerifyProductOwnership(t *testing.T) {
	svc, reg, _ := newTestService(t)
	seedRoles(t, reg)
	registerTestProduct(t, svc, "tv-1", 365, 2)
	sellThrough(t, svc, "tv-1")

	owned, err := svc.VerifyProductOwnership("carol", "tv-1")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = svc.VerifyProductOwnership("dave", "tv-1")
	require.NoError(t, err)
	assert.False(t, owned)

	_, err = svc.VerifyProductOwnership("carol", "tv-404")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListEvents(t *testing.T) {
	svc, reg, _ := newTestService(t)
	seedRoles(t, reg)
	registerTestProduct(t, svc, "tv-1", 365, 2)
	sellThrough(t, svc, "tv-1")

	all, err := svc.ListEvents(testAdmin, "tv-1", 0)
	require.NoError(t, err)
	// registration plus two transfers
	assert.Len(t, all, 3)

	// non-admin callers only see events they caused; shop performed the sale
	// to carol, so the transfer lands in shop's trail, not carol's
	shops, err := svc.ListEvents("shop", "", 0)
	require.NoError(t, err)
	require.Len(t, shops, 2)
	assert.Equal(t, models.EventOwnershipTransferred, shops[0].Action)
	assert.Contains(t, string(shops[0].Metadata), `"to":"carol"`)
	assert.Equal(t, models.EventRoleAssigned, shops[1].Action)

	carols, err := svc.ListEvents("carol", "", 0)
	require.NoError(t, err)
	require.Len(t, carols, 1)
	assert.Equal(t, models.EventRoleAssigned, carols[0].Action)
}
