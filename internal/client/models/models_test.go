package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUploadCandidate_UploadedIsNeverSelectable(t *testing.T) {
	c := UploadCandidate{LocalAssetID: "a1", IsUploaded: true}

	require.False(t, c.Selectable())
	require.ErrorIs(t, c.Select(), ErrAlreadyUploaded)
	require.False(t, c.IsSelected)
	require.False(t, c.Pending())
}

func TestUploadCandidate_SelectAndUnselect(t *testing.T) {
	c := UploadCandidate{LocalAssetID: "a1"}

	require.True(t, c.Selectable())
	require.NoError(t, c.Select())
	require.True(t, c.Pending())

	c.Unselect()
	require.False(t, c.Pending())
}

func TestEncodedPayload_Descriptor(t *testing.T) {
	p := &EncodedPayload{LocalAssetID: "a1", Bytes: []byte{1}, FileName: "a1_1.jpg", ContentType: ContentTypeJPEG}
	require.Equal(t, PayloadDescriptor{FileName: "a1_1.jpg", ContentType: "image/jpeg"}, p.Descriptor())
}

func TestUploadResult_Outcomes(t *testing.T) {
	empty := UploadResult{}
	require.True(t, empty.Empty())
	require.True(t, empty.OK())
	require.False(t, empty.Partial())

	full := UploadResult{Selected: 2, SucceededCount: 2}
	require.False(t, full.Empty())
	require.False(t, full.Partial())

	partial := UploadResult{Selected: 3, SucceededCount: 1}
	require.True(t, partial.Partial())

	failed := Failure(errors.New("boom"))
	require.False(t, failed.OK())
	require.False(t, failed.Empty())
	require.False(t, failed.Partial())
}
