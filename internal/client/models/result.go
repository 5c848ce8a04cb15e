package models

// Stage names the pipeline phase an asset was dropped in.
type Stage string

const (
	StageMaterialize Stage = "materialize"
	StageTransfer    Stage = "transfer"
	StageConfirm     Stage = "confirm"
)

// AssetFailure is a per-asset, recoverable failure. These are collected for
// reporting and never abort the batch on their own.
type AssetFailure struct {
	LocalAssetID string
	Stage        Stage
	Err          error
}

// UploadResult is what one UploadSelected run hands back to the caller.
//
// Callers tell three outcomes apart:
//   - Empty(): nothing was selected, no network traffic happened;
//   - OK(): the batch went through (SucceededCount may be lower than the
//     selection, see Failures);
//   - otherwise Err explains why the batch failed.
type UploadResult struct {
	Selected       int
	SucceededCount int
	Response       *SyncDelta
	Failures       []AssetFailure
	Err            error
}

// Failure builds a failed result.
func Failure(err error) UploadResult {
	return UploadResult{Err: err}
}

func (r UploadResult) OK() bool {
	return r.Err == nil
}

func (r UploadResult) Empty() bool {
	return r.Err == nil && r.Selected == 0
}

// Partial reports a successful run that did not upload every selected asset.
func (r UploadResult) Partial() bool {
	return r.OK() && !r.Empty() && r.SucceededCount < r.Selected
}
