package domain

// Tag is a user-created labeled record with opaque encrypted payload fields.
// The bson field names and the two collection names (tags, shared_tags) are
// the on-disk schema contract and must not change.
//
// Timestamps are client-supplied logical milliseconds. They drive the
// last-write-wins rule; the server clock is only a fallback default.
type Tag struct {
	ID            string `bson:"id" json:"id"`
	DeviceID      string `bson:"deviceId" json:"device_id"`
	LocalID       string `bson:"localId" json:"local_id"`
	UserID        string `bson:"userId" json:"user_id"`
	Text          string `bson:"text" json:"text"`
	EncKey        string `bson:"encKey" json:"enc_key"`
	EncConfig     string `bson:"encConfig" json:"enc_config"`
	Deleted       bool   `bson:"deleted" json:"deleted"`
	CreateTs      int64  `bson:"createTs" json:"create_ts"`
	UpdateTs      *int64 `bson:"updateTs" json:"update_ts,omitempty"`
	DeleteTs      *int64 `bson:"deleteTs" json:"delete_ts,omitempty"`
	SchemaVersion int    `bson:"schemaVersion" json:"schema_version"`

	// Shared-namespace visibility flags. Always false on owned tags.
	Archived bool `bson:"archived" json:"archived"`
	Recycled bool `bson:"recycled" json:"recycled"`
}

// TagChanges is the fixed set of fields a timestamp-gated update may touch.
type TagChanges struct {
	Text          string
	EncKey        string
	EncConfig     string
	SchemaVersion int
}

type CreateTagRequest struct {
	DeviceID      string `json:"device_id" validate:"required"`
	LocalID       string `json:"local_id"`
	Text          string `json:"text" validate:"required"`
	EncKey        string `json:"enc_key"`
	EncConfig     string `json:"enc_config"`
	CreateTs      int64  `json:"create_ts"`
	SchemaVersion int    `json:"schema_version"`
}

type UpdateTagRequest struct {
	DeviceID      string `json:"device_id"`
	Text          string `json:"text" validate:"required"`
	EncKey        string `json:"enc_key"`
	EncConfig     string `json:"enc_config"`
	UpdateTs      int64  `json:"update_ts"`
	SchemaVersion int    `json:"schema_version"`
}

type DeleteTagRequest struct {
	DeviceID string `json:"device_id"`
	DeleteTs int64  `json:"delete_ts"`
}

type ImportTagsRequest struct {
	Tags []*Tag `json:"tags" validate:"required,min=1"`
}

// ShareTagRequest copies a tag into the recipient's shared namespace.
// The payload is a point-in-time snapshot; later edits to either side
// are independent.
type ShareTagRequest struct {
	RecipientUserID string `json:"recipient_user_id" validate:"required"`
	DeviceID        string `json:"device_id" validate:"required"`
	LocalID         string `json:"local_id"`
	Text            string `json:"text" validate:"required"`
	EncKey          string `json:"enc_key"`
	EncConfig       string `json:"enc_config"`
	CreateTs        int64  `json:"create_ts"`
	SchemaVersion   int    `json:"schema_version"`
}

type SharedLookupRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

type SharedByUserRequest struct {
	UserID string   `json:"user_id" validate:"required"`
	IDs    []string `json:"ids" validate:"required,min=1"`
}

// TagResponse is the restricted read-path view: provenance bookkeeping
// (deviceId, localId) stays internal.
type TagResponse struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	EncKey        string `json:"enc_key"`
	EncConfig     string `json:"enc_config"`
	Deleted       bool   `json:"deleted"`
	CreateTs      int64  `json:"create_ts"`
	UpdateTs      *int64 `json:"update_ts,omitempty"`
	DeleteTs      *int64 `json:"delete_ts,omitempty"`
	SchemaVersion int    `json:"schema_version"`
}

func NewTagResponse(t *Tag) *TagResponse {
	return &TagResponse{
		ID:            t.ID,
		Text:          t.Text,
		EncKey:        t.EncKey,
		EncConfig:     t.EncConfig,
		Deleted:       t.Deleted,
		CreateTs:      t.CreateTs,
		UpdateTs:      t.UpdateTs,
		DeleteTs:      t.DeleteTs,
		SchemaVersion: t.SchemaVersion,
	}
}

type SyncResponse struct {
	Tags     []*Tag `json:"tags"`
	SyncTime int64  `json:"sync_time"`
}
