// internal/models/upload.go
package models

import "github.com/google/uuid"

// UploadKind classifies an attachment.
type UploadKind string

const (
	UploadKindVehicle  UploadKind = "vehicle"
	UploadKindIdentity UploadKind = "identity"
	UploadKindIncome   UploadKind = "income"
	UploadKindOther    UploadKind = "other"
)

// AttachmentSource tags where an upload's bytes live. This replaces the
// original duck-typed "is this a file or a reference" check with an
// explicit tagged union resolved at upload time.
type AttachmentSource string

const (
	// AttachmentLocal means the bytes are held client-side and still need
	// to be shipped to the backend.
	AttachmentLocal AttachmentSource = "local"
	// AttachmentRemote means the backend already holds the file; URL points
	// at the server copy and nothing is re-uploaded.
	AttachmentRemote AttachmentSource = "remote"
)

// Upload is one attached file: either a local file pending upload or a
// reference to a server-side copy.
type Upload struct {
	ID       string     `json:"id"`
	Kind     UploadKind `json:"kind"`
	Filename string     `json:"filename"`
	MimeType string     `json:"mimeType"`
	Size     int64      `json:"size"`

	Source AttachmentSource `json:"source"`
	// Data carries the bytes of a local attachment. Omitted once the file
	// has been uploaded and replaced by a server URL.
	Data []byte `json:"data,omitempty"`
	// URL is a local object reference until the upload phase swaps in the
	// server URL.
	URL string `json:"url,omitempty"`

	// VehicleID routes a photo to a specific vehicle's photo list instead
	// of the loan's flat document list.
	VehicleID string `json:"vehicleId,omitempty"`
	// Field is the document slot name (govIdFront, odometer, ...) when the
	// upload fills one of the fixed photo fields.
	Field string `json:"field,omitempty"`
}

// NewUploadID generates an identifier for an upload.
func NewUploadID() string {
	return "upl_" + uuid.New().String()
}

// Local reports whether the upload still carries client-side bytes that
// the submission pipeline has to ship.
func (u Upload) Local() bool {
	return u.Source == AttachmentLocal && len(u.Data) > 0
}
