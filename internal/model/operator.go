package model

// Operator is the authenticated identity attached to each detection
// event. Issued by the external auth collaborator; the engine only
// consumes it.
type Operator struct {
	OperatorID string
	CameraCode string
	Role       string
}
