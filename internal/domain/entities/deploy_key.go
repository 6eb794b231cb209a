package entities

// DeployKey references a provider-side deploy key by its human-chosen
// title, unique per provider installation. Keys are resolved, never
// created, during repository provisioning.
type DeployKey struct {
	Title string
	ID    int64 // Remote numeric key id
}
